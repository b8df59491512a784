package wire

import (
	"io"
)

// VersionMessage is the first message exchanged on every connection,
// announcing protocol version, services, and best-known chain height.
// Grounded on msg/VersionMessage.go.
type VersionMessage struct {
	ProtocolVersion uint32
	Services        ServiceFlag
	Timestamp       int64
	RemoteAddress   *PeerAddress
	LocalAddress    *PeerAddress
	Nonce           uint64
	UserAgent       string
	LastBlock       int32
	DisableRelayTx  bool
}

// NewVersionMessage builds a version announcement for our own peer.
func NewVersionMessage(local, remote *PeerAddress, nonce uint64, lastBlock int32) *VersionMessage {
	return &VersionMessage{
		ProtocolVersion: ProtocolVersion,
		Services:        0,
		Timestamp:       nowUnix(),
		RemoteAddress:   remote,
		LocalAddress:    local,
		Nonce:           nonce,
		UserAgent:       "/bitpeer:0.1.0/",
		LastBlock:       lastBlock,
	}
}

// HasService reports whether this version message advertises want.
func (m *VersionMessage) HasService(want ServiceFlag) bool {
	return m.Services.HasService(want)
}

func (m *VersionMessage) Command() string          { return CmdVersion }
func (m *VersionMessage) MaxPayloadLength() uint32 { return 33 + 26*2 + 9 + MaxUserAgentLen }

func (m *VersionMessage) Encode(w io.Writer) error {
	if err := writeUint32(w, m.ProtocolVersion); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(m.Services)); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(m.Timestamp)); err != nil {
		return err
	}
	if err := m.RemoteAddress.writeTo(w, false); err != nil {
		return err
	}
	if err := m.LocalAddress.writeTo(w, false); err != nil {
		return err
	}
	if err := writeUint64(w, m.Nonce); err != nil {
		return err
	}
	if err := WriteVarString(w, m.UserAgent); err != nil {
		return err
	}
	if err := writeInt32(w, m.LastBlock); err != nil {
		return err
	}
	var relay byte
	if !m.DisableRelayTx {
		relay = 1
	}
	_, err := w.Write([]byte{relay})
	return err
}

func (m *VersionMessage) Decode(r io.Reader) error {
	var err error
	if m.ProtocolVersion, err = readUint32(r); err != nil {
		return err
	}
	services, err := readUint64(r)
	if err != nil {
		return err
	}
	m.Services = ServiceFlag(services)
	ts, err := readUint64(r)
	if err != nil {
		return err
	}
	m.Timestamp = int64(ts)
	if m.RemoteAddress, err = readPeerAddress(r, false); err != nil {
		return err
	}
	if m.LocalAddress, err = readPeerAddress(r, false); err != nil {
		return err
	}
	if m.Nonce, err = readUint64(r); err != nil {
		return err
	}
	if m.UserAgent, err = ReadVarString(r, MaxUserAgentLen); err != nil {
		return err
	}
	if m.LastBlock, err = readInt32(r); err != nil {
		return err
	}
	relay := [1]byte{1}
	if _, err := io.ReadFull(r, relay[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			// relay flag is optional on older peers; default to relaying.
			m.DisableRelayTx = false
			return nil
		}
		return err
	}
	m.DisableRelayTx = relay[0] == 0
	return nil
}

// VerAckMessage acknowledges a version message. It carries no payload.
type VerAckMessage struct{}

func (m *VerAckMessage) Command() string          { return CmdVerAck }
func (m *VerAckMessage) MaxPayloadLength() uint32 { return 0 }
func (m *VerAckMessage) Encode(w io.Writer) error { return nil }
func (m *VerAckMessage) Decode(r io.Reader) error { return nil }
