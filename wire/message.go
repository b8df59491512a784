package wire

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
)

// Message is satisfied by every typed wire payload. Grounded on
// msg.Message in (BitcoinParse/BitcoinSerialize/Command).
type Message interface {
	Command() string
	MaxPayloadLength() uint32
	Encode(w io.Writer) error
	Decode(r io.Reader) error
}

// Command name constants, one per required typed parser.
const (
	CmdVersion    = "version"
	CmdVerAck     = "verack"
	CmdPing       = "ping"
	CmdPong       = "pong"
	CmdAddr       = "addr"
	CmdInv        = "inv"
	CmdGetData    = "getdata"
	CmdGetBlocks  = "getblocks"
	CmdGetHeaders = "getheaders"
	CmdTx         = "tx"
	CmdBlock      = "block"
	CmdHeaders    = "headers"
	CmdAlert      = "alert"
)

var makers = map[string]func() Message{
	CmdVersion:    func() Message { return &VersionMessage{} },
	CmdVerAck:     func() Message { return &VerAckMessage{} },
	CmdPing:       func() Message { return &PingMessage{} },
	CmdPong:       func() Message { return &PongMessage{} },
	CmdAddr:       func() Message { return &AddrMessage{} },
	CmdInv:        func() Message { return &InvMessage{} },
	CmdGetData:    func() Message { return &GetDataMessage{} },
	CmdGetBlocks:  func() Message { return &GetBlocksMessage{} },
	CmdGetHeaders: func() Message { return &GetHeadersMessage{} },
	CmdTx:         func() Message { return &Tx{} },
	CmdBlock:      func() Message { return &Block{} },
	CmdHeaders:    func() Message { return &HeadersMessage{} },
	CmdAlert:      func() Message { return &AlertMessage{} },
}

func doubleSha256(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

// header is the 20- or 24-byte frame preceding every payload: magic(4) | command(12) | length(4) | [checksum(4)].
type header struct {
	magic    BitcoinNet
	command  string
	length   uint32
	checksum [4]byte
}

func (h *header) writeTo(w io.Writer) error {
	if err := writeUint32(w, uint32(h.magic)); err != nil {
		return err
	}
	var cmd [CommandSize]byte
	copy(cmd[:], h.command)
	if _, err := w.Write(cmd[:]); err != nil {
		return err
	}
	if err := writeUint32(w, h.length); err != nil {
		return err
	}
	return nil
}

// Codec frames and parses messages against a byte stream. It carries a
// single mutable checksumming flag, defaulting on. Peer's handshake turns
// it off before sending its version message and back on once the remote
// announces a version of at least ChecksumVersion, so a peer below that
// version is spoken to without checksums. The codec is otherwise stateless and safe
// for one goroutine at a time (the caller is responsible for serializing
// concurrent writers).
type Codec struct {
	Net          BitcoinNet
	checksumming bool
}

// NewCodec builds a Codec with checksumming enabled by default.
func NewCodec(net BitcoinNet) *Codec {
	return &Codec{Net: net, checksumming: true}
}

// SetChecksumming flips the codec's mutable flag. Called by Peer's
// handshake with false before the version exchange and true after, once
// the remote's version is known to be at least ChecksumVersion.
func (c *Codec) SetChecksumming(on bool) {
	c.checksumming = on
}

// Checksumming reports the codec's current flag value.
func (c *Codec) Checksumming() bool {
	return c.checksumming
}

// Serialize writes magic, command, length, optional checksum, then the
// encoded payload of msg to sink.
func (c *Codec) Serialize(sink io.Writer, msg Message) error {
	var payload bytes.Buffer
	if err := msg.Encode(&payload); err != nil {
		return NewProtocolError("encode payload", err)
	}
	if payload.Len() > MaxMessagePayload {
		return NewProtocolError(fmt.Sprintf("payload of %s is %d bytes, exceeds max %d", msg.Command(), payload.Len(), MaxMessagePayload), nil)
	}
	if maxLen := msg.MaxPayloadLength(); maxLen > 0 && uint32(payload.Len()) > maxLen {
		return NewProtocolError(fmt.Sprintf("payload of %s is %d bytes, exceeds type max %d", msg.Command(), payload.Len(), maxLen), nil)
	}
	h := header{magic: c.Net, command: msg.Command(), length: uint32(payload.Len())}
	if err := h.writeTo(sink); err != nil {
		return err
	}
	if c.checksumming {
		sum := doubleSha256(payload.Bytes())
		if _, err := sink.Write(sum[:4]); err != nil {
			return err
		}
	}
	_, err := sink.Write(payload.Bytes())
	return err
}

// Deserialize reads one framed message from source, validating magic,
// length, and (when enabled) the checksum, then dispatches to the typed
// parser selected by command. Unknown commands are returned as a raw
// *UnknownMessage rather than failing the stream.
func (c *Codec) Deserialize(source io.Reader) (Message, error) {
	magic, err := readUint32(source)
	if err != nil {
		return nil, err
	}
	if BitcoinNet(magic) != c.Net {
		return nil, NewProtocolError(fmt.Sprintf("unexpected network magic %x, want %x", magic, uint32(c.Net)), nil)
	}
	var cmdBuf [CommandSize]byte
	if _, err := io.ReadFull(source, cmdBuf[:]); err != nil {
		return nil, err
	}
	command := string(bytes.TrimRight(cmdBuf[:], "\x00"))
	length, err := readUint32(source)
	if err != nil {
		return nil, err
	}
	if length > MaxMessagePayload {
		return nil, NewProtocolError(fmt.Sprintf("declared payload length %d exceeds max %d", length, MaxMessagePayload), nil)
	}
	var wantChecksum [4]byte
	if c.checksumming {
		if _, err := io.ReadFull(source, wantChecksum[:]); err != nil {
			return nil, err
		}
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(source, payload); err != nil {
		return nil, err
	}
	if c.checksumming {
		got := doubleSha256(payload)
		if !bytes.Equal(got[:4], wantChecksum[:]) {
			return nil, NewProtocolError(fmt.Sprintf("checksum mismatch for %s", command), nil)
		}
	}
	maker, ok := makers[command]
	if !ok {
		return &UnknownMessage{CommandName: command, Payload: payload}, nil
	}
	msg := maker()
	if err := msg.Decode(bytes.NewReader(payload)); err != nil {
		return nil, NewProtocolError(fmt.Sprintf("decode %s payload", command), err)
	}
	return msg, nil
}

// UnknownMessage is returned by Deserialize for any command not in the
// required parser set. The peer's message dispatch ignores it, so an
// unknown command does not fail the connection; nothing logs it.
type UnknownMessage struct {
	CommandName string
	Payload     []byte
}

func (m *UnknownMessage) Command() string          { return m.CommandName }
func (m *UnknownMessage) MaxPayloadLength() uint32 { return MaxMessagePayload }
func (m *UnknownMessage) Encode(w io.Writer) error { _, err := w.Write(m.Payload); return err }
func (m *UnknownMessage) Decode(r io.Reader) error {
	b, err := io.ReadAll(r)
	m.Payload = b
	return err
}
