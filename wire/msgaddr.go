package wire

import "io"

// MaxAddressesPerMessage bounds how many PeerAddress entries one addr
// message may declare.
const MaxAddressesPerMessage = 1000

// AddrMessage advertises a batch of known peer addresses.
type AddrMessage struct {
	Addresses []*PeerAddress
}

func (m *AddrMessage) Command() string          { return CmdAddr }
func (m *AddrMessage) MaxPayloadLength() uint32 { return 3 + MaxAddressesPerMessage*30 }

func (m *AddrMessage) Encode(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(m.Addresses))); err != nil {
		return err
	}
	for _, a := range m.Addresses {
		if err := a.writeTo(w, true); err != nil {
			return err
		}
	}
	return nil
}

func (m *AddrMessage) Decode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxAddressesPerMessage {
		return NewProtocolError("addr message exceeds max address count", nil)
	}
	m.Addresses = make([]*PeerAddress, 0, count)
	for i := uint64(0); i < count; i++ {
		a, err := readPeerAddress(r, true)
		if err != nil {
			return err
		}
		m.Addresses = append(m.Addresses, a)
	}
	return nil
}
