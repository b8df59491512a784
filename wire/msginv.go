package wire

import "io"

// MaxInvPerMessage bounds the number of inventory vectors one inv/getdata
// message may declare.
const MaxInvPerMessage = 50000

// InvVect is an (type, hash) pair advertised in inv/getdata, per the
// GLOSSARY's "Inventory item".
type InvVect struct {
	Type InventoryType
	Hash Hash256
}

func writeInvVects(w io.Writer, items []InvVect) error {
	if err := WriteVarInt(w, uint64(len(items))); err != nil {
		return err
	}
	for _, it := range items {
		if err := writeUint32(w, uint32(it.Type)); err != nil {
			return err
		}
		if _, err := w.Write(it.Hash[:]); err != nil {
			return err
		}
	}
	return nil
}

func readInvVects(r io.Reader) ([]InvVect, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > MaxInvPerMessage {
		return nil, NewProtocolError("inventory message exceeds max count", nil)
	}
	items := make([]InvVect, 0, count)
	for i := uint64(0); i < count; i++ {
		typ, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		var hash Hash256
		if _, err := io.ReadFull(r, hash[:]); err != nil {
			return nil, err
		}
		items = append(items, InvVect{Type: InventoryType(typ), Hash: hash})
	}
	return items, nil
}

// InvMessage advertises inventory items a peer has available.
type InvMessage struct {
	Items []InvVect
}

func (m *InvMessage) Command() string          { return CmdInv }
func (m *InvMessage) MaxPayloadLength() uint32 { return 9 + MaxInvPerMessage*36 }
func (m *InvMessage) Encode(w io.Writer) error { return writeInvVects(w, m.Items) }
func (m *InvMessage) Decode(r io.Reader) error {
	items, err := readInvVects(r)
	m.Items = items
	return err
}

// GetDataMessage requests the full contents of previously-advertised
// inventory items.
type GetDataMessage struct {
	Items []InvVect
}

func (m *GetDataMessage) Command() string          { return CmdGetData }
func (m *GetDataMessage) MaxPayloadLength() uint32 { return 9 + MaxInvPerMessage*36 }
func (m *GetDataMessage) Encode(w io.Writer) error { return writeInvVects(w, m.Items) }
func (m *GetDataMessage) Decode(r io.Reader) error {
	items, err := readInvVects(r)
	m.Items = items
	return err
}
