package wire

import (
	"bytes"
	"io"
)

// BlockHeader is the 80-byte header every block carries.
type BlockHeader struct {
	Version    int32
	PrevBlock  Hash256
	MerkleRoot Hash256
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

func (h *BlockHeader) writeTo(w io.Writer) error {
	if err := writeInt32(w, h.Version); err != nil {
		return err
	}
	if _, err := w.Write(h.PrevBlock[:]); err != nil {
		return err
	}
	if _, err := w.Write(h.MerkleRoot[:]); err != nil {
		return err
	}
	if err := writeUint32(w, h.Timestamp); err != nil {
		return err
	}
	if err := writeUint32(w, h.Bits); err != nil {
		return err
	}
	return writeUint32(w, h.Nonce)
}

func (h *BlockHeader) readFrom(r io.Reader) error {
	var err error
	if h.Version, err = readInt32(r); err != nil {
		return err
	}
	if _, err = io.ReadFull(r, h.PrevBlock[:]); err != nil {
		return err
	}
	if _, err = io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return err
	}
	if h.Timestamp, err = readUint32(r); err != nil {
		return err
	}
	if h.Bits, err = readUint32(r); err != nil {
		return err
	}
	h.Nonce, err = readUint32(r)
	return err
}

// Hash returns the double-SHA-256 digest of the serialized header, the
// value block-locators and inv vectors refer to.
func (h *BlockHeader) Hash() Hash256 {
	var buf bytes.Buffer
	_ = h.writeTo(&buf)
	var out Hash256
	copy(out[:], doubleSha256(buf.Bytes()))
	return out
}

// Block is a header plus its transactions.
type Block struct {
	Header       BlockHeader
	Transactions []*Tx
}

const maxBlockTransactions = 1 << 20

func (b *Block) Command() string          { return CmdBlock }
func (b *Block) MaxPayloadLength() uint32 { return MaxMessagePayload }

func (b *Block) Encode(w io.Writer) error {
	if err := b.Header.writeTo(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(b.Transactions))); err != nil {
		return err
	}
	for _, tx := range b.Transactions {
		if err := tx.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

func (b *Block) Decode(r io.Reader) error {
	if err := b.Header.readFrom(r); err != nil {
		return err
	}
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > maxBlockTransactions {
		return NewProtocolError("block transaction count exceeds max", nil)
	}
	b.Transactions = make([]*Tx, 0, count)
	for i := uint64(0); i < count; i++ {
		tx := &Tx{}
		if err := tx.Decode(r); err != nil {
			return err
		}
		b.Transactions = append(b.Transactions, tx)
	}
	return nil
}
