package wire

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// MaxTxInPerMessage and MaxTxOutPerMessage bound how many inputs/outputs a
// single transaction may declare when parsed from the wire.
const (
	MaxTxInPerMessage  = 100000
	MaxTxOutPerMessage = 100000
	// MaxScriptSize is the hard limit on any single scriptSig/scriptPubKey
	// read by Tx.Decode. The script package declares its own MaxScriptSize
	// with the same value.
	MaxScriptSize = 10000
)

// TxIn is one transaction input: the outpoint it spends, its unlocking
// script, and its sequence number (consulted by CHECKSEQUENCEVERIFY).
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// TxOut is one transaction output: an amount and its locking script.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// Tx is the concrete transaction type used by the wire codec and by the
// script interpreter's Transaction contract . It is the only
// implementation of that contract in this repository; a host application
// may substitute its own as long as it satisfies the same two
// capabilities (signature hashing and self-hashing).
type Tx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

func (tx *Tx) Command() string          { return CmdTx }
func (tx *Tx) MaxPayloadLength() uint32 { return MaxMessagePayload }

func (tx *Tx) Encode(w io.Writer) error {
	if err := writeInt32(w, tx.Version); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(tx.TxIn))); err != nil {
		return err
	}
	for _, in := range tx.TxIn {
		if err := in.PreviousOutPoint.writeTo(w); err != nil {
			return err
		}
		if err := WriteVarBytes(w, in.SignatureScript); err != nil {
			return err
		}
		if err := writeUint32(w, in.Sequence); err != nil {
			return err
		}
	}
	if err := WriteVarInt(w, uint64(len(tx.TxOut))); err != nil {
		return err
	}
	for _, out := range tx.TxOut {
		if err := writeUint64(w, uint64(out.Value)); err != nil {
			return err
		}
		if err := WriteVarBytes(w, out.PkScript); err != nil {
			return err
		}
	}
	return writeUint32(w, tx.LockTime)
}

func (tx *Tx) Decode(r io.Reader) error {
	var err error
	if tx.Version, err = readInt32(r); err != nil {
		return err
	}
	inCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if inCount > MaxTxInPerMessage {
		return NewProtocolError("tx input count exceeds max", nil)
	}
	tx.TxIn = make([]*TxIn, 0, inCount)
	for i := uint64(0); i < inCount; i++ {
		in := &TxIn{}
		if err := in.PreviousOutPoint.readFrom(r); err != nil {
			return err
		}
		if in.SignatureScript, err = ReadVarBytes(r, MaxScriptSize, "signatureScript"); err != nil {
			return err
		}
		if in.Sequence, err = readUint32(r); err != nil {
			return err
		}
		tx.TxIn = append(tx.TxIn, in)
	}
	outCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if outCount > MaxTxOutPerMessage {
		return NewProtocolError("tx output count exceeds max", nil)
	}
	tx.TxOut = make([]*TxOut, 0, outCount)
	for i := uint64(0); i < outCount; i++ {
		out := &TxOut{}
		v, err := readUint64(r)
		if err != nil {
			return err
		}
		out.Value = int64(v)
		if out.PkScript, err = ReadVarBytes(r, MaxScriptSize, "pkScript"); err != nil {
			return err
		}
		tx.TxOut = append(tx.TxOut, out)
	}
	tx.LockTime, err = readUint32(r)
	return err
}

// Hash returns the double-SHA-256 digest of the transaction's serialized
// form, satisfying the Transaction contract's hash capability.
func (tx *Tx) Hash() Hash256 {
	var buf bytes.Buffer
	_ = tx.Encode(&buf)
	var h Hash256
	copy(h[:], doubleSha256(buf.Bytes()))
	return h
}

// SigHashType enumerates the single-byte sighash flags attached to every
// signature, per the GLOSSARY's "Sighash".
type SigHashType byte

const (
	SigHashAll          SigHashType = 0x1
	SigHashNone         SigHashType = 0x2
	SigHashSingle       SigHashType = 0x3
	SigHashAnyoneCanPay SigHashType = 0x80
)

// SignatureHash computes the 32-byte digest a signature for inputIndex
// must cover, given the connected script bytes (
// hashTransactionForSignature). It implements the original Bitcoin
// algorithm: build a modified copy of the transaction per the sighash
// flag, serialize it with the sighash type appended as a little-endian
// uint32, and double-SHA-256 the result.
func (tx *Tx) SignatureHash(sigHashByte byte, inputIndex int, connectedScript []byte) (Hash256, error) {
	if inputIndex < 0 || inputIndex >= len(tx.TxIn) {
		return Hash256{}, errors.Errorf("input index %d out of range (%d inputs)", inputIndex, len(tx.TxIn))
	}
	hashType := SigHashType(sigHashByte &^ byte(SigHashAnyoneCanPay))
	anyoneCanPay := sigHashByte&byte(SigHashAnyoneCanPay) != 0

	txCopy := &Tx{Version: tx.Version, LockTime: tx.LockTime}

	if anyoneCanPay {
		in := tx.TxIn[inputIndex]
		txCopy.TxIn = []*TxIn{{
			PreviousOutPoint: in.PreviousOutPoint,
			SignatureScript:  connectedScript,
			Sequence:         in.Sequence,
		}}
	} else {
		txCopy.TxIn = make([]*TxIn, len(tx.TxIn))
		for i, in := range tx.TxIn {
			script := []byte(nil)
			sequence := in.Sequence
			if i == inputIndex {
				script = connectedScript
			} else if hashType == SigHashNone || hashType == SigHashSingle {
				// non-signed inputs are blanked out and their sequence
				// zeroed so later modification of them does not
				// invalidate this signature.
				sequence = 0
			}
			txCopy.TxIn[i] = &TxIn{
				PreviousOutPoint: in.PreviousOutPoint,
				SignatureScript:  script,
				Sequence:         sequence,
			}
		}
	}

	switch hashType {
	case SigHashNone:
		txCopy.TxOut = nil
	case SigHashSingle:
		if inputIndex >= len(tx.TxOut) {
			return Hash256{}, errors.Errorf("SIGHASH_SINGLE input index %d has no matching output", inputIndex)
		}
		txCopy.TxOut = make([]*TxOut, inputIndex+1)
		for i := 0; i < inputIndex; i++ {
			txCopy.TxOut[i] = &TxOut{Value: -1}
		}
		txCopy.TxOut[inputIndex] = tx.TxOut[inputIndex]
	default:
		txCopy.TxOut = tx.TxOut
	}

	var buf bytes.Buffer
	if err := txCopy.Encode(&buf); err != nil {
		return Hash256{}, err
	}
	if err := writeUint32(&buf, uint32(sigHashByte)); err != nil {
		return Hash256{}, err
	}
	var h Hash256
	copy(h[:], doubleSha256(buf.Bytes()))
	return h, nil
}
