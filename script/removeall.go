package script

import "encoding/binary"

// RemoveAll returns raw with every occurrence of the pushdata pattern
// matching erase removed, matching the classic "FindAndDelete" used to
// strip the signature itself out of the scriptCode before hashing when
// constructing a connected script for SIGHASH verification.
//
// Matching is done on the re-serialized pushdata encoding of erase, not
// its raw bytes, and only on its shortest encoding: a non-minimal
// OP_PUSHDATAn push of the same bytes is left in place. The length fields
// of OP_PUSHDATA1/2/4 are read as correctly-sized little-endian integers
// (1, 2, and 4 distinct bytes respectively).
func RemoveAll(raw []byte, erase []byte) []byte {
	pattern := encodePush(erase)
	if len(pattern) == 0 {
		return append([]byte{}, raw...)
	}

	out := make([]byte, 0, len(raw))
	i := 0
	for i < len(raw) {
		if i+len(pattern) <= len(raw) && bytesEqual(raw[i:i+len(pattern)], pattern) {
			i += len(pattern)
			continue
		}
		n, consumed := chunkLen(raw[i:])
		if consumed == 0 {
			out = append(out, raw[i])
			i++
			continue
		}
		out = append(out, raw[i:i+consumed+n]...)
		i += consumed + n
	}
	return out
}

// chunkLen returns the length of the data pushed by the instruction at the
// start of b, and the number of bytes consumed by its opcode/length
// prefix. It returns 0, 0 for a plain (non-pushdata) opcode.
func chunkLen(b []byte) (dataLen, prefixLen int) {
	if len(b) == 0 {
		return 0, 0
	}
	op := Opcode(b[0])
	switch {
	case op >= 0x01 && op <= 0x4b:
		return int(op), 1
	case op == OP_PUSHDATA1:
		if len(b) < 2 {
			return 0, 0
		}
		return int(b[1]), 2
	case op == OP_PUSHDATA2:
		if len(b) < 3 {
			return 0, 0
		}
		return int(binary.LittleEndian.Uint16(b[1:3])), 3
	case op == OP_PUSHDATA4:
		if len(b) < 5 {
			return 0, 0
		}
		return int(binary.LittleEndian.Uint32(b[1:5])), 5
	default:
		return 0, 0
	}
}

// encodePush re-serializes data using the shortest legal pushdata
// encoding, the same encoding a compliant script producer would use for
// a signature push.
func encodePush(data []byte) []byte {
	n := len(data)
	switch {
	case n == 0:
		return nil
	case n <= 0x4b:
		out := make([]byte, 1+n)
		out[0] = byte(n)
		copy(out[1:], data)
		return out
	case n <= 0xff:
		out := make([]byte, 2+n)
		out[0] = byte(OP_PUSHDATA1)
		out[1] = byte(n)
		copy(out[2:], data)
		return out
	case n <= 0xffff:
		out := make([]byte, 3+n)
		out[0] = byte(OP_PUSHDATA2)
		binary.LittleEndian.PutUint16(out[1:3], uint16(n))
		copy(out[3:], data)
		return out
	default:
		out := make([]byte, 5+n)
		out[0] = byte(OP_PUSHDATA4)
		binary.LittleEndian.PutUint32(out[1:5], uint32(n))
		copy(out[5:], data)
		return out
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
