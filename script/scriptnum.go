package script

import "fmt"

// maxScriptNumSize is the largest byte-serialization the interpreter will
// accept when popping a number off the stack.
const maxScriptNumSize = 4

// ScriptNum is the little-endian, sign-magnitude ("MPI-style") integer
// encoding Script arithmetic opcodes operate on: the high bit of the last
// byte is a sign flag, not part of the magnitude.
type ScriptNum int64

// NewScriptNum decodes raw into a ScriptNum. It rejects encodings longer
// than maxScriptNumSize bytes and, when requireMinimal is set, encodings
// that are not minimal.
func NewScriptNum(raw []byte, requireMinimal bool) (ScriptNum, error) {
	if len(raw) > maxScriptNumSize {
		return 0, fmt.Errorf("script: numeric value encoded in %d bytes exceeds max of %d", len(raw), maxScriptNumSize)
	}
	if requireMinimal && len(raw) > 0 {
		if raw[len(raw)-1]&0x7f == 0 {
			if len(raw) == 1 || raw[len(raw)-2]&0x80 == 0 {
				return 0, fmt.Errorf("script: non-minimally encoded number")
			}
		}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	var result int64
	for i, b := range raw {
		result |= int64(b) << uint(8*i)
	}
	if raw[len(raw)-1]&0x80 != 0 {
		result &^= int64(0x80) << uint(8*(len(raw)-1))
		result = -result
	}
	return ScriptNum(result), nil
}

// Bytes encodes n back into its minimal little-endian sign-magnitude form.
func (n ScriptNum) Bytes() []byte {
	if n == 0 {
		return nil
	}
	neg := n < 0
	abs := uint64(n)
	if neg {
		abs = uint64(-n)
	}
	var result []byte
	for abs != 0 {
		result = append(result, byte(abs&0xff))
		abs >>= 8
	}
	if result[len(result)-1]&0x80 != 0 {
		if neg {
			result = append(result, 0x80)
		} else {
			result = append(result, 0)
		}
	} else if neg {
		result[len(result)-1] |= 0x80
	}
	return result
}

// Int32 clamps n to the int32 range, matching the original CScriptNum's
// behavior for opcodes (e.g. OP_PICK/OP_ROLL counts) that narrow to int32.
func (n ScriptNum) Int32() int32 {
	if n > 2147483647 {
		return 2147483647
	}
	if n < -2147483648 {
		return -2147483648
	}
	return int32(n)
}
