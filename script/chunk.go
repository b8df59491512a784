package script

import (
	"encoding/binary"
	"fmt"
)

// Chunk is a single parsed instruction from a Script byte stream: either a
// plain opcode or a pushdata with its literal bytes.
type Chunk struct {
	Opcode Opcode
	Data   []byte // non-nil for pushdata chunks, including OP_0's empty push
	Offset int    // byte offset of this chunk's opcode byte within the script
}

// IsPush reports whether the chunk pushes data: a direct push, an
// OP_PUSHDATA1/2/4 push, or OP_0's empty push. The small-integer opcodes
// OP_1..OP_16 and OP_1NEGATE are not data chunks and report false here.
func (c Chunk) IsPush() bool {
	return c.Data != nil
}

// Parse decomposes raw into its Chunks. A truncated pushdata length or a
// pushdata whose declared length runs past the end of raw is a parse
// error.
func Parse(raw []byte) ([]Chunk, error) {
	var chunks []Chunk
	i := 0
	for i < len(raw) {
		offset := i
		op := Opcode(raw[i])
		i++

		switch {
		case op == OP_0:
			chunks = append(chunks, Chunk{Opcode: op, Data: []byte{}, Offset: offset})

		case op >= 0x01 && op <= 0x4b:
			n := int(op)
			if i+n > len(raw) {
				return nil, fmt.Errorf("script: truncated push of %d bytes at offset %d", n, offset)
			}
			chunks = append(chunks, Chunk{Opcode: op, Data: append([]byte{}, raw[i:i+n]...), Offset: offset})
			i += n

		case op == OP_PUSHDATA1:
			if i+1 > len(raw) {
				return nil, fmt.Errorf("script: truncated OP_PUSHDATA1 length at offset %d", offset)
			}
			n := int(raw[i])
			i++
			if i+n > len(raw) {
				return nil, fmt.Errorf("script: truncated OP_PUSHDATA1 payload at offset %d", offset)
			}
			chunks = append(chunks, Chunk{Opcode: op, Data: append([]byte{}, raw[i:i+n]...), Offset: offset})
			i += n

		case op == OP_PUSHDATA2:
			if i+2 > len(raw) {
				return nil, fmt.Errorf("script: truncated OP_PUSHDATA2 length at offset %d", offset)
			}
			n := int(binary.LittleEndian.Uint16(raw[i : i+2]))
			i += 2
			if i+n > len(raw) {
				return nil, fmt.Errorf("script: truncated OP_PUSHDATA2 payload at offset %d", offset)
			}
			chunks = append(chunks, Chunk{Opcode: op, Data: append([]byte{}, raw[i:i+n]...), Offset: offset})
			i += n

		case op == OP_PUSHDATA4:
			if i+4 > len(raw) {
				return nil, fmt.Errorf("script: truncated OP_PUSHDATA4 length at offset %d", offset)
			}
			n := int(binary.LittleEndian.Uint32(raw[i : i+4]))
			i += 4
			if n < 0 || i+n > len(raw) {
				return nil, fmt.Errorf("script: truncated OP_PUSHDATA4 payload at offset %d", offset)
			}
			chunks = append(chunks, Chunk{Opcode: op, Data: append([]byte{}, raw[i:i+n]...), Offset: offset})
			i += n

		default:
			chunks = append(chunks, Chunk{Opcode: op, Offset: offset})
		}
	}
	return chunks, nil
}
