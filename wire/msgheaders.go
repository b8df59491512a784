package wire

import "io"

// MaxHeadersPerMessage bounds a headers message's batch size.
const MaxHeadersPerMessage = 2000

// HeadersMessage carries a batch of block headers, typically sent in
// response to a getheaders request.
type HeadersMessage struct {
	Headers []*BlockHeader
}

func (m *HeadersMessage) Command() string          { return CmdHeaders }
func (m *HeadersMessage) MaxPayloadLength() uint32 { return 9 + MaxHeadersPerMessage*(80+1) }

func (m *HeadersMessage) Encode(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(m.Headers))); err != nil {
		return err
	}
	for _, h := range m.Headers {
		if err := h.writeTo(w); err != nil {
			return err
		}
		// Headers messages carry a trailing txn-count varint, always zero,
		// per the wire format's historical accident.
		if err := WriteVarInt(w, 0); err != nil {
			return err
		}
	}
	return nil
}

func (m *HeadersMessage) Decode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxHeadersPerMessage {
		return NewProtocolError("headers message exceeds max count", nil)
	}
	m.Headers = make([]*BlockHeader, 0, count)
	for i := uint64(0); i < count; i++ {
		h := &BlockHeader{}
		if err := h.readFrom(r); err != nil {
			return err
		}
		if _, err := ReadVarInt(r); err != nil {
			return err
		}
		m.Headers = append(m.Headers, h)
	}
	return nil
}
