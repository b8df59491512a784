package wire

import "io"

// PingMessage carries a nonce a peer can echo back in a pong to measure
// round-trip latency. No response is strictly required; a peer that never
// pongs is simply not useful for latency tracking.
type PingMessage struct {
	Nonce uint64
}

func (m *PingMessage) Command() string          { return CmdPing }
func (m *PingMessage) MaxPayloadLength() uint32 { return 8 }
func (m *PingMessage) Encode(w io.Writer) error { return writeUint64(w, m.Nonce) }
func (m *PingMessage) Decode(r io.Reader) error {
	n, err := readUint64(r)
	m.Nonce = n
	return err
}

// PongMessage echoes a ping's nonce.
type PongMessage struct {
	Nonce uint64
}

func (m *PongMessage) Command() string          { return CmdPong }
func (m *PongMessage) MaxPayloadLength() uint32 { return 8 }
func (m *PongMessage) Encode(w io.Writer) error { return writeUint64(w, m.Nonce) }
func (m *PongMessage) Decode(r io.Reader) error {
	n, err := readUint64(r)
	m.Nonce = n
	return err
}
