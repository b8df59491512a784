package wire

import "io"

// AlertMessage carries the now-retired network alert payload. Bitcoin
// Core's alert key was decommissioned in 2016; a typed parser is still
// required for wire compatibility, so the raw signed-payload/signature
// pair is preserved opaquely rather than interpreted.
type AlertMessage struct {
	Payload   []byte
	Signature []byte
}

func (m *AlertMessage) Command() string          { return CmdAlert }
func (m *AlertMessage) MaxPayloadLength() uint32 { return MaxMessagePayload }

func (m *AlertMessage) Encode(w io.Writer) error {
	if err := WriteVarBytes(w, m.Payload); err != nil {
		return err
	}
	return WriteVarBytes(w, m.Signature)
}

func (m *AlertMessage) Decode(r io.Reader) error {
	var err error
	if m.Payload, err = ReadVarBytes(r, MaxMessagePayload, "alert payload"); err != nil {
		return err
	}
	m.Signature, err = ReadVarBytes(r, MaxMessagePayload, "alert signature")
	return err
}
