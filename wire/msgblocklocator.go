package wire

import "io"

// MaxBlockLocatorsPerMessage bounds a getblocks/getheaders locator list.
const MaxBlockLocatorsPerMessage = 500

func writeLocator(w io.Writer, version uint32, locator []Hash256, stop Hash256) error {
	if err := writeUint32(w, version); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(locator))); err != nil {
		return err
	}
	for _, h := range locator {
		if _, err := w.Write(h[:]); err != nil {
			return err
		}
	}
	_, err := w.Write(stop[:])
	return err
}

func readLocator(r io.Reader) (version uint32, locator []Hash256, stop Hash256, err error) {
	if version, err = readUint32(r); err != nil {
		return
	}
	count, cerr := ReadVarInt(r)
	if cerr != nil {
		err = cerr
		return
	}
	if count > MaxBlockLocatorsPerMessage {
		err = NewProtocolError("block locator exceeds max count", nil)
		return
	}
	locator = make([]Hash256, 0, count)
	for i := uint64(0); i < count; i++ {
		var h Hash256
		if _, err = io.ReadFull(r, h[:]); err != nil {
			return
		}
		locator = append(locator, h)
	}
	_, err = io.ReadFull(r, stop[:])
	return
}

// GetBlocksMessage requests block inventory following a locator, used to
// kick off a block-chain download against a peer.
type GetBlocksMessage struct {
	ProtocolVersion uint32
	BlockLocator    []Hash256
	HashStop        Hash256
}

// AddBlockLocatorHash appends a locator hash, rejecting once the max is
// reached.
func (m *GetBlocksMessage) AddBlockLocatorHash(h Hash256) error {
	if len(m.BlockLocator)+1 > MaxBlockLocatorsPerMessage {
		return NewProtocolError("block locator is full", nil)
	}
	m.BlockLocator = append(m.BlockLocator, h)
	return nil
}

func (m *GetBlocksMessage) Command() string { return CmdGetBlocks }
func (m *GetBlocksMessage) MaxPayloadLength() uint32 {
	return 4 + 9 + MaxBlockLocatorsPerMessage*Hash256Size + Hash256Size
}
func (m *GetBlocksMessage) Encode(w io.Writer) error {
	return writeLocator(w, m.ProtocolVersion, m.BlockLocator, m.HashStop)
}
func (m *GetBlocksMessage) Decode(r io.Reader) error {
	v, l, s, err := readLocator(r)
	m.ProtocolVersion, m.BlockLocator, m.HashStop = v, l, s
	return err
}

// GetHeadersMessage requests block headers following a locator.
type GetHeadersMessage struct {
	ProtocolVersion uint32
	BlockLocator    []Hash256
	HashStop        Hash256
}

func (m *GetHeadersMessage) AddBlockLocatorHash(h Hash256) error {
	if len(m.BlockLocator)+1 > MaxBlockLocatorsPerMessage {
		return NewProtocolError("block locator is full", nil)
	}
	m.BlockLocator = append(m.BlockLocator, h)
	return nil
}

func (m *GetHeadersMessage) Command() string { return CmdGetHeaders }
func (m *GetHeadersMessage) MaxPayloadLength() uint32 {
	return 4 + 9 + MaxBlockLocatorsPerMessage*Hash256Size + Hash256Size
}
func (m *GetHeadersMessage) Encode(w io.Writer) error {
	return writeLocator(w, m.ProtocolVersion, m.BlockLocator, m.HashStop)
}
func (m *GetHeadersMessage) Decode(r io.Reader) error {
	v, l, s, err := readLocator(r)
	m.ProtocolVersion, m.BlockLocator, m.HashStop = v, l, s
	return err
}
