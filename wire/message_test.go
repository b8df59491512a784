package wire

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionRoundTrip(t *testing.T) {
	codec := NewCodec(MainNet)
	codec.SetChecksumming(false)

	local := NewPeerAddress(SFNodeNetwork, net.ParseIP("127.0.0.1"), 8333)
	remote := NewPeerAddress(0, net.ParseIP("10.0.0.1"), 8333)
	msg := NewVersionMessage(local, remote, 0x1122334455667788, 500)

	var buf bytes.Buffer
	require.NoError(t, codec.Serialize(&buf, msg))

	got, err := codec.Deserialize(&buf)
	require.NoError(t, err)
	gotVer, ok := got.(*VersionMessage)
	require.True(t, ok)
	assert.Equal(t, msg.ProtocolVersion, gotVer.ProtocolVersion)
	assert.Equal(t, msg.Nonce, gotVer.Nonce)
	assert.Equal(t, msg.LastBlock, gotVer.LastBlock)
	assert.Equal(t, msg.UserAgent, gotVer.UserAgent)
}

func TestEveryMessageTypeRoundTrips(t *testing.T) {
	codec := NewCodec(TestNet3)

	hash := func(b byte) Hash256 {
		var h Hash256
		h[0] = b
		return h
	}

	messages := []Message{
		&VerAckMessage{},
		&PingMessage{Nonce: 42},
		&PongMessage{Nonce: 42},
		&AddrMessage{Addresses: []*PeerAddress{NewPeerAddress(SFNodeNetwork, net.ParseIP("1.2.3.4"), 8333)}},
		&InvMessage{Items: []InvVect{{Type: InvTypeTx, Hash: hash(1)}}},
		&GetDataMessage{Items: []InvVect{{Type: InvTypeBlock, Hash: hash(2)}}},
		&GetBlocksMessage{ProtocolVersion: ProtocolVersion, BlockLocator: []Hash256{hash(3)}, HashStop: hash(4)},
		&GetHeadersMessage{ProtocolVersion: ProtocolVersion, BlockLocator: []Hash256{hash(5)}, HashStop: hash(6)},
		&Tx{Version: 1, TxIn: []*TxIn{{PreviousOutPoint: OutPoint{Hash: hash(7), Index: 0}, SignatureScript: []byte{0x51}, Sequence: 0xffffffff}},
			TxOut: []*TxOut{{Value: 5000, PkScript: []byte{0x76, 0xa9}}}, LockTime: 0},
		&Block{Header: BlockHeader{Version: 1, PrevBlock: hash(8), MerkleRoot: hash(9), Timestamp: 1000, Bits: 0x1d00ffff, Nonce: 7}},
		&HeadersMessage{Headers: []*BlockHeader{{Version: 1, PrevBlock: hash(10), MerkleRoot: hash(11)}}},
		&AlertMessage{Payload: []byte("retired"), Signature: []byte{0x01, 0x02}},
	}

	for _, m := range messages {
		var buf bytes.Buffer
		require.NoError(t, codec.Serialize(&buf, m), m.Command())
		got, err := codec.Deserialize(&buf)
		require.NoError(t, err, m.Command())
		assert.Equal(t, m.Command(), got.Command())
	}
}

func TestChecksumMismatchFailsDeserialize(t *testing.T) {
	codec := NewCodec(MainNet)
	msg := &PingMessage{Nonce: 7}

	var buf bytes.Buffer
	require.NoError(t, codec.Serialize(&buf, msg))

	raw := buf.Bytes()
	// Flip a bit inside the payload, which lives after the 24-byte header.
	raw[len(raw)-1] ^= 0x01

	_, err := codec.Deserialize(bytes.NewReader(raw))
	require.Error(t, err)
	var protoErr *ProtocolError
	assert.ErrorAs(t, err, &protoErr)
}

func TestBadMagicIsFatal(t *testing.T) {
	codec := NewCodec(MainNet)
	msg := &VerAckMessage{}

	var buf bytes.Buffer
	require.NoError(t, codec.Serialize(&buf, msg))
	raw := buf.Bytes()
	raw[0] ^= 0xff

	_, err := codec.Deserialize(bytes.NewReader(raw))
	require.Error(t, err)
}

func TestUnknownCommandIsSkippedNotFatal(t *testing.T) {
	codec := NewCodec(MainNet)
	codec.SetChecksumming(false)

	var buf bytes.Buffer
	var h header
	h.magic = MainNet
	h.command = "mumble"
	h.length = 3
	require.NoError(t, h.writeTo(&buf))
	buf.Write([]byte{1, 2, 3})

	got, err := codec.Deserialize(&buf)
	require.NoError(t, err)
	unk, ok := got.(*UnknownMessage)
	require.True(t, ok)
	assert.Equal(t, "mumble", unk.CommandName)
	assert.Equal(t, []byte{1, 2, 3}, unk.Payload)
}

func TestChecksummingFlagDefaultsTrue(t *testing.T) {
	codec := NewCodec(MainNet)
	assert.True(t, codec.Checksumming())
	codec.SetChecksumming(false)
	assert.False(t, codec.Checksumming())
}
