package peer

import (
	"errors"
	"net"
	"testing"

	"github.com/copernet/bitpeer/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChain is a minimal BlockChain/BlockStore double: Add always extends
// the chain by one, and ChainHead reflects however many blocks were added.
type fakeChain struct {
	head   StoredBlock
	addErr error
}

func (f *fakeChain) Add(block *wire.Block) (bool, error) {
	if f.addErr != nil {
		return false, f.addErr
	}
	f.head.Height++
	f.head.Header = block.Header
	return true, nil
}

func (f *fakeChain) ChainHead() (StoredBlock, error) {
	return f.head, nil
}

func pipePeer(t *testing.T, cfg *Config) (*Peer, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })

	p := NewPeer("peer.test:8333", cfg)
	p.conn = client
	p.connected.Store(true)
	return p, server
}

func TestStartBlockChainDownloadSendsHeadersThenBlocks(t *testing.T) {
	store := &fakeChain{head: StoredBlock{Height: 5}}
	cfg := &Config{
		ChainParams:     &wire.MainNetParams,
		ProtocolVersion: wire.ProtocolVersion,
		BlockStore:      store,
	}
	p, server := pipePeer(t, cfg)
	codec := wire.NewCodec(cfg.ChainParams.Net)

	errCh := make(chan error, 1)
	go func() { errCh <- p.StartBlockChainDownload() }()

	msg1, err := codec.Deserialize(server)
	require.NoError(t, err)
	getHeaders, ok := msg1.(*wire.GetHeadersMessage)
	require.True(t, ok)
	assert.Len(t, getHeaders.BlockLocator, 1)
	assert.Equal(t, store.head.Header.Hash(), getHeaders.BlockLocator[0])

	msg2, err := codec.Deserialize(server)
	require.NoError(t, err)
	_, ok = msg2.(*wire.GetBlocksMessage)
	assert.True(t, ok)

	require.NoError(t, <-errCh)
}

func TestStartBlockChainDownloadErrorsWithoutBlockStore(t *testing.T) {
	cfg := &Config{ChainParams: &wire.MainNetParams}
	p := NewPeer("peer.test:8333", cfg)
	err := p.StartBlockChainDownload()
	assert.Error(t, err)
}

func TestHandleInvRequestsUnseenTxAndSkipsKnown(t *testing.T) {
	known := wire.Hash256{1}
	unknown := wire.Hash256{2}
	cfg := &Config{
		ChainParams: &wire.MainNetParams,
		Listeners: Listeners{
			HaveTx: func(h wire.Hash256) bool { return h == known },
		},
	}
	p, server := pipePeer(t, cfg)
	codec := wire.NewCodec(cfg.ChainParams.Net)

	go p.handleInv(&wire.InvMessage{Items: []wire.InvVect{
		{Type: wire.InvTypeTx, Hash: known},
		{Type: wire.InvTypeTx, Hash: unknown},
	}})

	msg, err := codec.Deserialize(server)
	require.NoError(t, err)
	getData, ok := msg.(*wire.GetDataMessage)
	require.True(t, ok)
	require.Len(t, getData.Items, 1)
	assert.Equal(t, unknown, getData.Items[0].Hash)
}

func TestHandleInvIgnoresBlocksWhenNotDownloadPeer(t *testing.T) {
	cfg := &Config{ChainParams: &wire.MainNetParams}
	p, server := pipePeer(t, cfg)
	_ = server

	done := make(chan struct{})
	go func() {
		p.handleInv(&wire.InvMessage{Items: []wire.InvVect{
			{Type: wire.InvTypeBlock, Hash: wire.Hash256{9}},
		}})
		close(done)
	}()
	<-done // handleInv must return without attempting to Send anything.
}

func TestHandleInvRequestsBlocksWhenDownloadPeer(t *testing.T) {
	cfg := &Config{ChainParams: &wire.MainNetParams}
	p, server := pipePeer(t, cfg)
	codec := wire.NewCodec(cfg.ChainParams.Net)
	p.SetDownloadPeer(true)

	blockHash := wire.Hash256{7}
	go p.handleInv(&wire.InvMessage{Items: []wire.InvVect{
		{Type: wire.InvTypeBlock, Hash: blockHash},
	}})

	msg, err := codec.Deserialize(server)
	require.NoError(t, err)
	getData, ok := msg.(*wire.GetDataMessage)
	require.True(t, ok)
	require.Len(t, getData.Items, 1)
	assert.Equal(t, blockHash, getData.Items[0].Hash)
}

func TestHandleBlockIgnoredWhenNotDownloadPeer(t *testing.T) {
	chain := &fakeChain{}
	cfg := &Config{ChainParams: &wire.MainNetParams, BlockChain: chain}
	p := NewPeer("peer.test:8333", cfg)

	p.handleBlock(&wire.Block{})
	assert.Equal(t, int32(0), chain.head.Height)
}

func TestHandleBlockReportsProgressWhenDownloadPeer(t *testing.T) {
	chain := &fakeChain{}
	var gotBlock *wire.Block
	gotLeft := -1
	cfg := &Config{
		ChainParams: &wire.MainNetParams,
		BlockChain:  chain,
		Listeners: Listeners{
			OnBlocksDownloaded: func(p *Peer, block *wire.Block, blocksLeft int) {
				gotBlock = block
				gotLeft = blocksLeft
			},
		},
	}
	p := NewPeer("peer.test:8333", cfg)
	p.SetDownloadPeer(true)
	p.startHeight = 10

	block := &wire.Block{}
	p.handleBlock(block)

	require.NotNil(t, gotBlock)
	assert.Equal(t, int32(1), chain.head.Height)
	assert.Equal(t, 9, gotLeft)
}

func TestHandleBlockSkipsProgressWhenAddFails(t *testing.T) {
	chain := &fakeChain{addErr: errors.New("bad block")}
	called := false
	cfg := &Config{
		ChainParams: &wire.MainNetParams,
		BlockChain:  chain,
		Listeners: Listeners{
			OnBlocksDownloaded: func(p *Peer, block *wire.Block, blocksLeft int) { called = true },
		},
	}
	p := NewPeer("peer.test:8333", cfg)
	p.SetDownloadPeer(true)

	p.handleBlock(&wire.Block{})
	assert.False(t, called)
}
