package main

import (
	"sync"

	"github.com/copernet/bitpeer/peer"
	"github.com/copernet/bitpeer/wire"
)

// chainTip is a minimal in-memory peer.BlockChain/peer.BlockStore: it
// tracks only the current best header and height, accepting a block
// exactly when its PrevBlock links onto the current tip. Full validation
// (PoW, difficulty retargeting, re-orgs) belongs to a real chain database
// and is out of scope for this entrypoint.
type chainTip struct {
	mu   sync.Mutex
	head peer.StoredBlock
}

func newChainTip(genesis wire.BlockHeader) *chainTip {
	return &chainTip{head: peer.StoredBlock{Header: genesis, Height: 0}}
}

func (c *chainTip) Add(block *wire.Block) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if block.Header.PrevBlock != c.head.Header.Hash() {
		return false, nil
	}
	c.head = peer.StoredBlock{Header: block.Header, Height: c.head.Height + 1}
	return true, nil
}

func (c *chainTip) ChainHead() (peer.StoredBlock, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, nil
}
