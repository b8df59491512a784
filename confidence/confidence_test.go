package confidence

import (
	"math/big"
	"net"
	"testing"

	"github.com/copernet/bitpeer/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peerAddr(ip string, port uint16) wire.PeerAddress {
	return *wire.NewPeerAddress(0, net.ParseIP(ip), port)
}

func TestMarkBroadcastByCountsDistinctPeers(t *testing.T) {
	c := New(wire.Hash256{1})
	peers := []wire.PeerAddress{
		peerAddr("1.1.1.1", 8333),
		peerAddr("2.2.2.2", 8333),
		peerAddr("1.1.1.1", 8333), // duplicate
	}
	for _, p := range peers {
		c.MarkBroadcastBy(p)
	}
	assert.Equal(t, 2, c.NumBroadcastPeers())
	assert.Equal(t, NotSeenInChain, c.Level())
}

func TestBuildingFieldsGatedByLevel(t *testing.T) {
	c := New(wire.Hash256{1})
	_, err := c.Depth()
	assert.Error(t, err)

	c.SetAppearedAtChainHeight(100)
	depth, err := c.Depth()
	require.NoError(t, err)
	assert.Equal(t, 1, depth)

	height, err := c.AppearedAtChainHeight()
	require.NoError(t, err)
	assert.Equal(t, 100, height)
}

func TestNotifyWorkDoneOnlyWhileBuilding(t *testing.T) {
	c := New(wire.Hash256{1})
	c.NotifyWorkDone(WorkBlock{Work: big.NewInt(5)}) // no-op, not BUILDING
	_, err := c.WorkDone()
	assert.Error(t, err)

	c.SetAppearedAtChainHeight(10)
	c.NotifyWorkDone(WorkBlock{Work: big.NewInt(5)})
	c.NotifyWorkDone(WorkBlock{Work: big.NewInt(7)})

	depth, err := c.Depth()
	require.NoError(t, err)
	assert.Equal(t, 3, depth) // 1 (appeared) + 2 notifications

	work, err := c.WorkDone()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12), work)
}

func TestOverridingTransactionGatedByLevel(t *testing.T) {
	c := New(wire.Hash256{1})
	_, err := c.OverridingTransaction()
	assert.Error(t, err)

	c.SetOverridingTransaction(wire.Hash256{9})
	assert.Equal(t, Dead, c.Level())
	overriding, err := c.OverridingTransaction()
	require.NoError(t, err)
	assert.Equal(t, wire.Hash256{9}, overriding)
}

func TestListenerFiresExactlyOncePerRealChange(t *testing.T) {
	c := New(wire.Hash256{1})
	fires := 0
	c.AddListener(func(*TransactionConfidence) { fires++ })

	c.MarkBroadcastBy(peerAddr("1.1.1.1", 8333))
	c.MarkBroadcastBy(peerAddr("1.1.1.1", 8333)) // same peer again, no new state
	assert.Equal(t, 1, fires)
}

func TestDuplicateClonesStateWithoutListeners(t *testing.T) {
	c := New(wire.Hash256{1})
	c.AddListener(func(*TransactionConfidence) {})
	c.MarkBroadcastBy(peerAddr("1.1.1.1", 8333))

	dup := c.Duplicate()
	assert.Equal(t, c.NumBroadcastPeers(), dup.NumBroadcastPeers())
	assert.Empty(t, dup.listeners)
}

func TestPoolEvictsLeastRecentlyUsed(t *testing.T) {
	p := NewPool(2)
	var forgotten []wire.Hash256
	p.OnForgotten(func(h wire.Hash256) { forgotten = append(forgotten, h) })

	p.GetOrCreate(wire.Hash256{1})
	p.GetOrCreate(wire.Hash256{2})
	p.GetOrCreate(wire.Hash256{1}) // touch 1, making 2 the LRU entry
	p.GetOrCreate(wire.Hash256{3}) // evicts 2

	assert.Equal(t, 2, p.Len())
	require.Len(t, forgotten, 1)
	assert.Equal(t, wire.Hash256{2}, forgotten[0])

	_, ok := p.Get(wire.Hash256{2})
	assert.False(t, ok)
	_, ok = p.Get(wire.Hash256{1})
	assert.True(t, ok)
}
