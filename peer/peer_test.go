package peer

import (
	"testing"

	"github.com/copernet/bitpeer/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "INITIAL", StateInitial.String())
	assert.Equal(t, "RUNNING", StateRunning.String())
	assert.Equal(t, "DISCONNECTED", StateDisconnected.String())
}

func TestPendingTableResolveWakesFuture(t *testing.T) {
	table := newPendingTable()
	hash := wire.Hash256{1, 2, 3}
	future := table.register(hash)

	var tx wire.Tx
	table.resolve(hash, &tx)

	got, err := future.await(nil)
	require.NoError(t, err)
	assert.Same(t, &tx, got)
}

func TestPendingTableCancelAllWakesEveryFuture(t *testing.T) {
	table := newPendingTable()
	f1 := table.register(wire.Hash256{1})
	f2 := table.register(wire.Hash256{2})

	table.cancelAll()

	_, err1 := f1.await(nil)
	_, err2 := f2.await(nil)
	assert.ErrorIs(t, err1, errCancelled)
	assert.ErrorIs(t, err2, errCancelled)
}

func TestPendingTableResolveIgnoresUnknownHash(t *testing.T) {
	table := newPendingTable()
	// Resolving a hash nobody registered should not panic.
	table.resolve(wire.Hash256{9}, &wire.VerAckMessage{})
	assert.Empty(t, table.pending)
}

func TestPeerErrorUnwrapsCause(t *testing.T) {
	cause := assert.AnError
	err := newPeerError("dial", "1.2.3.4:8333", cause)
	assert.Contains(t, err.Error(), "dial")
	assert.Contains(t, err.Error(), "1.2.3.4:8333")
	assert.ErrorIs(t, err, cause)
}

func TestNewPeerStartsInInitialState(t *testing.T) {
	cfg := &Config{ChainParams: &wire.MainNetParams}
	p := NewPeer("127.0.0.1:8333", cfg)
	assert.Equal(t, StateInitial, p.State())
	assert.False(t, p.Connected())
}
