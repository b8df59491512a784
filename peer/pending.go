package peer

import (
	"sync"

	"github.com/copernet/bitpeer/wire"
)

// pendingGetData is a single-fire future awaiting the inventory item
// requested by a GetDataMessage: set_result is called from the network
// reader, await_result blocks until signaled, and cancellation wakes
// every waiter with errCancelled.
type pendingGetData struct {
	done chan struct{}
	once sync.Once
	msg  wire.Message
	err  error
}

func newPendingGetData() *pendingGetData {
	return &pendingGetData{done: make(chan struct{})}
}

func (p *pendingGetData) setResult(msg wire.Message, err error) {
	p.once.Do(func() {
		p.msg = msg
		p.err = err
		close(p.done)
	})
}

func (p *pendingGetData) await(cancel <-chan struct{}) (wire.Message, error) {
	select {
	case <-p.done:
		return p.msg, p.err
	case <-cancel:
		return nil, errCancelled
	}
}

// pendingTable tracks in-flight GetDataMessage requests keyed by the
// requested hash, so inbound tx/block messages can be routed to the
// future awaiting them.
type pendingTable struct {
	mu      sync.Mutex
	pending map[wire.Hash256]*pendingGetData
}

func newPendingTable() *pendingTable {
	return &pendingTable{pending: make(map[wire.Hash256]*pendingGetData)}
}

func (t *pendingTable) register(hash wire.Hash256) *pendingGetData {
	t.mu.Lock()
	defer t.mu.Unlock()
	f := newPendingGetData()
	t.pending[hash] = f
	return f
}

func (t *pendingTable) resolve(hash wire.Hash256, msg wire.Message) {
	t.mu.Lock()
	f, ok := t.pending[hash]
	if ok {
		delete(t.pending, hash)
	}
	t.mu.Unlock()
	if ok {
		f.setResult(msg, nil)
	}
}

// cancelAll wakes every still-pending future with errCancelled, used when
// the connection to the peer is torn down.
func (t *pendingTable) cancelAll() {
	t.mu.Lock()
	all := make([]*pendingGetData, 0, len(t.pending))
	for h, f := range t.pending {
		all = append(all, f)
		delete(t.pending, h)
	}
	t.mu.Unlock()
	for _, f := range all {
		f.setResult(nil, errCancelled)
	}
}
