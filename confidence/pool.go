package confidence

import (
	"container/list"
	"sync"

	"github.com/copernet/bitpeer/wire"
)

// DefaultPoolSize is the LRU memory pool capacity, replacing a
// weak-reference pool with an explicit bound.
const DefaultPoolSize = 1000

// ForgottenFunc is invoked when the pool evicts a confidence to stay
// within its bound. Eviction is deliberate, not a GC event, so confidence
// data for the evicted transaction is simply lost.
type ForgottenFunc func(txHash wire.Hash256)

// Pool is a bounded, LRU-evicting cache of TransactionConfidence keyed by
// transaction hash: a container/list for recency order plus a map for
// O(1) lookup.
type Pool struct {
	mu        sync.Mutex
	capacity  int
	order     *list.List
	elements  map[wire.Hash256]*list.Element
	forgotten []ForgottenFunc
}

// NewPool builds a Pool bounded to capacity entries.
func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultPoolSize
	}
	return &Pool{
		capacity: capacity,
		order:    list.New(),
		elements: make(map[wire.Hash256]*list.Element),
	}
}

// OnForgotten registers a callback fired with the hash of any transaction
// evicted to enforce the pool's bound.
func (p *Pool) OnForgotten(fn ForgottenFunc) {
	p.mu.Lock()
	p.forgotten = append(p.forgotten, fn)
	p.mu.Unlock()
}

// GetOrCreate returns the existing confidence for txHash, promoting it to
// most-recently-used, or creates and inserts a fresh UNKNOWN confidence.
func (p *Pool) GetOrCreate(txHash wire.Hash256) *TransactionConfidence {
	p.mu.Lock()
	if el, ok := p.elements[txHash]; ok {
		p.order.MoveToFront(el)
		c := el.Value.(*TransactionConfidence)
		p.mu.Unlock()
		return c
	}
	c := New(txHash)
	el := p.order.PushFront(c)
	p.elements[txHash] = el
	var evicted wire.Hash256
	var didEvict bool
	if p.order.Len() > p.capacity {
		back := p.order.Back()
		if back != nil {
			evicted = back.Value.(*TransactionConfidence).Hash()
			p.order.Remove(back)
			delete(p.elements, evicted)
			didEvict = true
		}
	}
	callbacks := make([]ForgottenFunc, len(p.forgotten))
	copy(callbacks, p.forgotten)
	p.mu.Unlock()

	if didEvict {
		for _, fn := range callbacks {
			fn(evicted)
		}
	}
	return c
}

// Get returns the confidence for txHash without creating one, reporting
// whether it was present.
func (p *Pool) Get(txHash wire.Hash256) (*TransactionConfidence, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[txHash]
	if !ok {
		return nil, false
	}
	p.order.MoveToFront(el)
	return el.Value.(*TransactionConfidence), true
}

// Len returns the number of confidences currently held.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order.Len()
}

// Remove drops txHash from the pool without firing ForgottenFunc
// (explicit removal is not an eviction).
func (p *Pool) Remove(txHash wire.Hash256) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[txHash]
	if !ok {
		return false
	}
	p.order.Remove(el)
	delete(p.elements, txHash)
	return true
}
