package peer

import (
	"container/list"
	"sync"
)

// DefaultNonceMapSize bounds how many outbound handshake nonces a NonceMap
// remembers before evicting the oldest.
const DefaultNonceMapSize = 50

// NonceMap is an LRU-bounded set of nonces this process sent in its own
// version messages. A Pool shares one NonceMap across every outbound
// dial; when a peer's version message echoes a nonce we sent, the dial
// looped back to this same process and the connection is a self-connect.
type NonceMap struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	index    map[uint64]*list.Element
}

// NewNonceMap builds a NonceMap retaining up to capacity nonces.
func NewNonceMap(capacity int) *NonceMap {
	if capacity <= 0 {
		capacity = DefaultNonceMapSize
	}
	return &NonceMap{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[uint64]*list.Element),
	}
}

// Add records nonce as sent, evicting the least-recently-added nonce if
// the map is at capacity.
func (n *NonceMap) Add(nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.index[nonce]; ok {
		return
	}
	elem := n.order.PushBack(nonce)
	n.index[nonce] = elem
	if n.order.Len() > n.capacity {
		oldest := n.order.Front()
		n.order.Remove(oldest)
		delete(n.index, oldest.Value.(uint64))
	}
}

// Contains reports whether nonce was previously recorded by Add.
func (n *NonceMap) Contains(nonce uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.index[nonce]
	return ok
}
