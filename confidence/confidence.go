package confidence

import (
	"math/big"
	"sync"

	"github.com/copernet/bitpeer/wire"
)

// Level is the observational state of a transaction.
type Level int

const (
	Unknown Level = iota
	NotSeenInChain
	NotInBestChain
	Building
	Dead
)

func (l Level) String() string {
	switch l {
	case Unknown:
		return "UNKNOWN"
	case NotSeenInChain:
		return "NOT_SEEN_IN_CHAIN"
	case NotInBestChain:
		return "NOT_IN_BEST_CHAIN"
	case Building:
		return "BUILDING"
	case Dead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// ListenerFunc is invoked once per real change to a TransactionConfidence,
// outside the confidence's own lock, so a listener that reads the
// confidence back does not deadlock against the mutation that triggered it.
type ListenerFunc func(c *TransactionConfidence)

// WorkBlock is the minimal view of a block the confidence machinery needs
// from the external BlockChain collaborator: its contribution to
// cumulative chain work.
type WorkBlock struct {
	Work *big.Int
}

// TransactionConfidence is per-transaction observational state, guarded by
// its own mutex
type TransactionConfidence struct {
	mu sync.Mutex

	txHash wire.Hash256
	level  Level

	broadcastBy map[[6]byte]wire.PeerAddress // keyed by 4-byte IP + 2-byte port
	appeared    int
	depth       int
	workDone    *big.Int
	overriding  *wire.Hash256

	listeners []ListenerFunc
}

// New builds a TransactionConfidence in the UNKNOWN state for txHash.
func New(txHash wire.Hash256) *TransactionConfidence {
	return &TransactionConfidence{
		txHash:      txHash,
		level:       Unknown,
		broadcastBy: make(map[[6]byte]wire.PeerAddress),
		workDone:    big.NewInt(0),
	}
}

func addrKey(a wire.PeerAddress) [6]byte {
	var k [6]byte
	ip4 := a.IP.To4()
	if ip4 != nil {
		copy(k[:4], ip4)
	} else {
		copy(k[:4], a.IP.To16()[12:16])
	}
	k[4] = byte(a.Port >> 8)
	k[5] = byte(a.Port)
	return k
}

// AddListener registers a callback fired after every real state change.
func (c *TransactionConfidence) AddListener(fn ListenerFunc) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// fireIfChanged invokes every registered listener, outside the lock, iff
// changed is true.
func (c *TransactionConfidence) fireIfChanged(changed bool) {
	if !changed {
		return
	}
	c.mu.Lock()
	listeners := make([]ListenerFunc, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(c)
	}
}

// Hash returns the hash of the transaction this confidence describes.
func (c *TransactionConfidence) Hash() wire.Hash256 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txHash
}

// Level returns the current observational state.
func (c *TransactionConfidence) Level() Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// MarkBroadcastBy records that peer has announced this transaction,
// transitioning UNKNOWN to NOT_SEEN_IN_CHAIN.
func (c *TransactionConfidence) MarkBroadcastBy(peer wire.PeerAddress) {
	c.mu.Lock()
	key := addrKey(peer)
	_, already := c.broadcastBy[key]
	changed := false
	if !already {
		c.broadcastBy[key] = peer
		changed = true
	}
	if c.level == Unknown {
		c.level = NotSeenInChain
		changed = true
	}
	c.mu.Unlock()
	c.fireIfChanged(changed)
}

// NumBroadcastPeers returns the count of distinct peers that have
// announced this transaction.
func (c *TransactionConfidence) NumBroadcastPeers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.broadcastBy)
}

// BroadcastBy returns a snapshot of the distinct peers that announced
// this transaction.
func (c *TransactionConfidence) BroadcastBy() []wire.PeerAddress {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]wire.PeerAddress, 0, len(c.broadcastBy))
	for _, a := range c.broadcastBy {
		out = append(out, a)
	}
	return out
}

// SetAppearedAtChainHeight transitions the confidence to BUILDING at the
// given height, resetting depth to 1 (top block) and work to zero.
func (c *TransactionConfidence) SetAppearedAtChainHeight(height int) {
	c.mu.Lock()
	changed := c.level != Building || c.appeared != height
	c.level = Building
	c.appeared = height
	c.depth = 1
	c.workDone = big.NewInt(0)
	c.overriding = nil
	c.mu.Unlock()
	c.fireIfChanged(changed)
}

// AppearedAtChainHeight returns the height the transaction first appeared
// at. It is only valid while Level() == Building.
func (c *TransactionConfidence) AppearedAtChainHeight() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.level != Building {
		return 0, errIllegalState("appearedAtChainHeight", c.level)
	}
	return c.appeared, nil
}

// Depth returns how many blocks bury the transaction, valid only while
// Level() == Building.
func (c *TransactionConfidence) Depth() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.level != Building {
		return 0, errIllegalState("depth", c.level)
	}
	return c.depth, nil
}

// WorkDone returns the cumulative work of blocks burying the transaction,
// valid only while Level() == Building.
func (c *TransactionConfidence) WorkDone() (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.level != Building {
		return nil, errIllegalState("workDone", c.level)
	}
	return new(big.Int).Set(c.workDone), nil
}

// NotifyWorkDone increments depth by one and adds block.Work to workDone,
// but only while the confidence is BUILDING.
func (c *TransactionConfidence) NotifyWorkDone(block WorkBlock) {
	c.mu.Lock()
	if c.level != Building {
		c.mu.Unlock()
		return
	}
	c.depth++
	if block.Work != nil {
		c.workDone.Add(c.workDone, block.Work)
	}
	c.mu.Unlock()
	c.fireIfChanged(true)
}

// SetOverridingTransaction transitions the confidence to DEAD, recording
// the transaction that replaced it.
func (c *TransactionConfidence) SetOverridingTransaction(overriding wire.Hash256) {
	c.mu.Lock()
	changed := c.level != Dead || c.overriding == nil || *c.overriding != overriding
	c.level = Dead
	c.overriding = &overriding
	c.mu.Unlock()
	c.fireIfChanged(changed)
}

// OverridingTransaction returns the hash of the transaction that
// overrode this one, valid only while Level() == Dead.
func (c *TransactionConfidence) OverridingTransaction() (wire.Hash256, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.level != Dead || c.overriding == nil {
		return wire.Hash256{}, errIllegalState("overridingTx", c.level)
	}
	return *c.overriding, nil
}

// Duplicate clones the confidence's value fields without its listeners.
func (c *TransactionConfidence) Duplicate() *TransactionConfidence {
	c.mu.Lock()
	defer c.mu.Unlock()
	dup := &TransactionConfidence{
		txHash:      c.txHash,
		level:       c.level,
		broadcastBy: make(map[[6]byte]wire.PeerAddress, len(c.broadcastBy)),
		appeared:    c.appeared,
		depth:       c.depth,
		workDone:    new(big.Int).Set(c.workDone),
	}
	for k, v := range c.broadcastBy {
		dup.broadcastBy[k] = v
	}
	if c.overriding != nil {
		h := *c.overriding
		dup.overriding = &h
	}
	return dup
}

type illegalStateError struct {
	field string
	level Level
}

func (e *illegalStateError) Error() string {
	return "confidence: cannot read " + e.field + " while level is " + e.level.String()
}

func errIllegalState(field string, level Level) error {
	return &illegalStateError{field: field, level: level}
}
