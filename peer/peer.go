package peer

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/copernet/bitpeer/wire"
)

// errCancelled is returned to any pending getdata future woken up by a
// connection shutdown.
var errCancelled = errors.New("peer: request cancelled")

// State is a Peer's position in its connect/handshake/run lifecycle.
type State int32

const (
	StateInitial State = iota
	StateConnecting
	StateHandshaking
	StateRunning
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StateConnecting:
		return "CONNECTING"
	case StateHandshaking:
		return "HANDSHAKING"
	case StateRunning:
		return "RUNNING"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Peer manages a single connection to a remote node: the version/verack
// handshake, the checksumming flip at wire.ChecksumVersion, outbound
// message serialization, and inbound message dispatch to Config.Listeners.
type Peer struct {
	addr  string
	cfg   *Config
	codec *wire.Codec

	conn net.Conn

	state        atomic.Int32
	connected    atomic.Bool
	disconnected atomic.Bool
	downloading  atomic.Bool

	sendMu sync.Mutex

	protocolVersion uint32
	userAgent       string
	services        wire.ServiceFlag
	startHeight     int32

	pending *pendingTable

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewPeer builds a Peer that will dial addr when Connect is called.
func NewPeer(addr string, cfg *Config) *Peer {
	return &Peer{
		addr:    addr,
		cfg:     cfg,
		codec:   wire.NewCodec(cfg.ChainParams.Net),
		pending: newPendingTable(),
		quit:    make(chan struct{}),
	}
}

// Addr returns the remote address this peer connects (or connected) to.
func (p *Peer) Addr() string { return p.addr }

// State returns the peer's current lifecycle state.
func (p *Peer) State() State { return State(p.state.Load()) }

// Connected reports whether the handshake has completed successfully.
func (p *Peer) Connected() bool { return p.connected.Load() }

func (p *Peer) setState(s State) { p.state.Store(int32(s)) }

// Connect dials addr, performs the version/verack handshake, and starts
// the inbound read loop. It is safe to call at most once per Peer.
func (p *Peer) Connect() error {
	p.setState(StateConnecting)
	conn, err := net.DialTimeout("tcp", p.addr, p.cfg.dialTimeout())
	if err != nil {
		p.setState(StateDisconnected)
		return newPeerError("dial", p.addr, err)
	}
	p.conn = conn

	p.setState(StateHandshaking)
	if err := p.handshake(); err != nil {
		conn.Close()
		p.setState(StateDisconnected)
		return newPeerError("handshake", p.addr, err)
	}

	p.connected.Store(true)
	p.setState(StateRunning)
	p.wg.Add(1)
	go p.readLoop()
	p.wg.Add(1)
	go p.pingLoop()
	return nil
}

func (p *Peer) handshake() error {
	local := wire.NewPeerAddress(p.cfg.Services, net.IPv4zero, 0)
	remote := wire.NewPeerAddress(0, net.IPv4zero, 0)
	nonce := uint64(time.Now().UnixNano())
	if p.cfg.Nonces != nil {
		p.cfg.Nonces.Add(nonce)
	}
	var startHeight int32
	if p.cfg.BlockStore != nil {
		if head, err := p.cfg.BlockStore.ChainHead(); err == nil {
			startHeight = head.Height
		}
	}
	version := wire.NewVersionMessage(local, remote, nonce, startHeight)
	version.ProtocolVersion = p.cfg.ProtocolVersion
	version.Services = p.cfg.Services
	version.UserAgent = p.cfg.UserAgent
	version.DisableRelayTx = p.cfg.DisableRelayTx

	p.codec.SetChecksumming(false)
	if err := p.writeMessage(version); err != nil {
		return err
	}

	gotVersion, gotVerAck := false, false
	for !gotVersion || !gotVerAck {
		msg, err := p.codec.Deserialize(p.conn)
		if err != nil {
			return err
		}
		switch m := msg.(type) {
		case *wire.VersionMessage:
			if p.cfg.Nonces != nil && p.cfg.Nonces.Contains(m.Nonce) {
				return fmt.Errorf("self-connection detected (nonce %d)", m.Nonce)
			}
			if !m.HasService(wire.SFNodeNetwork) {
				return errors.New("peer does not have a copy of the block chain")
			}
			p.protocolVersion = uint32(m.ProtocolVersion)
			p.userAgent = m.UserAgent
			p.services = m.Services
			p.startHeight = m.LastBlock
			if p.protocolVersion >= wire.ChecksumVersion {
				p.codec.SetChecksumming(true)
			}
			if err := p.writeMessage(&wire.VerAckMessage{}); err != nil {
				return err
			}
			if p.cfg.Listeners.OnVersion != nil {
				p.cfg.Listeners.OnVersion(p, m)
			}
			gotVersion = true
		case *wire.VerAckMessage:
			gotVerAck = true
		default:
			// Peers may send other messages before verack; the handshake
			// only requires the version/verack pair to eventually arrive.
		}
	}
	return nil
}

// StartHeight is the best-known chain height the remote peer announced in
// its version message, valid once the handshake has completed.
func (p *Peer) StartHeight() int32 { return p.startHeight }

// IsDownloadPeer reports whether the pool has elected this peer to drive
// block-chain download.
func (p *Peer) IsDownloadPeer() bool { return p.downloading.Load() }

// SetDownloadPeer marks (or unmarks) this peer as the pool's elected
// download peer. Called by the pool under its own lock during election.
func (p *Peer) SetDownloadPeer(v bool) { p.downloading.Store(v) }

// StartBlockChainDownload requests headers then blocks from the remote
// peer, starting from the local BlockStore's current chain head. It is a
// no-op error if no BlockStore was configured.
func (p *Peer) StartBlockChainDownload() error {
	if p.cfg.BlockStore == nil {
		return newPeerError("download", p.addr, fmt.Errorf("no block store configured"))
	}
	head, err := p.cfg.BlockStore.ChainHead()
	if err != nil {
		return newPeerError("download", p.addr, err)
	}
	locatorHash := head.Header.Hash()

	getHeaders := &wire.GetHeadersMessage{ProtocolVersion: p.cfg.ProtocolVersion}
	_ = getHeaders.AddBlockLocatorHash(locatorHash)
	if err := p.Send(getHeaders); err != nil {
		return err
	}

	getBlocks := &wire.GetBlocksMessage{ProtocolVersion: p.cfg.ProtocolVersion}
	_ = getBlocks.AddBlockLocatorHash(locatorHash)
	return p.Send(getBlocks)
}

func (p *Peer) writeMessage(msg wire.Message) error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	if p.cfg.writeTimeout() > 0 {
		if deadliner, ok := p.conn.(interface{ SetWriteDeadline(time.Time) error }); ok {
			deadliner.SetWriteDeadline(time.Now().Add(p.cfg.writeTimeout()))
		}
	}
	return p.codec.Serialize(p.conn, msg)
}

// Send serializes and writes msg to the peer. It is safe for concurrent
// use; writes are serialized through sendMu.
func (p *Peer) Send(msg wire.Message) error {
	if !p.connected.Load() {
		return newPeerError("send", p.addr, fmt.Errorf("not connected"))
	}
	return p.writeMessage(msg)
}

// RequestData sends a GetDataMessage for a single inventory item and
// blocks until the matching tx/block arrives, returning it, or until the
// peer disconnects.
func (p *Peer) RequestData(inv wire.InvVect) (wire.Message, error) {
	future := p.pending.register(inv.Hash)
	if err := p.Send(&wire.GetDataMessage{Items: []wire.InvVect{inv}}); err != nil {
		p.pending.resolve(inv.Hash, nil)
		return nil, err
	}
	return future.await(p.quit)
}

func (p *Peer) readLoop() {
	defer p.wg.Done()
	for {
		msg, err := p.codec.Deserialize(p.conn)
		if err != nil {
			p.Disconnect(pkgerrors.Wrap(err, "read loop"))
			return
		}
		p.dispatch(msg)
	}
}

func (p *Peer) dispatch(msg wire.Message) {
	l := p.cfg.Listeners
	switch m := msg.(type) {
	case *wire.PingMessage:
		p.Send(&wire.PongMessage{Nonce: m.Nonce})
		if l.OnPing != nil {
			l.OnPing(p, m)
		}
	case *wire.PongMessage:
		if l.OnPong != nil {
			l.OnPong(p, m)
		}
	case *wire.InvMessage:
		p.handleInv(m)
		if l.OnInv != nil {
			l.OnInv(p, m)
		}
	case *wire.Tx:
		p.pending.resolve(m.Hash(), m)
		if l.OnTx != nil {
			l.OnTx(p, m)
		}
	case *wire.Block:
		p.pending.resolve(m.Header.Hash(), m)
		p.handleBlock(m)
		if l.OnBlock != nil {
			l.OnBlock(p, m)
		}
	case *wire.HeadersMessage:
		if l.OnHeaders != nil {
			l.OnHeaders(p, m)
		}
	case *wire.AddrMessage:
		if l.OnAddr != nil {
			l.OnAddr(p, m)
		}
	case *wire.AlertMessage:
		if l.OnAlert != nil {
			l.OnAlert(p, m)
		}
	}
}

// handleInv requests the full contents of announced transactions the
// caller doesn't already hold; block items are only fetched while this
// peer is the elected download peer, so inv-driven block fetches don't
// race against a peer that lost its election mid-flight.
func (p *Peer) handleInv(m *wire.InvMessage) {
	var want []wire.InvVect
	for _, item := range m.Items {
		switch item.Type {
		case wire.InvTypeTx:
			if p.cfg.Listeners.HaveTx != nil && p.cfg.Listeners.HaveTx(item.Hash) {
				continue
			}
			want = append(want, item)
		case wire.InvTypeBlock:
			if p.IsDownloadPeer() {
				want = append(want, item)
			}
		}
	}
	if len(want) > 0 {
		p.Send(&wire.GetDataMessage{Items: want})
	}
}

// handleBlock hands an inbound block to BlockChain while this peer is the
// download peer, and reports download progress relative to the peer's
// advertised best height.
func (p *Peer) handleBlock(block *wire.Block) {
	if !p.IsDownloadPeer() || p.cfg.BlockChain == nil {
		return
	}
	extended, err := p.cfg.BlockChain.Add(block)
	if err != nil || !extended {
		return
	}
	head, err := p.cfg.BlockChain.ChainHead()
	blocksLeft := 0
	if err == nil {
		blocksLeft = int(p.startHeight) - int(head.Height)
		if blocksLeft < 0 {
			blocksLeft = 0
		}
	}
	if p.cfg.Listeners.OnBlocksDownloaded != nil {
		p.cfg.Listeners.OnBlocksDownloaded(p, block, blocksLeft)
	}
}

func (p *Peer) pingLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.pingInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Send(&wire.PingMessage{Nonce: uint64(time.Now().UnixNano())})
		case <-p.quit:
			return
		}
	}
}

// Disconnect tears down the connection idempotently, cancelling any
// pending getdata futures and invoking Listeners.OnDisconnect exactly
// once.
func (p *Peer) Disconnect(err error) {
	if !p.disconnected.CompareAndSwap(false, true) {
		return
	}
	p.connected.Store(false)
	p.setState(StateDisconnected)
	close(p.quit)
	if p.conn != nil {
		p.conn.Close()
	}
	p.pending.cancelAll()
	if p.cfg.Listeners.OnDisconnect != nil {
		p.cfg.Listeners.OnDisconnect(p, err)
	}
}

// Wait blocks until the peer's background loops have exited.
func (p *Peer) Wait() {
	p.wg.Wait()
}
