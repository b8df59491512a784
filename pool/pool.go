package pool

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/copernet/bitpeer/confidence"
	"github.com/copernet/bitpeer/peer"
	"github.com/copernet/bitpeer/wire"
)

// DefaultWorkerCount bounds how many peer sessions the pool runs at once.
const DefaultWorkerCount = 4

// Discovery supplies candidate peer addresses to connect to, with
// implementations for DNS seeds and a static address list.
type Discovery interface {
	Discover(ctx context.Context) ([]string, error)
}

// StaticDiscovery returns a fixed address list, useful for tests and for
// explicit -connect configuration.
type StaticDiscovery struct {
	Addrs []string
}

func (s StaticDiscovery) Discover(ctx context.Context) ([]string, error) {
	return s.Addrs, nil
}

// DNSSeedDiscovery resolves a chain's configured DNS seeds into host:port
// candidates.
type DNSSeedDiscovery struct {
	Params   *wire.ChainParams
	Resolver func(ctx context.Context, host string) ([]string, error)
}

func (d DNSSeedDiscovery) Discover(ctx context.Context) ([]string, error) {
	var out []string
	for _, seed := range d.Params.DNSSeeds {
		ips, err := d.Resolver(ctx, seed)
		if err != nil {
			continue
		}
		for _, ip := range ips {
			out = append(out, net.JoinHostPort(ip, d.Params.DefaultPort))
		}
	}
	return out, nil
}

// Config bounds the Pool's own behavior, independent of any one Peer's
// Config (peer.Config).
type Config struct {
	PeerConfig   *peer.Config
	Discovery    Discovery
	WorkerCount  int
	TickInterval time.Duration

	// DownloadListener, when non-nil, signals that the pool should elect
	// one connected peer to drive block-chain download and receives
	// progress reports as that peer's blocks land in PeerConfig.BlockChain.
	DownloadListener func(block *wire.Block, blocksLeft int)

	// OnPeerConnected/OnPeerDisconnected fire under the pool's lock with
	// the peer count immediately after the change.
	OnPeerConnected    func(p *peer.Peer, count int)
	OnPeerDisconnected func(p *peer.Peer, count int)
}

func (c *Config) workerCount() int {
	if c.WorkerCount > 0 {
		return c.WorkerCount
	}
	return DefaultWorkerCount
}

func (c *Config) tickInterval() time.Duration {
	if c.TickInterval > 0 {
		return c.TickInterval
	}
	return 30 * time.Second
}

// Pool manages a set of outbound Peer connections: it discovers
// candidates and holds up to Config.WorkerCount concurrent peer
// sessions, each session occupying one golang.org/x/sync/semaphore
// permit for its entire connect-run-disconnect lifetime (not merely the
// dial), tracks connected/inactive peers, and fans broadcasts out to all
// of them.
type Pool struct {
	cfg *Config

	mu           sync.Mutex
	peers        map[string]*peer.Peer
	inactive     []string
	running      bool
	downloadPeer *peer.Peer
	confPool     *confidence.Pool

	sem *semaphore.Weighted

	newPeers  chan *peer.Peer
	donePeers chan *peer.Peer
	quit      chan struct{}
	wg        sync.WaitGroup

	tickMu      sync.Mutex
	tickRunning bool
}

// New builds a Pool. confPool may be nil, in which case broadcasts are
// not tracked for confidence.
func New(cfg *Config, confPool *confidence.Pool) *Pool {
	p := &Pool{
		cfg:       cfg,
		peers:     make(map[string]*peer.Peer),
		confPool:  confPool,
		sem:       semaphore.NewWeighted(int64(cfg.workerCount())),
		newPeers:  make(chan *peer.Peer),
		donePeers: make(chan *peer.Peer),
		quit:      make(chan struct{}),
	}

	if cfg.PeerConfig != nil {
		downstreamDisconnect := cfg.PeerConfig.Listeners.OnDisconnect
		cfg.PeerConfig.Listeners.OnDisconnect = func(pr *peer.Peer, err error) {
			if downstreamDisconnect != nil {
				downstreamDisconnect(pr, err)
			}
			// The session's semaphore permit, acquired in connectMore
			// before the dial, is held for the whole connect-run
			// lifetime; release it here, at the one place every live
			// session's death funnels through.
			p.sem.Release(1)
			select {
			case p.donePeers <- pr:
			case <-p.quit:
			}
		}

		if cfg.DownloadListener != nil {
			downstreamBlocks := cfg.PeerConfig.Listeners.OnBlocksDownloaded
			cfg.PeerConfig.Listeners.OnBlocksDownloaded = func(pr *peer.Peer, block *wire.Block, blocksLeft int) {
				if downstreamBlocks != nil {
					downstreamBlocks(pr, block, blocksLeft)
				}
				cfg.DownloadListener(block, blocksLeft)
			}
		}
	}

	return p
}

// electDownloadPeer elects pr as the download peer if none is currently
// elected and the pool's caller wants block-chain download driven at
// all. Called under p.mu.
func (p *Pool) electDownloadPeer(pr *peer.Peer) bool {
	if p.cfg.DownloadListener == nil || p.downloadPeer != nil {
		return false
	}
	p.downloadPeer = pr
	return true
}

// Start discovers initial candidates and begins the periodic connection
// tick. It is idempotent; a second call is a no-op while the pool is
// already running.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	candidates, err := p.cfg.Discovery.Discover(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.inactive = append(p.inactive, candidates...)
	p.mu.Unlock()

	p.wg.Add(1)
	go p.manage(ctx)
	p.wg.Add(1)
	go p.tickLoop(ctx)
	return nil
}

// Stop tears down every connected peer and halts the management loop.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	peers := make([]*peer.Peer, 0, len(p.peers))
	for _, pr := range p.peers {
		peers = append(peers, pr)
	}
	p.mu.Unlock()

	close(p.quit)
	for _, pr := range peers {
		pr.Disconnect(nil)
	}
	p.wg.Wait()
}

func (p *Pool) manage(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case pr := <-p.newPeers:
			p.mu.Lock()
			p.peers[pr.Addr()] = pr
			elected := p.electDownloadPeer(pr)
			count := len(p.peers)
			if p.cfg.OnPeerConnected != nil {
				p.cfg.OnPeerConnected(pr, count)
			}
			p.mu.Unlock()
			if elected {
				pr.SetDownloadPeer(true)
				go pr.StartBlockChainDownload()
			}
		case pr := <-p.donePeers:
			p.mu.Lock()
			delete(p.peers, pr.Addr())
			p.inactive = append(p.inactive, pr.Addr())
			var replacement *peer.Peer
			if p.downloadPeer == pr {
				p.downloadPeer = nil
				for _, other := range p.peers {
					replacement = other
					p.downloadPeer = other
					break
				}
			}
			count := len(p.peers)
			if p.cfg.OnPeerDisconnected != nil {
				p.cfg.OnPeerDisconnected(pr, count)
			}
			p.mu.Unlock()
			if replacement != nil {
				replacement.SetDownloadPeer(true)
				go replacement.StartBlockChainDownload()
			}
		case <-p.quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tickLoop fires connectMore on a fixed interval, dropping a tick
// entirely if the previous one is still running, per the single-entry
// periodic timer described for the pool's connection driver.
func (p *Pool) tickLoop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.tickInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.fireTick(ctx)
		case <-p.quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) fireTick(ctx context.Context) {
	p.tickMu.Lock()
	if p.tickRunning {
		p.tickMu.Unlock()
		return
	}
	p.tickRunning = true
	p.tickMu.Unlock()

	p.connectMore(ctx)

	p.tickMu.Lock()
	p.tickRunning = false
	p.tickMu.Unlock()
}

// connectMore dials enough inactive candidates to bring the live session
// count up to Config.WorkerCount. Each dial blocks on a semaphore permit
// before starting, and that permit is not released until the resulting
// session disconnects (see New's OnDisconnect wrapper), so WorkerCount
// bounds concurrent live peer sessions, not just concurrent dials.
func (p *Pool) connectMore(ctx context.Context) {
	p.mu.Lock()
	need := p.cfg.workerCount() - len(p.peers)
	var candidates []string
	for need > 0 && len(p.inactive) > 0 {
		candidates = append(candidates, p.inactive[0])
		p.inactive = p.inactive[1:]
		need--
	}
	p.mu.Unlock()

	for _, addr := range candidates {
		addr := addr
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return
		}
		go p.connectOne(addr)
	}
}

func (p *Pool) connectOne(addr string) {
	pr := peer.NewPeer(addr, p.cfg.PeerConfig)
	if err := pr.Connect(); err != nil {
		p.sem.Release(1)
		p.mu.Lock()
		p.inactive = append(p.inactive, addr)
		p.mu.Unlock()
		return
	}
	select {
	case p.newPeers <- pr:
	case <-p.quit:
		// Disconnect's OnDisconnect listener releases this session's
		// permit; do not release it again here.
		pr.Disconnect(nil)
	}
}

// BroadcastTransaction sends tx to every connected peer and returns the
// confidence record for tx (from the pool's confidence pool when one is
// set). No peer is marked as having broadcast tx by this call.
func (p *Pool) BroadcastTransaction(tx *wire.Tx) *confidence.TransactionConfidence {
	p.mu.Lock()
	peers := make([]*peer.Peer, 0, len(p.peers))
	for _, pr := range p.peers {
		peers = append(peers, pr)
	}
	p.mu.Unlock()

	for _, pr := range peers {
		pr.Send(tx)
	}

	if p.confPool == nil {
		return confidence.New(tx.Hash())
	}
	return p.confPool.GetOrCreate(tx.Hash())
}

// PeerCount returns the number of currently connected peers.
func (p *Pool) PeerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.peers)
}

// DownloadPeer returns the currently elected download peer, or nil if
// none is elected.
func (p *Pool) DownloadPeer() *peer.Peer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.downloadPeer
}
