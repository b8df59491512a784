// Command peerclient connects to a handful of Bitcoin peers, logs
// inventory and block announcements, and tracks transaction confidence as
// peers relay them: parse flags, wire up the application, run until
// signaled.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/btcsuite/btclog"

	"github.com/copernet/bitpeer/confidence"
	"github.com/copernet/bitpeer/config"
	"github.com/copernet/bitpeer/peer"
	"github.com/copernet/bitpeer/pool"
	"github.com/copernet/bitpeer/wire"
)

var log = btclog.NewBackend(os.Stderr).Logger("MAIN")

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		os.Exit(1)
	}

	params, err := cfg.ChainParams()
	if err != nil {
		log.Errorf("resolving chain params: %v", err)
		os.Exit(1)
	}

	confPool := confidence.NewPool(confidence.DefaultPoolSize)
	tip := newChainTip(wire.BlockHeader{})

	peerCfg := &peer.Config{
		ChainParams:     params,
		UserAgent:       cfg.UserAgent,
		ProtocolVersion: wire.ProtocolVersion,
		Services:        wire.SFNodeNetwork,
		DisableRelayTx:  cfg.DisableRelayTx,
		DialTimeout:     cfg.DialTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PingInterval:    cfg.PingInterval,
		Nonces:          peer.NewNonceMap(peer.DefaultNonceMapSize),
		BlockChain:      tip,
		BlockStore:      tip,
		Listeners: peer.Listeners{
			OnInv: func(p *peer.Peer, msg *wire.InvMessage) {
				log.Infof("%s: inv with %d items", p.Addr(), len(msg.Items))
			},
			OnTx: func(p *peer.Peer, tx *wire.Tx) {
				confPool.GetOrCreate(tx.Hash())
			},
			OnBlocksDownloaded: func(p *peer.Peer, block *wire.Block, blocksLeft int) {
				log.Infof("%s: downloaded block %x, %d left", p.Addr(), block.Header.Hash(), blocksLeft)
			},
			OnDisconnect: func(p *peer.Peer, err error) {
				log.Infof("%s: disconnected: %v", p.Addr(), err)
			},
		},
	}

	var discovery pool.Discovery
	if len(cfg.ConnectTo) > 0 {
		discovery = pool.StaticDiscovery{Addrs: cfg.ConnectTo}
	} else {
		discovery = pool.DNSSeedDiscovery{Params: params, Resolver: resolveSeed}
	}

	poolCfg := &pool.Config{
		PeerConfig:   peerCfg,
		Discovery:    discovery,
		WorkerCount:  cfg.WorkerCount,
		TickInterval: cfg.TickInterval,
		DownloadListener: func(block *wire.Block, blocksLeft int) {
			log.Infof("chain download: block %x, %d left", block.Header.Hash(), blocksLeft)
		},
	}

	p := pool.New(poolCfg, confPool)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := p.Start(ctx); err != nil {
		log.Errorf("starting pool: %v", err)
		os.Exit(1)
	}
	<-ctx.Done()
	p.Stop()
}

func resolveSeed(ctx context.Context, host string) ([]string, error) {
	return net.DefaultResolver.LookupHost(ctx, host)
}
