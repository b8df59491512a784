package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copernet/bitpeer/peer"
	"github.com/copernet/bitpeer/wire"
)

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, DefaultWorkerCount, cfg.workerCount())
	assert.Greater(t, cfg.tickInterval().Seconds(), float64(0))
}

func TestStaticDiscoveryReturnsFixedAddrs(t *testing.T) {
	d := StaticDiscovery{Addrs: []string{"1.2.3.4:8333", "5.6.7.8:8333"}}
	addrs, err := d.Discover(nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"1.2.3.4:8333", "5.6.7.8:8333"}, addrs)
}

func TestNewPoolStartsEmpty(t *testing.T) {
	cfg := &Config{Discovery: StaticDiscovery{}}
	p := New(cfg, nil)
	assert.Equal(t, 0, p.PeerCount())
}

func runManage(t *testing.T, p *Pool) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	p.wg.Add(1)
	go p.manage(ctx)
	t.Cleanup(cancel)
	return cancel
}

func TestPoolElectsDownloadPeerOnFirstConnect(t *testing.T) {
	cfg := &Config{
		Discovery:        StaticDiscovery{},
		PeerConfig:       &peer.Config{ChainParams: &wire.MainNetParams},
		DownloadListener: func(*wire.Block, int) {},
	}
	p := New(cfg, nil)
	runManage(t, p)

	pr := peer.NewPeer("1.2.3.4:8333", cfg.PeerConfig)
	p.newPeers <- pr

	require.Eventually(t, func() bool { return p.DownloadPeer() != nil }, time.Second, time.Millisecond)
	assert.Same(t, pr, p.DownloadPeer())
	assert.True(t, pr.IsDownloadPeer())
}

func TestPoolDoesNotElectWithoutDownloadListener(t *testing.T) {
	cfg := &Config{
		Discovery:  StaticDiscovery{},
		PeerConfig: &peer.Config{ChainParams: &wire.MainNetParams},
	}
	p := New(cfg, nil)
	runManage(t, p)

	pr := peer.NewPeer("1.2.3.4:8333", cfg.PeerConfig)
	p.newPeers <- pr

	require.Eventually(t, func() bool { return p.PeerCount() == 1 }, time.Second, time.Millisecond)
	assert.Nil(t, p.DownloadPeer())
	assert.False(t, pr.IsDownloadPeer())
}

func TestPoolReElectsDownloadPeerOnDeath(t *testing.T) {
	cfg := &Config{
		Discovery:        StaticDiscovery{},
		PeerConfig:       &peer.Config{ChainParams: &wire.MainNetParams},
		DownloadListener: func(*wire.Block, int) {},
	}
	p := New(cfg, nil)
	runManage(t, p)

	pr1 := peer.NewPeer("1.2.3.4:8333", cfg.PeerConfig)
	pr2 := peer.NewPeer("5.6.7.8:8333", cfg.PeerConfig)
	p.newPeers <- pr1
	require.Eventually(t, func() bool { return p.DownloadPeer() == pr1 }, time.Second, time.Millisecond)

	p.newPeers <- pr2
	require.Eventually(t, func() bool { return p.PeerCount() == 2 }, time.Second, time.Millisecond)

	p.donePeers <- pr1

	require.Eventually(t, func() bool { return p.DownloadPeer() == pr2 }, time.Second, time.Millisecond)
	assert.True(t, pr2.IsDownloadPeer())
	assert.Equal(t, 1, p.PeerCount())
}

func TestPoolClearsDownloadPeerWhenNoneRemain(t *testing.T) {
	cfg := &Config{
		Discovery:        StaticDiscovery{},
		PeerConfig:       &peer.Config{ChainParams: &wire.MainNetParams},
		DownloadListener: func(*wire.Block, int) {},
	}
	p := New(cfg, nil)
	runManage(t, p)

	pr := peer.NewPeer("1.2.3.4:8333", cfg.PeerConfig)
	p.newPeers <- pr
	require.Eventually(t, func() bool { return p.DownloadPeer() == pr }, time.Second, time.Millisecond)

	p.donePeers <- pr

	require.Eventually(t, func() bool { return p.PeerCount() == 0 }, time.Second, time.Millisecond)
	assert.Nil(t, p.DownloadPeer())
}

func TestPoolForwardsDisconnectIntoDonePeers(t *testing.T) {
	var downstreamCalled bool
	peerCfg := &peer.Config{
		ChainParams: &wire.MainNetParams,
		Listeners: peer.Listeners{
			OnDisconnect: func(*peer.Peer, error) { downstreamCalled = true },
		},
	}
	cfg := &Config{Discovery: StaticDiscovery{}, PeerConfig: peerCfg}
	p := New(cfg, nil)
	runManage(t, p)

	// A real session would have acquired its semaphore permit in
	// connectMore before ever reaching newPeers; acquire one here so the
	// OnDisconnect wrapper's matching release doesn't panic.
	require.NoError(t, p.sem.Acquire(context.Background(), 1))
	pr := peer.NewPeer("1.2.3.4:8333", peerCfg)
	p.newPeers <- pr
	require.Eventually(t, func() bool { return p.PeerCount() == 1 }, time.Second, time.Millisecond)

	// New() must wrap the caller-supplied OnDisconnect rather than replace
	// it, forwarding the dying peer into donePeers so manage() can react.
	peerCfg.Listeners.OnDisconnect(pr, nil)

	require.Eventually(t, func() bool { return p.PeerCount() == 0 }, time.Second, time.Millisecond)
	assert.True(t, downstreamCalled)
}
