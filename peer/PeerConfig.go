package peer

import (
	"time"

	"github.com/copernet/bitpeer/wire"
)

// Listeners is the set of callbacks a caller can register to observe
// inbound traffic from a Peer, grouped into one struct rather than a
// per-message-type observer registry.
type Listeners struct {
	OnVersion         func(p *Peer, msg *wire.VersionMessage)
	OnVerAck          func(p *Peer)
	OnInv             func(p *Peer, msg *wire.InvMessage)
	OnTx              func(p *Peer, tx *wire.Tx)
	OnBlock           func(p *Peer, block *wire.Block)
	OnHeaders         func(p *Peer, msg *wire.HeadersMessage)
	OnAddr            func(p *Peer, msg *wire.AddrMessage)
	OnPing            func(p *Peer, msg *wire.PingMessage)
	OnPong            func(p *Peer, msg *wire.PongMessage)
	OnAlert           func(p *Peer, msg *wire.AlertMessage)
	OnDisconnect      func(p *Peer, err error)
	// OnBlocksDownloaded fires for a block this peer hands to BlockChain
	// only when BlockChain.Add accepts it and extends the chain; blocksLeft is an
	// estimate of how many more blocks remain below the peer's
	// advertised best height.
	OnBlocksDownloaded func(p *Peer, block *wire.Block, blocksLeft int)
	// HaveTx reports whether the caller already holds a transaction, so
	// inbound inv announcements for it are not re-requested via getdata.
	HaveTx func(hash wire.Hash256) bool
}

// Config carries the fixed parameters a Peer connection needs: chain
// selection, version-handshake announcements, connection timeouts, and
// the external collaborators consulted during block-chain download.
type Config struct {
	ChainParams     *wire.ChainParams
	UserAgent       string
	ProtocolVersion uint32
	Services        wire.ServiceFlag
	DisableRelayTx  bool

	DialTimeout  time.Duration
	WriteTimeout time.Duration
	PingInterval time.Duration

	// Nonces, when set, records this process's outbound handshake
	// nonces and rejects a peer whose version message echoes one back
	// as a self-connection.
	Nonces *NonceMap

	BlockChain BlockChain
	BlockStore BlockStore

	Listeners Listeners
}

func (c *Config) dialTimeout() time.Duration {
	if c.DialTimeout > 0 {
		return c.DialTimeout
	}
	return 10 * time.Second
}

func (c *Config) writeTimeout() time.Duration {
	if c.WriteTimeout > 0 {
		return c.WriteTimeout
	}
	return 30 * time.Second
}

func (c *Config) pingInterval() time.Duration {
	if c.PingInterval > 0 {
		return c.PingInterval
	}
	return 2 * time.Minute
}
