package config

import (
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/copernet/bitpeer/wire"
)

// Config is the command-line/file configuration surface for a peerclient
// process, tagged for github.com/jessevdk/go-flags.
type Config struct {
	Network     string   `long:"network" default:"mainnet" description:"mainnet or testnet3"`
	ConnectTo   []string `long:"connect" description:"connect only to these addresses (host:port), skipping discovery"`
	WorkerCount int      `long:"workers" default:"4" description:"maximum number of concurrent peer sessions"`

	DialTimeout  time.Duration `long:"dialtimeout" default:"10s" description:"per-connection dial timeout"`
	WriteTimeout time.Duration `long:"writetimeout" default:"30s" description:"per-message write timeout"`
	PingInterval time.Duration `long:"pinginterval" default:"2m" description:"interval between keep-alive pings"`
	TickInterval time.Duration `long:"tickinterval" default:"30s" description:"interval between connection-maintenance passes"`

	UserAgent      string `long:"useragent" default:"/bitpeer:0.1.0/" description:"user agent string announced in version messages"`
	DisableRelayTx bool   `long:"norelay" description:"tell peers not to relay transactions to us"`
}

// Parse reads argv (typically os.Args[1:]) into a Config with defaults
// applied.
func Parse(argv []string) (*Config, error) {
	cfg := &Config{}
	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(argv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ChainParams resolves the configured network name to its wire.ChainParams.
func (c *Config) ChainParams() (*wire.ChainParams, error) {
	switch c.Network {
	case "", "mainnet":
		return &wire.MainNetParams, nil
	case "testnet3":
		return &wire.TestNet3Params, nil
	default:
		return nil, &unknownNetworkError{c.Network}
	}
}

type unknownNetworkError struct {
	network string
}

func (e *unknownNetworkError) Error() string {
	return "config: unknown network " + e.network
}
