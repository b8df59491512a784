package wire

// BitcoinNet identifies which Bitcoin network a message belongs to via its
// 4-byte magic value.
type BitcoinNet uint32

const (
	// MainNet represents the main Bitcoin network.
	MainNet BitcoinNet = 0xd9b4bef9
	// TestNet3 represents the test network (version 3).
	TestNet3 BitcoinNet = 0x0709110b
)

func (n BitcoinNet) String() string {
	switch n {
	case MainNet:
		return "mainnet"
	case TestNet3:
		return "testnet3"
	default:
		return "unknown"
	}
}

// ChainParams carries the network-specific configuration consulted by the
// codec and the peer pool's discovery sources. Only the subset of
// BitcoinParams needed here (magic, default port, seeds) is modeled;
// chain-validation parameters belong to the external BlockChain
// collaborator, not here.
type ChainParams struct {
	Name        string
	Net         BitcoinNet
	DefaultPort string
	DNSSeeds    []string
}

// MainNetParams are the parameters for the production Bitcoin network.
var MainNetParams = ChainParams{
	Name:        "mainnet",
	Net:         MainNet,
	DefaultPort: "8333",
	DNSSeeds: []string{
		"seed.bitcoin.sipa.be",
		"dnsseed.bluematt.me",
		"dnsseed.bitcoin.dashjr.org",
	},
}

// TestNet3Params are the parameters for the public test network.
var TestNet3Params = ChainParams{
	Name:        "testnet3",
	Net:         TestNet3,
	DefaultPort: "18333",
	DNSSeeds: []string{
		"testnet-seed.bitcoin.jonasschnelli.ch",
	},
}
