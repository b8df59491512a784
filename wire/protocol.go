package wire

// ProtocolVersion is the version this package announces in outgoing
// version messages.
const ProtocolVersion uint32 = 70002

// ChecksumVersion is the hard threshold: once the peer's
// negotiated protocol version is at least this, the codec MUST checksum
// every subsequent message. Below it, the version/verack exchange itself
// is never checksummed regardless of this constant.
const ChecksumVersion uint32 = 209

// MultipleAddressVersion is protocol version 209. The handshake does not
// check it: a peer advertising a lower version is still accepted.
const MultipleAddressVersion uint32 = 209

// MaxMessagePayload is the maximum length, in bytes, the length field of a
// message header may declare. Larger is a fatal ProtocolError.
const MaxMessagePayload = 32 * 1024 * 1024

// MaxUserAgentLen bounds the varstr holding a peer's user agent string.
const MaxUserAgentLen = 256

// CommandSize is the fixed, NUL-padded width of the command field.
const CommandSize = 12

// ServiceFlag is a bitmask of services advertised by a peer in its version
// message.
type ServiceFlag uint64

const (
	// SFNodeNetwork means the peer can serve the full block chain.
	SFNodeNetwork ServiceFlag = 1 << 0
	// SFNodeBloomFilter means the peer supports BIP0037 bloom filtering.
	SFNodeBloomFilter ServiceFlag = 1 << 2
)

// HasService reports whether flags contains every bit of want.
func (flags ServiceFlag) HasService(want ServiceFlag) bool {
	return flags&want == want
}

// InventoryType identifies the kind of item in an inventory vector.
type InventoryType uint32

const (
	InvTypeError InventoryType = 0
	InvTypeTx    InventoryType = 1
	InvTypeBlock InventoryType = 2
)

func (t InventoryType) String() string {
	switch t {
	case InvTypeTx:
		return "MSG_TX"
	case InvTypeBlock:
		return "MSG_BLOCK"
	default:
		return "ERROR"
	}
}
