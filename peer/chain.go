package peer

import "github.com/copernet/bitpeer/wire"

// StoredBlock is the minimal view of a chain-stored block the download
// coordinator needs: enough to build a block locator and report progress.
type StoredBlock struct {
	Header wire.BlockHeader
	Height int32
}

// BlockChain is the external collaborator that accepts downloaded blocks
// and extends (or rejects) the local chain. Its internal validation and
// re-org logic are out of scope here; only the two operations a peer's
// download pipeline calls are modeled.
type BlockChain interface {
	// Add connects block to the chain, returning whether it extended the
	// best chain. A non-nil error is a VerificationError from the
	// collaborator, propagated unchanged.
	Add(block *wire.Block) (bool, error)
	// ChainHead returns the current best block known to the chain.
	ChainHead() (StoredBlock, error)
}

// BlockStore is the external collaborator backing persisted chain state.
// Its storage implementation is opaque; only ChainHead is consulted here,
// to seed a block locator before the BlockChain has processed anything.
type BlockStore interface {
	ChainHead() (StoredBlock, error)
}
