package script

import "github.com/copernet/bitpeer/wire"

// Transaction is the contract the interpreter needs from the transaction
// being verified, so that the script package does not import wire's
// concrete Tx type directly. wire.Tx satisfies this by duck typing via its
// SignatureHash method, used by CheckSig's signature-checking step.
type Transaction interface {
	SignatureHash(sigHashByte byte, inputIndex int, connectedScript []byte) (wire.Hash256, error)
}
