package script

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// SignatureVerifier checks a single (signature, pubkey) pair against a
// transaction's signature hash. The interpreter depends on this interface,
// not on a concrete curve library, so tests can substitute a stub verifier
// for the CHECKSIG/CHECKMULTISIG step.
type SignatureVerifier interface {
	CheckSig(tx Transaction, sig, pubKey, connectedScript []byte, inputIndex int) bool
}

// ECDSAVerifier is the default SignatureVerifier, backed by
// decred's secp256k1/ecdsa package.
type ECDSAVerifier struct{}

// CheckSig verifies a DER-encoded ECDSA signature whose last byte is the
// sighash type: it constructs the signature hash for that type and checks
// the remaining DER bytes against the public key.
func (ECDSAVerifier) CheckSig(tx Transaction, sig, pubKey, connectedScript []byte, inputIndex int) bool {
	if len(sig) == 0 || len(pubKey) == 0 {
		return false
	}
	sigHashByte := sig[len(sig)-1]
	rawSig := sig[:len(sig)-1]

	hash, err := tx.SignatureHash(sigHashByte, inputIndex, connectedScript)
	if err != nil {
		return false
	}

	pub, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	parsedSig, err := ecdsa.ParseDERSignature(rawSig)
	if err != nil {
		return false
	}
	return parsedSig.Verify(hash[:], pub)
}

// CheckMultiSig reports whether every signature in sigs verifies against
// pubKeys in order, in a single pass: each pubkey is tried once, and a
// signature is consumed only when it verifies against the current pubkey.
// CHECKMULTISIG's extra stack pop is done by the interpreter, not here.
func CheckMultiSig(verifier SignatureVerifier, tx Transaction, sigs, pubKeys [][]byte, connectedScript []byte, inputIndex int) bool {
	sigIdx, keyIdx := 0, 0
	sigsRemaining := len(sigs)
	keysRemaining := len(pubKeys)

	for sigsRemaining > 0 {
		if keysRemaining == 0 {
			return false
		}
		if verifier.CheckSig(tx, sigs[sigIdx], pubKeys[keyIdx], connectedScript, inputIndex) {
			sigIdx++
			sigsRemaining--
		}
		keyIdx++
		keysRemaining--
		if sigsRemaining > keysRemaining {
			return false
		}
	}
	return true
}
