package script

import (
	"crypto/sha1"
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"
)

func sha1Sum(b []byte) []byte {
	h := sha1.Sum(b)
	return h[:]
}

func sha256Sum(b []byte) []byte {
	h := sha256.Sum256(b)
	return h[:]
}

func ripemd160Sum(b []byte) []byte {
	h := ripemd160.New()
	h.Write(b)
	return h.Sum(nil)
}

// hash160 is RIPEMD160(SHA256(b)), used by OP_HASH160 and P2SH/P2PKH
// script templates.
func hash160(b []byte) []byte {
	return ripemd160Sum(sha256Sum(b))
}

// hash256 is SHA256(SHA256(b)), used by OP_HASH256 and transaction hashing.
func hash256(b []byte) []byte {
	return sha256Sum(sha256Sum(b))
}
