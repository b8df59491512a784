// Command blockanalyse reads a single hex-encoded block from disk and
// reports its hash, size, and input/output counts, using this module's
// own wire codec rather than a full node's block-validation package.
package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/copernet/bitpeer/wire"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <hex-encoded-block-file>\n", os.Args[0])
		os.Exit(1)
	}
	filePath := os.Args[1]

	srcBuf, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to read file: %v\n", err)
		os.Exit(1)
	}

	dstBuf := make([]byte, len(srcBuf)/2)
	decodeLen, err := hex.Decode(dstBuf, srcBuf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to decode block: %v\n", err)
		os.Exit(1)
	}
	dstBuf = dstBuf[:decodeLen]

	block := &wire.Block{}
	if err := block.Decode(bytes.NewReader(dstBuf)); err != nil {
		fmt.Fprintf(os.Stderr, "unable to decode block: %v\n", err)
		os.Exit(1)
	}

	inputs, outputs := blockInputsOutputs(block)
	blockHash := block.Header.Hash()

	fmt.Printf("blockhash: %x, block size: %d bytes, inputs: %d, outputs: %d, tx count: %d\n",
		blockHash[:], decodeLen, inputs, outputs, len(block.Transactions))
}

func blockInputsOutputs(block *wire.Block) (inputs, outputs int) {
	for _, tx := range block.Transactions {
		inputs += len(tx.TxIn)
		outputs += len(tx.TxOut)
	}
	return
}
