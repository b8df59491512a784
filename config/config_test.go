package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]string{})
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, 4, cfg.WorkerCount)
}

func TestChainParamsResolvesNetwork(t *testing.T) {
	cfg := &Config{Network: "testnet3"}
	params, err := cfg.ChainParams()
	require.NoError(t, err)
	assert.Equal(t, "testnet3", params.Name)

	cfg.Network = "bogus"
	_, err = cfg.ChainParams()
	assert.Error(t, err)
}

func TestParseRejectsUnknownFlag(t *testing.T) {
	_, err := Parse([]string{"--not-a-real-flag"})
	assert.Error(t, err)
}
