package peer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNonceMapAddAndContains(t *testing.T) {
	m := NewNonceMap(2)
	m.Add(1)
	m.Add(2)
	assert.True(t, m.Contains(1))
	assert.True(t, m.Contains(2))
	assert.False(t, m.Contains(3))
}

func TestNonceMapEvictsOldestPastCapacity(t *testing.T) {
	m := NewNonceMap(2)
	m.Add(1)
	m.Add(2)
	m.Add(3)
	assert.False(t, m.Contains(1))
	assert.True(t, m.Contains(2))
	assert.True(t, m.Contains(3))
}

func TestNonceMapAddIsIdempotent(t *testing.T) {
	m := NewNonceMap(2)
	m.Add(1)
	m.Add(1)
	m.Add(2)
	// Re-adding 1 must not count as a second entry, else adding 2 would
	// exceed capacity and evict nonce 1.
	assert.True(t, m.Contains(1))
	assert.True(t, m.Contains(2))
}

func TestNewNonceMapDefaultsNonPositiveCapacity(t *testing.T) {
	m := NewNonceMap(0)
	assert.Equal(t, DefaultNonceMapSize, m.capacity)
}
