package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSonyflakeMonotonicUnique(t *testing.T) {
	g, err := NewSonyflake(7)
	require.NoError(t, err)

	seen := make(map[int64]struct{}, 500)
	var last int64
	for i := 0; i < 500; i++ {
		id, err := g.NextID()
		require.NoError(t, err)
		assert.Greater(t, id, last)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
		last = id
	}
}

func TestSequence(t *testing.T) {
	g := Sequence(100)
	a, _ := g.NextID()
	b, _ := g.NextID()
	assert.Equal(t, int64(100), a)
	assert.Equal(t, int64(101), b)
}
