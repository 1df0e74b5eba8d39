package fs

import (
	"testing"

	"github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringHashMap(capacity int) *HashMap {
	return NewHashMap(capacity,
		func(k interface{}) uint64 {
			s := k.(string)
			var h uint64 = 14695981039346656037
			for i := 0; i < len(s); i++ {
				h ^= uint64(s[i])
				h *= 1099511628211
			}
			return h
		},
		func(a, b interface{}) bool { return a.(string) == b.(string) },
	)
}

func TestHashMapSetGet(t *testing.T) {
	m := stringHashMap(8)
	require.NoError(t, m.Set("a", 1))
	require.NoError(t, m.Set("b", 2))
	v, err := m.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = m.Get("b")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestHashMapGetAbsent(t *testing.T) {
	m := stringHashMap(4)
	_, err := m.Get("missing")
	require.Error(t, err)
	assert.True(t, rbherr.Is(err, rbherr.KindNoEntry))
}

func TestHashMapPresentNilDistinctFromAbsent(t *testing.T) {
	m := stringHashMap(4)
	require.NoError(t, m.Set("k", nil))
	v, err := m.Get("k")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = m.Get("other")
	require.Error(t, err)
	assert.True(t, rbherr.Is(err, rbherr.KindNoEntry))
}

func TestHashMapSetReplacesExisting(t *testing.T) {
	m := stringHashMap(4)
	require.NoError(t, m.Set("k", 1))
	require.NoError(t, m.Set("k", 2))
	v, _ := m.Get("k")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, m.Len())
}

func TestHashMapFullProbeChain(t *testing.T) {
	m := stringHashMap(2)
	require.NoError(t, m.Set("a", 1))
	require.NoError(t, m.Set("b", 2))
	err := m.Set("c", 3)
	require.Error(t, err)
	assert.True(t, rbherr.Is(err, rbherr.KindNoBufferSpace))
}

// the hashmap preserves the probe invariant under interleaved
// set/pop sequences -- get(k) after any sequence returns the last
// set value for k, or no-entry.
func TestHashMapProbeInvariantAfterPop(t *testing.T) {
	m := stringHashMap(4)
	require.NoError(t, m.Set("a", 1))
	require.NoError(t, m.Set("b", 2))
	require.NoError(t, m.Set("c", 3))

	popped, err := m.Pop("a")
	require.NoError(t, err)
	assert.Equal(t, 1, popped)

	// b and c must still be reachable: deleting a must not break their
	// probe chains even though a, b, c may have collided.
	v, err := m.Get("b")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	v, err = m.Get("c")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = m.Get("a")
	require.Error(t, err)
	assert.True(t, rbherr.Is(err, rbherr.KindNoEntry))

	// The freed slot can be reused.
	require.NoError(t, m.Set("d", 4))
	v, err = m.Get("d")
	require.NoError(t, err)
	assert.Equal(t, 4, v)
}

func TestHashMapManyCollisionsStress(t *testing.T) {
	// A degenerate all-collide hash stresses the probe-repair logic.
	m := NewHashMap(16,
		func(k interface{}) uint64 { return 0 },
		func(a, b interface{}) bool { return a.(int) == b.(int) },
	)
	for i := 0; i < 16; i++ {
		require.NoError(t, m.Set(i, i*10))
	}
	for i := 0; i < 16; i += 2 {
		_, err := m.Pop(i)
		require.NoError(t, err)
	}
	for i := 1; i < 16; i += 2 {
		v, err := m.Get(i)
		require.NoError(t, err, "key %d should still be reachable", i)
		assert.Equal(t, i*10, v)
	}
	for i := 0; i < 16; i += 2 {
		_, err := m.Get(i)
		assert.Error(t, err, "key %d should be gone", i)
	}
}
