package hashtable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashString(s string) uint64 {
	var h uint64 = 1469598103934665603
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

type kv struct {
	key string
	val int
}

func equalsKey(key string) func(kv) bool {
	return func(v kv) bool { return v.key == key }
}

func TestMapInsertLookupRemove(t *testing.T) {
	m := NewMap[kv]()

	m.Insert(hashString("a"), kv{"a", 1})
	m.Insert(hashString("b"), kv{"b", 2})

	v, ok := m.Lookup(hashString("a"), equalsKey("a"))
	require.True(t, ok)
	assert.Equal(t, 1, v.val)

	_, ok = m.Lookup(hashString("missing"), equalsKey("missing"))
	assert.False(t, ok)

	removed, ok := m.Remove(hashString("a"), equalsKey("a"))
	require.True(t, ok)
	assert.Equal(t, "a", removed.key)

	_, ok = m.Lookup(hashString("a"), equalsKey("a"))
	assert.False(t, ok)

	assert.Equal(t, 1, m.Size())
}

// TestMapMigrationLiveness inserts enough keys to force several resizes and
// asserts the HT integrity + migration-liveness invariants from spec.md §8:
// every live key is found, and after enough subsequent operations the
// resizing table is drained.
func TestMapMigrationLiveness(t *testing.T) {
	m := NewMap[kv]()

	const n = 5000
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%d", i)
		m.Insert(hashString(key), kv{key, i})
	}

	require.Equal(t, n, m.Size())

	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%d", i)
		v, ok := m.Lookup(hashString(key), equalsKey(key))
		require.True(t, ok, "missing key %s", key)
		assert.Equal(t, i, v.val)
	}

	// Enough further no-op lookups to guarantee migration completion
	// regardless of how many resizes were triggered along the way.
	for i := 0; i < n; i++ {
		m.Lookup(hashString("nonexistent"), equalsKey("nonexistent"))
	}
	assert.False(t, m.Migrating(), "resizing table should have fully drained")
}

func TestMapForEach(t *testing.T) {
	m := NewMap[kv]()
	want := map[string]int{"a": 1, "b": 2, "c": 3}
	for k, v := range want {
		m.Insert(hashString(k), kv{k, v})
	}

	got := map[string]int{}
	m.ForEach(func(v kv) { got[v.key] = v.val })

	assert.Equal(t, want, got)
}

func TestMapRemoveMissingIsNoop(t *testing.T) {
	m := NewMap[kv]()
	m.Insert(hashString("a"), kv{"a", 1})

	_, ok := m.Remove(hashString("missing"), equalsKey("missing"))
	assert.False(t, ok)
	assert.Equal(t, 1, m.Size())
}
