// Package keyspace owns the top-level key -> value mapping and TTL
// bookkeeping, per spec.md §4.5. It composes the hash table (name lookup)
// with the heap index (expiry ordering), and holds a reference to whichever
// zset a ZSet-typed entry wraps.
package keyspace

import (
	"github.com/eternalApril/kvloop/internal/zset"
)

// Kind identifies the type of value an Entry holds. GET/SET/ZADD and
// friends reject a key whose Kind does not match the command, per spec.md
// §4.8's ERR_TYPE.
type Kind int

const (
	KindString Kind = iota
	KindZSet
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindZSet:
		return "zset"
	default:
		return "unknown"
	}
}

// noHeapIdx marks an entry that is not currently tracked by the TTL heap,
// mirroring the source's sentinel size_t(-1) for heap_idx.
const noHeapIdx = -1

// Entry is one keyspace slot. A key holds exactly one value, tagged by
// Kind; String and ZSet are mutually exclusive.
type Entry struct {
	key  string
	hash uint64
	kind Kind

	str  string
	zset *zset.ZSet

	// heapIdx is this entry's live position in the owning Keyspace's TTL
	// heap, or noHeapIdx if it carries no expiry. heapindex.Heap keeps this
	// field updated on every swap via the pointer handed to Push.
	heapIdx int
}

// Key returns the entry's key.
func (e *Entry) Key() string { return e.key }

// Kind returns the entry's value type.
func (e *Entry) Kind() Kind { return e.kind }

// Str returns the entry's string value. Callers must check Kind first.
func (e *Entry) Str() string { return e.str }

// SetStr overwrites the entry's value with a string, converting its Kind if
// necessary. A prior ZSet value is dropped without any deferred teardown:
// only TTL expiry (Keyspace.Sweep) defers, since a plain overwrite is
// expected to be cheap.
func (e *Entry) SetStr(v string) {
	e.kind = KindString
	e.str = v
	e.zset = nil
}

// ZSet returns the entry's sorted set, creating one if the entry is new or
// currently holds nothing of that kind. Callers must check Kind first when
// the entry might already exist as a String.
func (e *Entry) ZSet() *zset.ZSet {
	if e.kind != KindZSet || e.zset == nil {
		e.kind = KindZSet
		e.zset = zset.New()
	}
	return e.zset
}

// HasTTL reports whether the entry currently carries an expiry.
func (e *Entry) HasTTL() bool { return e.heapIdx != noHeapIdx }
