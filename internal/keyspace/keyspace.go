package keyspace

import (
	"hash/fnv"
	"time"

	"github.com/eternalApril/kvloop/internal/hashtable"
	"github.com/eternalApril/kvloop/internal/heapindex"
	"github.com/eternalApril/kvloop/internal/threadpool"
)

// maxTTLOpsPerTick bounds how many expired entries a single Sweep call
// destroys, so a burst of simultaneous expiries never stalls the dispatcher
// goroutine for longer than that budget allows. Matches the source's
// max_ttl_ops in Server::process_timers.
const maxTTLOpsPerTick = 2000

func keyHash(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

func equalsKey(key string) func(*Entry) bool {
	return func(e *Entry) bool { return e.key == key }
}

// Keyspace is the top-level key -> Entry mapping plus TTL expiry ordering.
// It is not safe for concurrent use; the dispatcher goroutine owns it
// exclusively, per spec.md §4.9's single-owner invariant.
type Keyspace struct {
	entries *hashtable.Map[*Entry]
	ttl     heapindex.Heap[*Entry]
	pool    *threadpool.Pool
}

// New constructs an empty keyspace. Teardown of expired entries (see Sweep)
// is offloaded to pool.
func New(pool *threadpool.Pool) *Keyspace {
	return &Keyspace{
		entries: hashtable.NewMap[*Entry](),
		pool:    pool,
	}
}

// Get looks up key, returning its entry and whether it exists.
func (k *Keyspace) Get(key string) (*Entry, bool) {
	return k.entries.Lookup(keyHash(key), equalsKey(key))
}

// GetOrCreate returns key's entry, creating an empty String entry if it did
// not already exist. The bool result reports whether an entry was created.
func (k *Keyspace) GetOrCreate(key string) (*Entry, bool) {
	if e, ok := k.Get(key); ok {
		return e, false
	}
	e := &Entry{key: key, hash: keyHash(key), heapIdx: noHeapIdx}
	k.entries.Insert(e.hash, e)
	return e, true
}

// Delete removes key immediately, canceling any pending TTL and destroying
// the value on the calling goroutine. Used by the DEL command, where the
// caller is waiting on the result and synchronous teardown is expected.
func (k *Keyspace) Delete(key string) bool {
	e, ok := k.entries.Remove(keyHash(key), equalsKey(key))
	if !ok {
		return false
	}
	k.cancelTTL(e)
	destroyEntry(e)
	return true
}

// SetTTLMillis implements the source's set_entry_ttl: a negative ttlMs
// clears any existing expiry and leaves the entry persistent; ttlMs >= 0
// schedules (or reschedules) expiry ttlMs milliseconds from now, per
// DESIGN.md's resolution of the TTL sign convention (zero expires on the
// very next Sweep tick rather than immediately in-line, since destruction
// always happens off the calling goroutine's stack via the heap).
func (k *Keyspace) SetTTLMillis(e *Entry, ttlMs int64, now time.Time) {
	if ttlMs < 0 {
		k.cancelTTL(e)
		return
	}

	expireAt := uint64(now.UnixMicro()) + uint64(ttlMs)*1000
	if !e.HasTTL() {
		k.ttl.Push(expireAt, e, &e.heapIdx)
		return
	}
	k.ttl.SetPriority(e.heapIdx, expireAt)
}

// TTLMillis reports the milliseconds remaining until e expires, or -1 if e
// carries no expiry, per spec.md §4.8's PTTL semantics.
func (k *Keyspace) TTLMillis(e *Entry, now time.Time) int64 {
	if !e.HasTTL() {
		return -1
	}
	expireAt := k.ttl.PeekAt(e.heapIdx).Priority
	remaining := int64(expireAt) - now.UnixMicro()
	if remaining < 0 {
		remaining = 0
	}
	return remaining / 1000
}

func (k *Keyspace) cancelTTL(e *Entry) {
	if !e.HasTTL() {
		return
	}
	k.ttl.Remove(e.heapIdx)
}

// NextExpiry reports the absolute time of the earliest pending expiry and
// whether one exists at all, letting the event loop compute its poll/select
// timeout the way calculate_next_timeout does.
func (k *Keyspace) NextExpiry() (time.Time, bool) {
	if k.ttl.Empty() {
		return time.Time{}, false
	}
	return time.UnixMicro(int64(k.ttl.PeekMin().Priority)), true
}

// Sweep destroys every entry whose TTL has expired as of now, up to
// maxTTLOpsPerTick entries, deferring the actual value teardown to the
// worker pool exactly as delete_entry_async does. It returns the number of
// entries expired.
func (k *Keyspace) Sweep(now time.Time) int {
	nowUsec := uint64(now.UnixMicro())
	ops := 0

	for ops < maxTTLOpsPerTick && !k.ttl.Empty() && k.ttl.PeekMin().Priority <= nowUsec {
		item := k.ttl.PopMin()
		e := item.Value
		k.entries.Remove(e.hash, func(cand *Entry) bool { return cand == e })
		k.destroyAsync(e)
		ops++
	}
	return ops
}

// destroyAsync mirrors EntryManager::delete_entry_async: dropping a large
// ZSet's backing tree can be expensive, so the actual teardown happens on a
// worker goroutine instead of blocking the dispatcher.
func (k *Keyspace) destroyAsync(e *Entry) {
	if k.pool == nil {
		destroyEntry(e)
		return
	}
	_ = k.pool.Submit(func() { destroyEntry(e) })
}

func destroyEntry(e *Entry) {
	e.str = ""
	e.zset = nil
}

// Len reports the number of live keys.
func (k *Keyspace) Len() int { return k.entries.Size() }

// Keys returns every live key, for the KEYS command. Ordering is
// unspecified, matching the hash table's own iteration order.
func (k *Keyspace) Keys() []string {
	out := make([]string, 0, k.entries.Size())
	k.entries.ForEach(func(e *Entry) {
		out = append(out, e.key)
	})
	return out
}
