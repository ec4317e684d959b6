// Package zset implements the sorted set: a collection of (member, score)
// pairs offering O(1) lookup by member name and O(log n) ordered access by
// (score, name), per spec.md §4.3.
package zset

import (
	"hash/fnv"

	"github.com/eternalApril/kvloop/internal/avltree"
	"github.com/eternalApril/kvloop/internal/hashtable"
)

// node is one member of a ZSet. It is never exposed outside this package;
// callers interact with names and scores.
type node struct {
	name  string
	score float64
	tree  *avltree.Node[*node]
}

func nameHash(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

// less orders nodes by score ascending, breaking ties on member name. The
// two are never equal for distinct members because name is the identity.
func less(a, b *node) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.name < b.name
}

// ZSet is a sorted set: a hash index by name composed with an AVL tree
// ordered by (score, name).
type ZSet struct {
	byName *hashtable.Map[*node]
	byRank *avltree.Tree[*node]
}

// New constructs an empty sorted set.
func New() *ZSet {
	tree := avltree.New(less)
	z := &ZSet{
		byName: hashtable.NewMap[*node](),
		byRank: tree,
	}
	// Deleting a tree node that has a right child (on Pop, or on a score
	// update) moves the in-order successor member into the deleted node's
	// tree slot. Keep that member's cached tree handle pointing at its new
	// slot.
	tree.SetOnRelocate(func(v *node, at *avltree.Node[*node]) {
		v.tree = at
	})
	return z
}

func equalsName(name string) func(*node) bool {
	return func(n *node) bool { return n.name == name }
}

// Add upserts (name, score). It returns true if a new member was created,
// false if an existing member's score was updated.
func (z *ZSet) Add(name string, score float64) bool {
	hash := nameHash(name)

	if existing, ok := z.byName.Lookup(hash, equalsName(name)); ok {
		if existing.score != score {
			z.byRank.Delete(existing.tree)
			existing.score = score
			existing.tree = avltree.NewNode(existing)
			z.byRank.Insert(existing.tree)
		}
		return false
	}

	n := &node{name: name, score: score}
	z.byName.Insert(hash, n)
	n.tree = avltree.NewNode(n)
	z.byRank.Insert(n.tree)
	return true
}

// Score reports the score of name and whether it exists.
func (z *ZSet) Score(name string) (float64, bool) {
	n, ok := z.byName.Lookup(nameHash(name), equalsName(name))
	if !ok {
		return 0, false
	}
	return n.score, true
}

// Pop removes name, returning its score and whether it existed.
func (z *ZSet) Pop(name string) (float64, bool) {
	n, ok := z.byName.Remove(nameHash(name), equalsName(name))
	if !ok {
		return 0, false
	}
	z.byRank.Delete(n.tree)
	return n.score, true
}

// Len returns the number of members.
func (z *ZSet) Len() int { return z.byName.Size() }

// Pair is one (member, score) result from Query.
type Pair struct {
	Name  string
	Score float64
}

// Query implements ZQUERY: find the smallest member whose (score, name) is
// >= (minScore, minName), skip offset positions (which may be negative, per
// spec.md §9's resolution of the source's inconsistent sign handling), then
// collect up to limit consecutive members. Returns an empty slice if the
// starting point does not exist or the offset walks out of range.
func (z *ZSet) Query(minScore float64, minName string, offset int64, limit int) []Pair {
	start := z.seek(minScore, minName)
	if start == nil {
		return nil
	}

	if offset != 0 {
		start = avltree.Offset(start, offset)
		if start == nil {
			return nil
		}
	}

	var out []Pair
	for n := start; n != nil && len(out) < limit; n = avltree.Next(n) {
		out = append(out, Pair{Name: n.Value.name, Score: n.Value.score})
	}
	return out
}

// seek finds the smallest node whose (score, name) is greater than or equal
// to (score, name), or nil if none qualifies. The descent itself lives in
// avltree.Tree.LowerBound; zset never reaches into a Node's own left/right
// links.
func (z *ZSet) seek(score float64, name string) *avltree.Node[*node] {
	return z.byRank.LowerBound(&node{name: name, score: score})
}
