package avltree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lessInt(a, b int) bool { return a < b }

func inorder(root *Node[int]) []int {
	var out []int
	var walk func(*Node[int])
	walk = func(n *Node[int]) {
		if n == nil {
			return
		}
		walk(n.left)
		out = append(out, n.Value)
		walk(n.right)
	}
	walk(root)
	return out
}

// checkInvariants asserts the AV balance invariant from spec.md §8: every
// node's child heights differ by at most 1 and its size equals 1 +
// size(left) + size(right).
func checkInvariants(t *testing.T, n *Node[int]) {
	t.Helper()
	if n == nil {
		return
	}
	l, r := height(n.left), height(n.right)
	diff := l - r
	if diff < 0 {
		diff = -diff
	}
	assert.LessOrEqualf(t, diff, int32(1), "node %v unbalanced: left height %d right height %d", n.Value, l, r)
	assert.Equal(t, 1+size(n.left)+size(n.right), n.size)
	if n.left != nil {
		assert.Same(t, n, n.left.parent)
	}
	if n.right != nil {
		assert.Same(t, n, n.right.parent)
	}
	checkInvariants(t, n.left)
	checkInvariants(t, n.right)
}

func TestInsertMaintainsBalanceAndOrder(t *testing.T) {
	tree := New(lessInt)
	r := rand.New(rand.NewSource(1))
	values := r.Perm(2000)

	for _, v := range values {
		tree.Insert(NewNode(v))
	}

	checkInvariants(t, tree.Root())

	got := inorder(tree.Root())
	want := append([]int(nil), values...)
	sort.Ints(want)
	assert.Equal(t, want, got)
	assert.Equal(t, len(values), tree.Len())
}

func TestDeleteMaintainsBalanceAndOrder(t *testing.T) {
	tree := New(lessInt)
	r := rand.New(rand.NewSource(2))
	values := r.Perm(500)

	nodes := make(map[int]*Node[int], len(values))
	for _, v := range values {
		n := NewNode(v)
		nodes[v] = n
		tree.Insert(n)
	}

	// Track relocations so deleting a node found earlier via `nodes` still
	// works after a value-copy deletion moves it to a different Node object.
	tree.SetOnRelocate(func(value int, at *Node[int]) {
		nodes[value] = at
	})

	toDelete := values[:250]
	remaining := map[int]bool{}
	for _, v := range values {
		remaining[v] = true
	}

	for _, v := range toDelete {
		got := tree.Delete(nodes[v])
		require.Equal(t, v, got)
		delete(remaining, v)
		delete(nodes, v)
		checkInvariants(t, tree.Root())
	}

	assert.Equal(t, len(remaining), tree.Len())

	var want []int
	for v := range remaining {
		want = append(want, v)
	}
	sort.Ints(want)
	assert.Equal(t, want, inorder(tree.Root()))
}

func TestOffset(t *testing.T) {
	tree := New(lessInt)
	var nodes []*Node[int]
	for i := 0; i < 20; i++ {
		n := NewNode(i)
		nodes = append(nodes, n)
		tree.Insert(n)
	}

	first := First(tree.Root())
	require.NotNil(t, first)
	assert.Equal(t, 0, first.Value)

	fifth := Offset(first, 5)
	require.NotNil(t, fifth)
	assert.Equal(t, 5, fifth.Value)

	back := Offset(fifth, -5)
	require.NotNil(t, back)
	assert.Equal(t, 0, back.Value)

	// Walking past either boundary returns nil.
	assert.Nil(t, Offset(first, -1))
	assert.Nil(t, Offset(first, 100))
}

func TestLowerBoundFindsSmallestNotLess(t *testing.T) {
	tree := New(lessInt)
	for _, v := range []int{10, 20, 30, 40, 50} {
		tree.Insert(NewNode(v))
	}

	assert.Equal(t, 30, tree.LowerBound(25).Value)
	assert.Equal(t, 30, tree.LowerBound(30).Value)
	assert.Equal(t, 10, tree.LowerBound(0).Value)
	assert.Nil(t, tree.LowerBound(51))
}

func TestNextWalksInOrder(t *testing.T) {
	tree := New(lessInt)
	for _, v := range []int{5, 3, 8, 1, 4, 7, 9} {
		tree.Insert(NewNode(v))
	}

	n := First(tree.Root())
	var got []int
	for n != nil {
		got = append(got, n.Value)
		n = Next(n)
	}
	assert.Equal(t, []int{1, 3, 4, 5, 7, 8, 9}, got)
}
