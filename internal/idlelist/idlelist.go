// Package idlelist implements the intrusive MRU-ordered doubly linked list
// of idle connections that the event loop scans to find the next
// idle-timeout deadline in O(1), grounded on the source's dlist_* family
// (server.hpp marks its own dlist as unimplemented pseudocode; this package
// supplies the real thing in Go's idiom: a *Node embedded by value in the
// owner's struct instead of an intrusive offsetof/container_of trick).
package idlelist

// Node is embedded by value in whatever struct wants list membership (a
// connection record): `type Conn struct { idle idlelist.Node; ... }`. In
// place of the source's container_of, it records the owner value passed to
// PushBack, and Front hands that owner back to the caller.
type Node struct {
	prev, next *Node
	owner      any
	inList     bool
}

// List is a circular sentinel-headed doubly linked list. The zero value is
// a valid empty list.
type List struct {
	sentinel Node
	init     bool
}

func (l *List) ensureInit() {
	if !l.init {
		l.sentinel.next = &l.sentinel
		l.sentinel.prev = &l.sentinel
		l.init = true
	}
}

// Empty reports whether the list holds no nodes.
func (l *List) Empty() bool {
	l.ensureInit()
	return l.sentinel.next == &l.sentinel
}

// PushBack inserts n at the tail (the most-recently-active end), attaching
// owner so Front's caller can recover its connection record. If n is
// already in a list it is detached first, which is what "touching" a
// connection on every I/O event amounts to.
func (l *List) PushBack(n *Node, owner any) {
	l.ensureInit()
	if n.inList {
		n.detach()
	}
	n.owner = owner
	n.insertBefore(&l.sentinel)
}

// Remove detaches n from whatever list it is in. A no-op if n is not
// currently in any list.
func (l *List) Remove(n *Node) {
	if !n.inList {
		return
	}
	n.detach()
}

// Front returns the owner of the oldest (least recently touched) node, and
// its Node, or (nil, nil) if the list is empty.
func (l *List) Front() (any, *Node) {
	l.ensureInit()
	if l.Empty() {
		return nil, nil
	}
	n := l.sentinel.next
	return n.owner, n
}

func (n *Node) insertBefore(at *Node) {
	n.prev = at.prev
	n.next = at
	at.prev.next = n
	at.prev = n
	n.inList = true
}

func (n *Node) detach() {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
	n.owner = nil
	n.inList = false
}
