package tree

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import "github.com/pkg/errors"

// Iterator produces a pre-order, depth-first sequence of nodes: visit a node,
// descend into its first child, else advance to the next sibling, else climb
// up to the nearest ancestor with a next sibling.
//
// Iterators are neither restartable nor resilient against mutation. If the
// tree changes while an iterator is in flight, the iterator stops and Err
// returns ErrTreeMutated; clients have to discard it and create a new one.
//
// A typical usage of an Iterator looks like this:
//
//    it := tree.Walk(node)
//    for id, ok := it.Next(); ok; id, ok = it.Next() {
//        ...
//    }
//    if err := it.Err(); err != nil {
//        ...
//    }
//
type Iterator[T any] struct {
	tree    *Tree[T]
	start   NodeID
	next    NodeID // node to yield next, nil if exhausted
	bounded bool   // stay within the subtree of start
	version uint64 // tree version at creation time
	budget  int    // upper bound for number of nodes to yield
	err     error
}

// Walk creates an iterator over the subtree starting at (and including)
// start.
func (t *Tree[T]) Walk(start NodeID) *Iterator[T] {
	return t.newIterator(start, true)
}

// WalkFollowing creates an iterator starting at start and continuing in
// document order past the subtree of start, until the end of the tree start
// belongs to.
func (t *Tree[T]) WalkFollowing(start NodeID) *Iterator[T] {
	return t.newIterator(start, false)
}

func (t *Tree[T]) newIterator(start NodeID, bounded bool) *Iterator[T] {
	it := &Iterator[T]{
		tree:    t,
		start:   start,
		next:    start,
		bounded: bounded,
		version: t.version,
		budget:  t.live,
	}
	if _, err := t.lookup(start); err != nil {
		it.err = err
		it.next = NodeID{}
	}
	return it
}

// Next returns the next node of the sequence. If the sequence is exhausted,
// or the iterator has become invalid, Next returns false.
func (it *Iterator[T]) Next() (NodeID, bool) {
	if it.err != nil || it.next.IsNil() {
		return NodeID{}, false
	}
	if it.tree.version != it.version {
		tracer().Errorf("tree mutated during traversal from %s", it.start)
		it.err = ErrTreeMutated
		it.next = NodeID{}
		return NodeID{}, false
	}
	if it.budget == 0 {
		it.next = NodeID{}
		return NodeID{}, false
	}
	current := it.next
	it.next = it.successor(current)
	it.budget--
	return current, true
}

// Err returns the error which made the iterator stop, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

func (it *Iterator[T]) successor(id NodeID) NodeID {
	t := it.tree
	if n := t.node(id); len(n.children) > 0 {
		return n.children[0]
	}
	for x := id; ; {
		if it.bounded && x == it.start {
			return NodeID{}
		}
		n := t.node(x)
		if n.parent.IsNil() {
			return NodeID{}
		}
		if sibling := t.node(n.parent).sibling(x, +1); !sibling.IsNil() {
			return sibling
		}
		x = n.parent
	}
}

// Collect drains the iterator and returns every node matching predicate.
func (it *Iterator[T]) Collect(predicate Predicate[T]) ([]NodeID, error) {
	if predicate == nil {
		return nil, ErrInvalidPredicate
	}
	var selection []NodeID
	for id, ok := it.Next(); ok; id, ok = it.Next() {
		match, err := predicate(it.tree, id)
		if err != nil {
			return selection, err
		}
		if match {
			selection = append(selection, id)
		}
	}
	return selection, it.Err()
}

// ----------------------------------------------------------------------

// ErrInvalidPredicate is returned if Collect is called with a nil predicate.
var ErrInvalidPredicate = errors.New("predicate is invalid")

// Predicate is a function type to match against nodes of a tree.
// It is used as an argument for Collect.
type Predicate[T any] func(t *Tree[T], id NodeID) (bool, error)

// Whatever is a predicate to match anything (see type Predicate).
// It is useful to collect a whole subtree.
func Whatever[T any]() Predicate[T] {
	return func(*Tree[T], NodeID) (bool, error) {
		return true, nil
	}
}

// NodeIsLeaf is a predicate to match leafs of a tree.
func NodeIsLeaf[T any]() Predicate[T] {
	return func(t *Tree[T], id NodeID) (bool, error) {
		n, err := t.ChildCount(id)
		return n == 0, err
	}
}
