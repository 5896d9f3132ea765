package dom

import (
	"github.com/npillmayer/arbor/tree"
)

// Iterator walks the nodes of a document tree in document order (pre-order,
// depth-first). It wraps a tree.Iterator and shares its restrictions: it
// stops with ErrTreeMutated as soon as the tree is changed.
type Iterator struct {
	t  *Tree
	it *tree.Iterator[*nodeData]
}

// Walk creates an iterator over the subtree starting at (and including)
// start. If start is not a live node, the iterator is empty and its Err
// returns ErrUnknownNode.
func (t *Tree) Walk(start NodeID) *Iterator {
	return &Iterator{t: t, it: t.store.Walk(start)}
}

// WalkFollowing creates an iterator starting at start which continues in
// document order after the subtree of start has been exhausted.
func (t *Tree) WalkFollowing(start NodeID) *Iterator {
	return &Iterator{t: t, it: t.store.WalkFollowing(start)}
}

// Next returns the next node in document order.
func (it *Iterator) Next() (NodeID, bool) {
	return it.it.Next()
}

// Err returns the error which made the iterator stop, if any.
func (it *Iterator) Err() error {
	return it.it.Err()
}

// Collect drains the iterator and returns every node matching predicate.
func (it *Iterator) Collect(predicate Predicate) ([]NodeID, error) {
	if predicate == nil {
		return nil, tree.ErrInvalidPredicate
	}
	var selection []NodeID
	for id, ok := it.Next(); ok; id, ok = it.Next() {
		match, err := predicate(it.t, id)
		if err != nil {
			return selection, err
		}
		if match {
			selection = append(selection, id)
		}
	}
	return selection, it.Err()
}

// Predicate is a function type to match against nodes of a document tree.
type Predicate func(t *Tree, id NodeID) (bool, error)

// NodeIsText is a predicate to match text-nodes of a DOM.
var NodeIsText Predicate = func(t *Tree, id NodeID) (bool, error) {
	k, err := t.Kind(id)
	return k == TextKind, err
}

// NodeIsElement returns a predicate to match HTML elements with a given
// local name. An empty name matches every element.
func NodeIsElement(local string) Predicate {
	return func(t *Tree, id NodeID) (bool, error) {
		nd, err := t.data(id)
		if err != nil || nd.kind != ElementKind {
			return false, err
		}
		return local == "" || nd.name.Local == local, nil
	}
}
