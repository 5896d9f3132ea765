package tree

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrUnknownNode is returned if an operation references a NodeID which is not
// live in the tree: it has been destroyed, was issued by a different tree, or
// is the nil NodeID.
var ErrUnknownNode = errors.New("unknown node")

// ErrCycleDetected is returned if an operation would make a node a descendant
// of itself.
var ErrCycleDetected = errors.New("operation would create a cycle")

// ErrHierarchy is returned if an operation would move, unlink or destroy the
// root of the tree. Packages building on Tree use it for their own structural
// restrictions as well.
var ErrHierarchy = errors.New("hierarchy request error")

// ErrTreeMutated is set on an iterator when the tree has been changed after
// the iterator has been created.
var ErrTreeMutated = errors.New("tree mutated during traversal")

// storeTags hands out tags for trees. It identifies stores, not nodes:
// NodeIDs are allocated by each Tree on its own.
var storeTags uint32

// Tree is an arena of nodes carrying payloads of type T. A tree is created
// with a root node, which will never become a child of another node and will
// live as long as the tree.
//
// Tree is not safe for concurrent use.
type Tree[T any] struct {
	slots   []slot[T]
	free    []uint32 // indices of free slots
	live    int      // number of live nodes
	tag     uint32
	root    NodeID
	version uint64 // incremented with every structural mutation
}

// New creates a tree with a root node carrying rootPayload.
func New[T any](rootPayload T) *Tree[T] {
	t := &Tree[T]{tag: atomic.AddUint32(&storeTags, 1)}
	t.root = t.alloc(rootPayload)
	return t
}

// Root returns the id of the root node.
func (t *Tree[T]) Root() NodeID {
	return t.root
}

// Len returns the number of live nodes, attached or not.
func (t *Tree[T]) Len() int {
	return t.live
}

// Version returns a counter which changes with every structural mutation of
// the tree. Creating a parentless node is not a structural mutation.
func (t *Tree[T]) Version() uint64 {
	return t.version
}

// Contains is true if id references a live node of this tree.
func (t *Tree[T]) Contains(id NodeID) bool {
	_, err := t.lookup(id)
	return err == nil
}

// Nodes returns the ids of all live nodes, attached or detached, in no
// particular order.
func (t *Tree[T]) Nodes() []NodeID {
	ids := make([]NodeID, 0, t.live)
	for i := range t.slots {
		if s := &t.slots[i]; s.live {
			ids = append(ids, NodeID{index: uint32(i), gen: s.gen, tag: t.tag})
		}
	}
	return ids
}

func (t *Tree[T]) alloc(payload T) NodeID {
	var index uint32
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, slot[T]{})
		index = uint32(len(t.slots) - 1)
	}
	s := &t.slots[index]
	s.gen++
	if s.gen == 0 { // wrapped around, 0 is reserved for nil
		s.gen = 1
	}
	s.live = true
	s.node = node[T]{payload: payload}
	t.live++
	return NodeID{index: index, gen: s.gen, tag: t.tag}
}

func (t *Tree[T]) release(id NodeID) {
	s := &t.slots[id.index]
	var zero node[T]
	s.node = zero
	s.live = false
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	t.free = append(t.free, id.index)
	t.live--
}

func (t *Tree[T]) lookup(id NodeID) (*node[T], error) {
	if id.IsNil() || id.tag != t.tag || int(id.index) >= len(t.slots) {
		return nil, errors.Wrapf(ErrUnknownNode, "node %s", id)
	}
	s := &t.slots[id.index]
	if !s.live || s.gen != id.gen {
		return nil, errors.Wrapf(ErrUnknownNode, "node %s", id)
	}
	return &s.node, nil
}

// node returns a node which is known to be live.
func (t *Tree[T]) node(id NodeID) *node[T] {
	n, err := t.lookup(id)
	assertThat(err == nil, "internal reference to dead node %s", id)
	return n
}

// --- Read access -----------------------------------------------------------

// Payload returns the payload of a node.
func (t *Tree[T]) Payload(id NodeID) (T, error) {
	n, err := t.lookup(id)
	if err != nil {
		var zero T
		return zero, err
	}
	return n.payload, nil
}

// ParentOf returns the parent of a node, or the nil NodeID if the node is
// a root or detached.
func (t *Tree[T]) ParentOf(id NodeID) (NodeID, error) {
	n, err := t.lookup(id)
	if err != nil {
		return NodeID{}, err
	}
	return n.parent, nil
}

// ChildrenOf returns the children of a node in document order.
// The returned slice is a copy and may be modified by the caller.
func (t *Tree[T]) ChildrenOf(id NodeID) ([]NodeID, error) {
	n, err := t.lookup(id)
	if err != nil {
		return nil, err
	}
	children := make([]NodeID, len(n.children))
	copy(children, n.children)
	return children, nil
}

// ChildCount returns the number of children of a node.
func (t *Tree[T]) ChildCount(id NodeID) (int, error) {
	n, err := t.lookup(id)
	if err != nil {
		return 0, err
	}
	return len(n.children), nil
}

// FirstChild returns the first child of a node or the nil NodeID.
func (t *Tree[T]) FirstChild(id NodeID) (NodeID, error) {
	n, err := t.lookup(id)
	if err != nil || len(n.children) == 0 {
		return NodeID{}, err
	}
	return n.children[0], nil
}

// LastChild returns the last child of a node or the nil NodeID.
func (t *Tree[T]) LastChild(id NodeID) (NodeID, error) {
	n, err := t.lookup(id)
	if err != nil || len(n.children) == 0 {
		return NodeID{}, err
	}
	return n.children[len(n.children)-1], nil
}

// NextSibling returns the node following id under the same parent, or the
// nil NodeID.
func (t *Tree[T]) NextSibling(id NodeID) (NodeID, error) {
	return t.siblingOf(id, +1)
}

// PrevSibling returns the node preceding id under the same parent, or the
// nil NodeID.
func (t *Tree[T]) PrevSibling(id NodeID) (NodeID, error) {
	return t.siblingOf(id, -1)
}

func (t *Tree[T]) siblingOf(id NodeID, offset int) (NodeID, error) {
	n, err := t.lookup(id)
	if err != nil || n.parent.IsNil() {
		return NodeID{}, err
	}
	return t.node(n.parent).sibling(id, offset), nil
}

// IndexOf returns the position of child within the children of parent,
// or -1 if child is not a child of parent.
func (t *Tree[T]) IndexOf(parent, child NodeID) (int, error) {
	p, err := t.lookup(parent)
	if err != nil {
		return -1, err
	}
	return p.indexOf(child), nil
}

// IsAncestor is true if anc is a proper ancestor of id.
func (t *Tree[T]) IsAncestor(anc, id NodeID) bool {
	n, err := t.lookup(id)
	if err != nil {
		return false
	}
	for p := n.parent; !p.IsNil(); p = t.node(p).parent {
		if p == anc {
			return true
		}
	}
	return false
}

// --- Mutation --------------------------------------------------------------

// Create allocates a new, parentless node carrying payload.
func (t *Tree[T]) Create(payload T) NodeID {
	id := t.alloc(payload)
	tracer().Debugf("created node %s", id)
	return id
}

// AppendChild moves child to the end of parent's children. If child already
// has a parent, it is first detached from it.
func (t *Tree[T]) AppendChild(parent, child NodeID) error {
	if err := t.checkMove(parent, child); err != nil {
		return err
	}
	t.unlink(child)
	p := t.node(parent)
	t.link(parent, p, len(p.children), child)
	return nil
}

// PrependChild moves child to the front of parent's children. If child
// already has a parent, it is first detached from it.
func (t *Tree[T]) PrependChild(parent, child NodeID) error {
	if err := t.checkMove(parent, child); err != nil {
		return err
	}
	t.unlink(child)
	t.link(parent, t.node(parent), 0, child)
	return nil
}

// InsertBefore moves child in front of sibling, which has to be a child of
// parent. If sibling is not a child of parent, ErrUnknownNode is returned.
func (t *Tree[T]) InsertBefore(parent, sibling, child NodeID) error {
	return t.insertNextTo(parent, sibling, child, 0)
}

// InsertAfter moves child right after sibling, which has to be a child of
// parent. If sibling is not a child of parent, ErrUnknownNode is returned.
func (t *Tree[T]) InsertAfter(parent, sibling, child NodeID) error {
	return t.insertNextTo(parent, sibling, child, 1)
}

func (t *Tree[T]) insertNextTo(parent, sibling, child NodeID, offset int) error {
	if err := t.checkMove(parent, child); err != nil {
		return err
	}
	if _, err := t.lookup(sibling); err != nil {
		return err
	}
	if t.node(parent).indexOf(sibling) < 0 {
		return errors.Wrapf(ErrUnknownNode, "node %s is not a child of %s", sibling, parent)
	}
	if sibling == child {
		return nil
	}
	t.unlink(child)
	p := t.node(parent)
	t.link(parent, p, p.indexOf(sibling)+offset, child)
	return nil
}

// Detach removes child from its parent's children and clears its parent.
// The subtree below child is left untouched and may be re-attached later.
// Detaching a node without a parent is a no-op.
func (t *Tree[T]) Detach(child NodeID) error {
	if _, err := t.lookup(child); err != nil {
		return err
	}
	if child == t.root {
		return errors.Wrap(ErrHierarchy, "cannot detach root")
	}
	t.unlink(child)
	return nil
}

// DestroySubtree permanently frees root and all of its descendants. If root
// is attached, it is detached first. NodeIDs into the freed subtree become
// invalid.
func (t *Tree[T]) DestroySubtree(root NodeID) error {
	if _, err := t.lookup(root); err != nil {
		return err
	}
	if root == t.root {
		return errors.Wrap(ErrHierarchy, "cannot destroy root")
	}
	t.unlink(root)
	stack := []NodeID{root}
	count := 0
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = append(stack[:len(stack)-1], t.node(id).children...)
		t.release(id)
		count++
	}
	t.version++
	tracer().Debugf("destroyed subtree %s with %d node(s)", root, count)
	return nil
}

func (t *Tree[T]) checkMove(parent, child NodeID) error {
	if _, err := t.lookup(parent); err != nil {
		return err
	}
	if _, err := t.lookup(child); err != nil {
		return err
	}
	if child == t.root {
		return errors.Wrap(ErrHierarchy, "root cannot become a child")
	}
	if parent == child || t.IsAncestor(child, parent) {
		return errors.Wrapf(ErrCycleDetected, "%s is an ancestor of %s", child, parent)
	}
	return nil
}

// unlink removes a node from its parent, if any.
func (t *Tree[T]) unlink(child NodeID) {
	c := t.node(child)
	if c.parent.IsNil() {
		return
	}
	p := t.node(c.parent)
	i := p.indexOf(child)
	assertThat(i >= 0, "node %s missing from children of its parent %s", child, c.parent)
	p.removeChildAt(i)
	tracer().Debugf("unlinked %s from %s", child, c.parent)
	c.parent = NodeID{}
	t.version++
}

func (t *Tree[T]) link(parent NodeID, p *node[T], position int, child NodeID) {
	p.insertChildAt(position, child)
	t.node(child).parent = parent
	t.version++
	tracer().Debugf("linked %s into %s at position %d", child, parent, position)
}
