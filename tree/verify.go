package tree

import (
	"github.com/pkg/errors"
)

// ErrCorrupted is returned by Verify if the tree's structural invariants
// do not hold.
var ErrCorrupted = errors.New("tree structure corrupted")

// Verify checks the structural invariants of the tree:
//
//   - the root is live and never a child
//   - child ∈ parent.children ⟺ child.parent == parent, with every child
//     appearing in its parent's children exactly once
//   - there are no cycles
//
// Verify is O(n·depth) and intended for tests and debugging.
func (t *Tree[T]) Verify() error {
	r, err := t.lookup(t.root)
	if err != nil {
		return errors.Wrap(ErrCorrupted, "root is not live")
	}
	if !r.parent.IsNil() {
		return errors.Wrapf(ErrCorrupted, "root has parent %s", r.parent)
	}
	live := 0
	for i := range t.slots {
		s := &t.slots[i]
		if !s.live {
			continue
		}
		live++
		id := NodeID{index: uint32(i), gen: s.gen, tag: t.tag}
		if err := t.verifyNode(id, &s.node); err != nil {
			return err
		}
	}
	if live != t.live {
		return errors.Wrapf(ErrCorrupted, "live count is %d, found %d live nodes", t.live, live)
	}
	return nil
}

func (t *Tree[T]) verifyNode(id NodeID, n *node[T]) error {
	if !n.parent.IsNil() {
		p, err := t.lookup(n.parent)
		if err != nil {
			return errors.Wrapf(ErrCorrupted, "node %s has dead parent %s", id, n.parent)
		}
		count := 0
		for _, c := range p.children {
			if c == id {
				count++
			}
		}
		if count != 1 {
			return errors.Wrapf(ErrCorrupted, "node %s appears %d times in children of %s", id, count, n.parent)
		}
	}
	for _, c := range n.children {
		ch, err := t.lookup(c)
		if err != nil {
			return errors.Wrapf(ErrCorrupted, "node %s has dead child %s", id, c)
		}
		if ch.parent != id {
			return errors.Wrapf(ErrCorrupted, "child %s of %s points to parent %s", c, id, ch.parent)
		}
	}
	steps := 0
	for p := n.parent; !p.IsNil(); steps++ {
		if p == id || steps > t.live {
			return errors.Wrapf(ErrCorrupted, "node %s is part of a cycle", id)
		}
		pn, err := t.lookup(p)
		if err != nil {
			return errors.Wrapf(ErrCorrupted, "node %s has dead ancestor %s", id, p)
		}
		p = pn.parent
	}
	return nil
}
