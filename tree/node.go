package tree

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
)

// NodeID is an opaque, generation-checked handle to a node of a Tree.
// NodeIDs are small values and may be freely copied and shared; only the
// owner of the tree may use them for mutation.
//
// The zero value references no node (see IsNil).
type NodeID struct {
	index uint32 // slot in the arena
	gen   uint32 // generation of the slot at the time of issuing, never 0 for live ids
	tag   uint32 // tag of the issuing tree
}

// IsNil is true for the zero NodeID, which is used to express "no node",
// e.g. as the parent of a root node.
func (id NodeID) IsNil() bool {
	return id.gen == 0
}

func (id NodeID) String() string {
	if id.IsNil() {
		return "#nil"
	}
	return fmt.Sprintf("#%d.%d", id.index, id.gen)
}

// node is the base type our tree is built of.
type node[T any] struct {
	parent   NodeID   // parent node of this node, nil for roots
	children []NodeID // children in document order
	payload  T        // nodes may carry a payload of arbitrary type
}

// slot is an arena cell. gen is bumped every time the cell is freed.
type slot[T any] struct {
	node node[T]
	gen  uint32
	live bool
}

// --- Children lists --------------------------------------------------------

// indexOf returns the position of a child within the list of children,
// or -1.
func (n *node[T]) indexOf(ch NodeID) int {
	for i, c := range n.children {
		if c == ch {
			return i
		}
	}
	return -1
}

func (n *node[T]) insertChildAt(i int, ch NodeID) {
	assertThat(i >= 0 && i <= len(n.children), "child position %d out of range", i)
	if i == len(n.children) {
		n.children = append(n.children, ch)
		return
	}
	n.children = append(n.children, NodeID{}) // make room for one child
	copy(n.children[i+1:], n.children[i:])     // shift i+1..n
	n.children[i] = ch
}

func (n *node[T]) removeChildAt(i int) {
	copy(n.children[i:], n.children[i+1:])
	n.children[len(n.children)-1] = NodeID{}
	n.children = n.children[:len(n.children)-1]
}

func (n *node[T]) sibling(ch NodeID, offset int) NodeID {
	i := n.indexOf(ch)
	assertThat(i >= 0, "node %s is not a child of its parent", ch)
	if j := i + offset; j >= 0 && j < len(n.children) {
		return n.children[j]
	}
	return NodeID{}
}
