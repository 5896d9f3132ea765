/*
Package tree implements an all-purpose tree type backed by an arena.

Nodes are owned by a Tree and addressed by NodeIDs. A NodeID carries the
generation of the storage slot it was issued for: once a node is destroyed
its slot may be re-used, but the generation changes, so a stale NodeID held
elsewhere will fail lookup with ErrUnknownNode instead of aliasing new
content. Every Tree stamps its NodeIDs with a store-local tag, which lets
multiple independent trees (e.g., documents) live side by side.

The tree has a single owner. There is no internal locking; clients have to
make sure mutation and reading do not overlap (see package dom/ingest for a
phase discipline built on top of this).

Navigation functions:

   ParentOf(id)                  // parent or the nil NodeID
   ChildrenOf(id)                // copy of the ordered child list
   FirstChild / LastChild        // edges of the child list
   PrevSibling / NextSibling     // neighbours under the same parent
   Walk(id)                      // pre-order iterator over a subtree
   WalkFollowing(id)             // pre-order iterator in document order

Mutating functions:

   Create(payload)                   // new parentless node
   AppendChild / PrependChild        // move a node under a parent
   InsertBefore / InsertAfter        // move a node next to a sibling
   Detach(id)                        // unlink, keeping the subtree intact
   DestroySubtree(id)                // free a node and its descendants

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package tree

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'arbor.tree'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.tree")
}

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		msg = fmt.Sprintf("arbor.tree: "+msg, msgargs...)
		panic(msg)
	}
}
