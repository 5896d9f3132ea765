/*
Package dom implements the document model of arbor: an HTML document tree
which is built incrementally from the structural operations of an HTML
tree-construction algorithm and read by layout and other consumers.

Status

Early draft—API may change frequently. Please stay patient.

Overview

A Tree owns all nodes of a document. Nodes are one of four kinds: the single
Document node (the root, created with the tree and never removed), Elements
(qualified tag name plus an ordered, duplicate-free list of attributes),
Comments and Texts. Nodes are addressed by NodeIDs, which are
generation-checked: an id of a destroyed node fails with ErrUnknownNode and
never aliases a newer node.

Every mutation preserves the structural invariants of the tree: parent and
child links are consistent in both directions, there are no cycles, and no
two Text nodes are adjacent siblings. Whenever an operation makes two Text
nodes adjacent, the earlier one (in document order) keeps its identity and
absorbs the text of the later one, which is destroyed.

Tree Implementation

Styling and layout of HTML/CSS involves a lot of operations on different trees.
We implement the document tree on top of a general purpose tree type
(package tree), which offers an arena of nodes with stable identities.
In Go we resort to composition: the dom package adds node kinds, names,
attributes and text coalescing as the payload and policy of a generic tree.

Reading and Writing

A Tree has a single owner which is allowed to mutate it. Readers (iterators,
lookups, layout) must not run concurrently with mutation; package
dom/ingest implements the phase discipline for documents which are loaded
in the background.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package dom

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer will return a tracer. We are tracing to 'arbor.dom'
func tracer() tracing.Trace {
	return tracing.Select("arbor.dom")
}
