/*
Package query implements read-phase consumers of document trees: CSS
selector queries and the extraction of stylesheets and inline styles.

Selectors are evaluated by cascadia
(https://godoc.org/github.com/andybalholm/cascadia), CSS is parsed by
douceur (https://github.com/aymerick/douceur). Both operate on the node
type of golang.org/x/net/html, so queries work on an html.Node mirror of the
document tree and map the results back to NodeIDs.

All functions of this package read the tree and must not run concurrently
with a mutation of it (see package ingest for the phase discipline).

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package query

import (
	"github.com/andybalholm/cascadia"
	"github.com/npillmayer/arbor/dom"
	"github.com/npillmayer/schuko/tracing"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// tracer traces with key 'arbor.query'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.query")
}

// ErrInvalidSelector is returned for selectors cascadia cannot compile.
var ErrInvalidSelector = errors.New("invalid CSS selector")

// Mirror is a golang.org/x/net/html copy of a document tree, remembering for
// every html.Node the NodeID it has been copied from. A mirror is a snapshot:
// it does not follow later mutations of the tree.
type Mirror struct {
	Root  *html.Node // mirror of the Document node
	nodes map[*html.Node]dom.NodeID
	ids   map[dom.NodeID]*html.Node
}

// NewMirror copies the attached part of a document tree.
func NewMirror(t *dom.Tree) (*Mirror, error) {
	m := &Mirror{
		nodes: make(map[*html.Node]dom.NodeID, t.Len()),
		ids:   make(map[dom.NodeID]*html.Node, t.Len()),
	}
	root, err := m.copy(t, t.Root())
	if err != nil {
		return nil, err
	}
	m.Root = root
	return m, nil
}

func (m *Mirror) copy(t *dom.Tree, id dom.NodeID) (*html.Node, error) {
	kind, err := t.Kind(id)
	if err != nil {
		return nil, err
	}
	n := &html.Node{Type: kind.HTMLNodeType()}
	switch kind {
	case dom.ElementKind:
		name, _ := t.TagName(id)
		n.Data, n.Namespace = name.Local, name.Space
		n.DataAtom = atom.Lookup([]byte(name.Local))
		n.Attr, _ = t.Attributes(id)
	case dom.TextKind, dom.CommentKind:
		n.Data, _ = t.Text(id)
	}
	m.nodes[n] = id
	m.ids[id] = n
	children, _ := t.ChildrenOf(id)
	for _, ch := range children {
		c, err := m.copy(t, ch)
		if err != nil {
			return nil, err
		}
		n.AppendChild(c)
	}
	return n, nil
}

// NodeID returns the id of the node n has been copied from.
func (m *Mirror) NodeID(n *html.Node) (dom.NodeID, bool) {
	id, ok := m.nodes[n]
	return id, ok
}

// HTMLNode returns the mirror of a node, or nil if id has not been copied.
func (m *Mirror) HTMLNode(id dom.NodeID) *html.Node {
	return m.ids[id]
}

// Select returns all elements in the subtree starting at from which match a
// CSS selector (or selector group), in document order. from itself is
// included. Selectors may refer to ancestors of from.
func Select(t *dom.Tree, from dom.NodeID, selector string) ([]dom.NodeID, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSelector, "%q: %v", selector, err)
	}
	m, err := NewMirror(t)
	if err != nil {
		return nil, err
	}
	return m.Select(from, sel)
}

// Select evaluates a compiled selector on the mirror of the subtree at from.
// If from is not attached to the document, ErrUnknownNode is returned.
func (m *Mirror) Select(from dom.NodeID, sel cascadia.Selector) ([]dom.NodeID, error) {
	n := m.ids[from]
	if n == nil {
		return nil, errors.Wrapf(dom.ErrUnknownNode, "node %s is not part of the document", from)
	}
	matches := sel.MatchAll(n)
	ids := make([]dom.NodeID, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, m.nodes[match])
	}
	tracer().Debugf("selector matched %d node(s) below %s", len(ids), from)
	return ids, nil
}
