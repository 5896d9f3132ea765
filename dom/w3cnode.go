package dom

import (
	"fmt"
	"strings"

	"github.com/npillmayer/arbor/dom/w3cdom"
	"golang.org/x/net/html"
)

// W3CNode is a read-only view of a node of a document tree, implementing
// w3cdom.Node. W3CNodes are cheap values and are created on demand; they
// are valid for as long as the underlying node is live.
type W3CNode struct {
	t  *Tree
	id NodeID
}

var _ w3cdom.Node = &W3CNode{}

// NodeFor returns a W3C view of a node, or nil if id does not reference a
// live node of t.
func (t *Tree) NodeFor(id NodeID) *W3CNode {
	if !t.Contains(id) {
		return nil
	}
	return &W3CNode{t: t, id: id}
}

// Document returns a W3C view of the Document node.
func (t *Tree) Document() *W3CNode {
	return t.NodeFor(t.Root())
}

// ID returns the NodeID of the underlying node.
func (w *W3CNode) ID() NodeID {
	return w.id
}

// Tree returns the document tree the node belongs to.
func (w *W3CNode) Tree() *Tree {
	return w.t
}

func (w *W3CNode) data() *nodeData {
	nd, err := w.t.data(w.id)
	if err != nil {
		tracer().Errorf("W3C view of dead node %s", w.id)
		return &nodeData{}
	}
	return nd
}

// wrap avoids returning a typed nil as a w3cdom.Node.
func (w *W3CNode) wrap(id NodeID) w3cdom.Node {
	if n := w.t.NodeFor(id); n != nil {
		return n
	}
	return nil
}

// NodeType is part of interface w3cdom.Node.
func (w *W3CNode) NodeType() html.NodeType {
	return w.data().kind.HTMLNodeType()
}

// NodeName is part of interface w3cdom.Node.
func (w *W3CNode) NodeName() string {
	nd := w.data()
	switch nd.kind {
	case ElementKind:
		return nd.name.Local
	case TextKind:
		return "#text"
	case CommentKind:
		return "#comment"
	case DocumentKind:
		return "#document"
	}
	return ""
}

// NodeValue is part of interface w3cdom.Node.
func (w *W3CNode) NodeValue() string {
	nd := w.data()
	if nd.kind == TextKind || nd.kind == CommentKind {
		return nd.text
	}
	return ""
}

// HasAttributes is part of interface w3cdom.Node.
func (w *W3CNode) HasAttributes() bool {
	return len(w.data().attrs) > 0
}

// ParentNode is part of interface w3cdom.Node.
func (w *W3CNode) ParentNode() w3cdom.Node {
	p, _ := w.t.ParentOf(w.id)
	return w.wrap(p)
}

// HasChildNodes is part of interface w3cdom.Node.
func (w *W3CNode) HasChildNodes() bool {
	n, _ := w.t.store.ChildCount(w.id)
	return n > 0
}

// ChildNodes is part of interface w3cdom.Node.
func (w *W3CNode) ChildNodes() w3cdom.NodeList {
	children, _ := w.t.ChildrenOf(w.id)
	return &nodeList{t: w.t, ids: children}
}

// Children is part of interface w3cdom.Node. It returns element children
// only.
func (w *W3CNode) Children() w3cdom.NodeList {
	children, _ := w.t.ChildrenOf(w.id)
	elems := children[:0]
	for _, ch := range children {
		if k, _ := w.t.Kind(ch); k == ElementKind {
			elems = append(elems, ch)
		}
	}
	return &nodeList{t: w.t, ids: elems}
}

// FirstChild is part of interface w3cdom.Node.
func (w *W3CNode) FirstChild() w3cdom.Node {
	ch, _ := w.t.FirstChild(w.id)
	return w.wrap(ch)
}

// NextSibling is part of interface w3cdom.Node.
func (w *W3CNode) NextSibling() w3cdom.Node {
	s, _ := w.t.NextSibling(w.id)
	return w.wrap(s)
}

// Attributes is part of interface w3cdom.Node.
func (w *W3CNode) Attributes() w3cdom.NamedNodeMap {
	return attrMap(w.data().attrs)
}

// TextContent is part of interface w3cdom.Node.
func (w *W3CNode) TextContent() (string, error) {
	return w.t.TextContent(w.id)
}

func (w *W3CNode) String() string {
	return fmt.Sprintf("%s%s", w.data(), w.id)
}

// --- Node lists ------------------------------------------------------------

type nodeList struct {
	t   *Tree
	ids []NodeID
}

var _ w3cdom.NodeList = &nodeList{}

func (nl *nodeList) Length() int {
	return len(nl.ids)
}

func (nl *nodeList) Item(i int) w3cdom.Node {
	if i < 0 || i >= len(nl.ids) {
		return nil
	}
	if n := nl.t.NodeFor(nl.ids[i]); n != nil {
		return n
	}
	return nil
}

func (nl *nodeList) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, id := range nl.ids {
		if i > 0 {
			b.WriteByte(' ')
		}
		if n := nl.t.NodeFor(id); n != nil {
			b.WriteString(n.NodeName())
		}
	}
	b.WriteByte(']')
	return b.String()
}

// --- Attributes ------------------------------------------------------------

type attr struct {
	a html.Attribute
}

func (a attr) Namespace() string { return a.a.Namespace }
func (a attr) Key() string       { return a.a.Key }
func (a attr) Value() string     { return a.a.Val }

type attrMap []html.Attribute

var _ w3cdom.NamedNodeMap = attrMap(nil)

func (m attrMap) Length() int {
	return len(m)
}

func (m attrMap) Item(i int) w3cdom.Attr {
	if i < 0 || i >= len(m) {
		return nil
	}
	return attr{m[i]}
}

func (m attrMap) GetNamedItem(key string) w3cdom.Attr {
	for _, a := range m {
		if a.Key == key {
			return attr{a}
		}
	}
	return nil
}
