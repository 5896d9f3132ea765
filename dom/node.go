package dom

import (
	"fmt"

	"github.com/npillmayer/arbor/tree"
	"golang.org/x/net/html"
)

// NodeID identifies a node of a document tree. The zero value references no
// node.
type NodeID = tree.NodeID

// Kind is the type of a document node.
type Kind uint8

// Kinds of document nodes.
const (
	NoKind Kind = iota
	DocumentKind
	ElementKind
	CommentKind
	TextKind
)

func (k Kind) String() string {
	switch k {
	case DocumentKind:
		return "document"
	case ElementKind:
		return "element"
	case CommentKind:
		return "comment"
	case TextKind:
		return "text"
	}
	return "<none>"
}

// HTMLNodeType maps a kind to the corresponding node type of
// golang.org/x/net/html.
func (k Kind) HTMLNodeType() html.NodeType {
	switch k {
	case DocumentKind:
		return html.DocumentNode
	case ElementKind:
		return html.ElementNode
	case CommentKind:
		return html.CommentNode
	case TextKind:
		return html.TextNode
	}
	return html.ErrorNode
}

// QualName is the qualified name of an element. Space is empty for elements
// in the HTML namespace, "svg" or "math" for foreign elements (following the
// conventions of golang.org/x/net/html).
type QualName struct {
	Space string
	Local string
}

// Name creates a qualified name for an element in the HTML namespace.
func Name(local string) QualName {
	return QualName{Local: local}
}

func (n QualName) String() string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// Doctype is the document type declaration of a document.
type Doctype struct {
	Name     string
	PublicID string
	SystemID string
}

// QuirksMode is the rendering compatibility mode determined by the
// tree-construction algorithm.
type QuirksMode uint8

// Quirks modes as defined by the HTML standard.
const (
	NoQuirks QuirksMode = iota
	LimitedQuirks
	Quirks
)

func (m QuirksMode) String() string {
	switch m {
	case LimitedQuirks:
		return "limited-quirks"
	case Quirks:
		return "quirks"
	}
	return "no-quirks"
}

// nodeData is the payload of a document node.
type nodeData struct {
	kind          Kind
	name          QualName         // elements only
	attrs         []html.Attribute // elements only, duplicate-free, in order of arrival
	text          string           // text and comment contents
	scriptStarted bool             // script element already started
}

func (nd *nodeData) String() string {
	switch nd.kind {
	case ElementKind:
		return fmt.Sprintf("<%s>", nd.name)
	case TextKind:
		return fmt.Sprintf("%q", nd.text)
	case CommentKind:
		return fmt.Sprintf("<!--%s-->", nd.text)
	}
	return "#document"
}

func (nd *nodeData) isContainer() bool {
	return nd.kind == DocumentKind || nd.kind == ElementKind
}

// attrIndex returns the position of an attribute with the given namespace
// and key, or -1.
func (nd *nodeData) attrIndex(namespace, key string) int {
	for i, a := range nd.attrs {
		if a.Namespace == namespace && a.Key == key {
			return i
		}
	}
	return -1
}

// addAttrsIfMissing appends every attribute not already present. For
// duplicates within attrs, the first one wins.
func (nd *nodeData) addAttrsIfMissing(attrs []html.Attribute) int {
	added := 0
	for _, a := range attrs {
		if nd.attrIndex(a.Namespace, a.Key) < 0 {
			nd.attrs = append(nd.attrs, a)
			added++
		}
	}
	return added
}
