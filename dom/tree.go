package dom

import (
	"github.com/hashicorp/go-multierror"
	"github.com/npillmayer/arbor/tree"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

// Tree is a document tree, i.e. the node store of a single document.
//
// Tree is not safe for concurrent use. Its owner may mutate it; everybody
// else should hold NodeIDs only and read the tree outside of mutation phases.
type Tree struct {
	store       *tree.Tree[*nodeData]
	quirks      QuirksMode
	line        uint64
	doctype     *Doctype
	incomplete  *multierror.Error // unsupported operations encountered while building
	parseErrors []string
}

// NewTree creates a document tree consisting of just the Document node.
func NewTree() *Tree {
	return &Tree{
		store: tree.New(&nodeData{kind: DocumentKind}),
	}
}

// Root returns the Document node.
func (t *Tree) Root() NodeID {
	return t.store.Root()
}

// Len returns the number of live nodes, including detached ones.
func (t *Tree) Len() int {
	return t.store.Len()
}

// Version returns a counter which changes with every structural mutation.
func (t *Tree) Version() uint64 {
	return t.store.Version()
}

// Contains is true if id references a live node of this tree.
func (t *Tree) Contains(id NodeID) bool {
	return t.store.Contains(id)
}

func (t *Tree) data(id NodeID) (*nodeData, error) {
	return t.store.Payload(id)
}

// --- Node properties -------------------------------------------------------

// Kind returns the kind of a node.
func (t *Tree) Kind(id NodeID) (Kind, error) {
	nd, err := t.data(id)
	if err != nil {
		return NoKind, err
	}
	return nd.kind, nil
}

// IsText is true if id is a live Text node.
func (t *Tree) IsText(id NodeID) bool {
	nd, err := t.data(id)
	return err == nil && nd.kind == TextKind
}

// TagName returns the qualified name of an element. For other kinds of nodes
// the name is empty.
func (t *Tree) TagName(id NodeID) (QualName, error) {
	nd, err := t.data(id)
	if err != nil {
		return QualName{}, err
	}
	return nd.name, nil
}

// Text returns the contents of a Text or Comment node. For other kinds of
// nodes the text is empty.
func (t *Tree) Text(id NodeID) (string, error) {
	nd, err := t.data(id)
	if err != nil {
		return "", err
	}
	return nd.text, nil
}

// Attributes returns a copy of the attributes of an element, in order.
func (t *Tree) Attributes(id NodeID) ([]html.Attribute, error) {
	nd, err := t.data(id)
	if err != nil {
		return nil, err
	}
	if len(nd.attrs) == 0 {
		return nil, nil
	}
	attrs := make([]html.Attribute, len(nd.attrs))
	copy(attrs, nd.attrs)
	return attrs, nil
}

// Attribute returns the value of an attribute without namespace.
func (t *Tree) Attribute(id NodeID, key string) (string, bool) {
	nd, err := t.data(id)
	if err != nil {
		return "", false
	}
	if i := nd.attrIndex("", key); i >= 0 {
		return nd.attrs[i].Val, true
	}
	return "", false
}

// ScriptStarted reports whether the tree-construction algorithm has marked a
// script element as already started.
func (t *Tree) ScriptStarted(id NodeID) (bool, error) {
	nd, err := t.data(id)
	if err != nil {
		return false, err
	}
	return nd.scriptStarted, nil
}

// --- Navigation ------------------------------------------------------------

// ParentOf returns the parent of a node, or the nil NodeID.
func (t *Tree) ParentOf(id NodeID) (NodeID, error) {
	return t.store.ParentOf(id)
}

// ChildrenOf returns a copy of the children of a node, in document order.
func (t *Tree) ChildrenOf(id NodeID) ([]NodeID, error) {
	return t.store.ChildrenOf(id)
}

// FirstChild returns the first child of a node, or the nil NodeID.
func (t *Tree) FirstChild(id NodeID) (NodeID, error) {
	return t.store.FirstChild(id)
}

// LastChild returns the last child of a node, or the nil NodeID.
func (t *Tree) LastChild(id NodeID) (NodeID, error) {
	return t.store.LastChild(id)
}

// NextSibling returns the following sibling of a node, or the nil NodeID.
func (t *Tree) NextSibling(id NodeID) (NodeID, error) {
	return t.store.NextSibling(id)
}

// PrevSibling returns the preceding sibling of a node, or the nil NodeID.
func (t *Tree) PrevSibling(id NodeID) (NodeID, error) {
	return t.store.PrevSibling(id)
}

// --- Document metadata -----------------------------------------------------

// QuirksMode returns the quirks mode set by the tree-construction algorithm.
func (t *Tree) QuirksMode() QuirksMode {
	return t.quirks
}

// SetQuirksMode records the quirks mode of the document.
func (t *Tree) SetQuirksMode(mode QuirksMode) {
	tracer().Debugf("quirks mode set to %s", mode)
	t.quirks = mode
}

// CurrentLine returns the last source line reported by the producer.
func (t *Tree) CurrentLine() uint64 {
	return t.line
}

// SetCurrentLine records the current source line.
func (t *Tree) SetCurrentLine(line uint64) {
	t.line = line
}

// Doctype returns the document type declaration, if one has been recorded.
func (t *Tree) Doctype() (Doctype, bool) {
	if t.doctype == nil {
		return Doctype{}, false
	}
	return *t.doctype, true
}

// SetDoctype records the document type declaration. Doctypes are metadata
// only; they do not appear as nodes of the tree.
func (t *Tree) SetDoctype(dt Doctype) {
	tracer().Debugf("doctype set to %q", dt.Name)
	t.doctype = &dt
}

// MarkIncomplete flags the document as incomplete, recording err as the
// reason. It is used for operations of the tree-construction protocol which
// are not supported.
func (t *Tree) MarkIncomplete(err error) {
	tracer().Infof("document incomplete: %v", err)
	t.incomplete = multierror.Append(t.incomplete, err)
}

// Incomplete returns all the reasons for which the document has been flagged
// incomplete, or nil.
func (t *Tree) Incomplete() error {
	return t.incomplete.ErrorOrNil()
}

// IsIncomplete is true if the document has been flagged incomplete.
func (t *Tree) IsIncomplete() bool {
	return t.incomplete != nil && len(t.incomplete.Errors) > 0
}

// AddParseError records a parse error reported by the producer. Parse errors
// are diagnostics and do not make a document incomplete.
func (t *Tree) AddParseError(msg string) {
	t.parseErrors = append(t.parseErrors, msg)
}

// ParseErrors returns the parse errors reported so far.
func (t *Tree) ParseErrors() []string {
	return t.parseErrors
}

// --- Consistency -----------------------------------------------------------

// Verify checks the invariants of the document tree: the structural ones of
// the underlying tree, exactly one Document node, no children below Text or
// Comment nodes, and no adjacent Text siblings.
func (t *Tree) Verify() error {
	if err := t.store.Verify(); err != nil {
		return err
	}
	docs := 0
	for _, id := range t.store.Nodes() {
		nd, _ := t.data(id)
		if nd.kind == DocumentKind {
			docs++
		}
		children, _ := t.store.ChildrenOf(id)
		if len(children) > 0 && !nd.isContainer() {
			return errors.Wrapf(tree.ErrCorrupted, "%s node %s has children", nd.kind, id)
		}
		for i := 1; i < len(children); i++ {
			if t.IsText(children[i-1]) && t.IsText(children[i]) {
				return errors.Wrapf(tree.ErrCorrupted, "adjacent text nodes %s and %s", children[i-1], children[i])
			}
		}
	}
	if docs != 1 {
		return errors.Wrapf(tree.ErrCorrupted, "found %d document nodes", docs)
	}
	return nil
}
