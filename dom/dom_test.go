package dom

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// minimal builds <html><head></head><body>Hi</body></html> through the
// public API, the same way the tree-construction algorithm would.
func minimal(t *testing.T) (*Tree, NodeID, NodeID, NodeID) {
	doc := NewTree()
	htm := doc.CreateElement(Name("html"), nil)
	head := doc.CreateElement(Name("head"), nil)
	body := doc.CreateElement(Name("body"), nil)
	require.NoError(t, doc.AppendChild(doc.Root(), htm))
	require.NoError(t, doc.AppendChild(htm, head))
	require.NoError(t, doc.AppendChild(htm, body))
	_, err := doc.AppendText(body, "Hi")
	require.NoError(t, err)
	return doc, htm, head, body
}

func TestMinimalDocument(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.dom")
	defer teardown()
	//
	doc, htm, head, body := minimal(t)
	assert.Equal(t, htm, doc.DocumentElement())
	assert.Equal(t, head, doc.Head())
	assert.Equal(t, body, doc.Body())
	children, _ := doc.ChildrenOf(htm)
	assert.Equal(t, []NodeID{head, body}, children)
	children, _ = doc.ChildrenOf(body)
	require.Len(t, children, 1)
	assert.True(t, doc.IsText(children[0]))
	text, _ := doc.Text(children[0])
	assert.Equal(t, "Hi", text)
	assert.NoError(t, doc.Verify())
}

func TestFindChildByTagIsNotDeep(t *testing.T) {
	doc, _, _, _ := minimal(t)
	id, err := doc.FindChildByTag(doc.Root(), "body")
	assert.NoError(t, err)
	assert.True(t, id.IsNil(), "body is not a direct child of the document")
	_, err = doc.FindChildByTag(NodeID{}, "body")
	assert.True(t, errors.Is(err, ErrUnknownNode))
	empty := NewTree()
	assert.True(t, empty.Body().IsNil())
}

func TestFindChildByTagForeign(t *testing.T) {
	doc := NewTree()
	svg := doc.CreateElement(QualName{Space: "svg", Local: "svg"}, nil)
	title := doc.CreateElement(QualName{Space: "svg", Local: "title"}, nil)
	require.NoError(t, doc.AppendChild(doc.Root(), svg))
	require.NoError(t, doc.AppendChild(svg, title))
	id, err := doc.FindChildByTag(svg, "title")
	require.NoError(t, err)
	assert.Equal(t, title, id)
	// a foreign element named html is not the document element
	foreign := doc.CreateElement(QualName{Space: "svg", Local: "html"}, nil)
	require.NoError(t, doc.PrependChild(doc.Root(), foreign))
	id, _ = doc.FindChildByTag(doc.Root(), "html")
	assert.Equal(t, foreign, id)
	assert.True(t, doc.DocumentElement().IsNil())
}

func TestAppendTextCoalesces(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.dom")
	defer teardown()
	//
	doc := NewTree()
	p := doc.CreateElement(Name("p"), nil)
	require.NoError(t, doc.AppendChild(doc.Root(), p))
	first, err := doc.AppendText(p, "Hello")
	require.NoError(t, err)
	second, err := doc.AppendText(p, " World")
	require.NoError(t, err)
	assert.Equal(t, first, second, "text must be merged into the first node")
	children, _ := doc.ChildrenOf(p)
	require.Len(t, children, 1)
	text, _ := doc.Text(first)
	assert.Equal(t, "Hello World", text)
}

func TestInsertedTextCoalesces(t *testing.T) {
	doc := NewTree()
	p := doc.CreateElement(Name("p"), nil)
	require.NoError(t, doc.AppendChild(doc.Root(), p))
	a := doc.CreateText("a")
	b := doc.CreateText("b")
	c := doc.CreateText("c")
	require.NoError(t, doc.AppendChild(p, a))
	require.NoError(t, doc.AppendChild(p, c))
	assert.False(t, doc.Contains(c), "later text node must be destroyed")
	// b goes in front of a: a is later in document order and merged into b
	require.NoError(t, doc.PrependChild(p, b))
	assert.False(t, doc.Contains(a))
	text, _ := doc.Text(b)
	assert.Equal(t, "bac", text)
	assert.NoError(t, doc.Verify())
}

func TestDetachClosesTextGap(t *testing.T) {
	doc := NewTree()
	p := doc.CreateElement(Name("p"), nil)
	require.NoError(t, doc.AppendChild(doc.Root(), p))
	left, _ := doc.AppendText(p, "left ")
	em := doc.CreateElement(Name("em"), nil)
	require.NoError(t, doc.AppendChild(p, em))
	right, _ := doc.AppendText(p, "right")
	require.NoError(t, doc.Detach(em))
	assert.False(t, doc.Contains(right))
	text, _ := doc.Text(left)
	assert.Equal(t, "left right", text)
	assert.True(t, doc.Contains(em), "detached node stays alive")
	assert.NoError(t, doc.Verify())
}

func TestInsertTextBefore(t *testing.T) {
	doc := NewTree()
	p := doc.CreateElement(Name("p"), nil)
	require.NoError(t, doc.AppendChild(doc.Root(), p))
	br := doc.CreateElement(Name("br"), nil)
	require.NoError(t, doc.AppendChild(p, br))
	tail, _ := doc.AppendText(p, "!")
	id, err := doc.InsertTextBefore(p, br, "x")
	require.NoError(t, err)
	again, err := doc.InsertTextBefore(p, br, "y")
	require.NoError(t, err)
	assert.Equal(t, id, again)
	text, _ := doc.Text(id)
	assert.Equal(t, "xy", text)
	// inserting text in front of a text node merges both
	merged, err := doc.InsertTextBefore(p, tail, "?")
	require.NoError(t, err)
	assert.False(t, doc.Contains(tail))
	text, _ = doc.Text(merged)
	assert.Equal(t, "?!", text)
	_, err = doc.InsertTextBefore(doc.Root(), br, "z")
	assert.True(t, errors.Is(err, ErrUnknownNode), "sibling under different parent")
	assert.NoError(t, doc.Verify())
}

func TestHierarchyErrors(t *testing.T) {
	doc, htm, _, body := minimal(t)
	text, _ := doc.FirstChild(body)
	version := doc.Version()
	err := doc.AppendChild(text, doc.CreateElement(Name("b"), nil))
	assert.True(t, errors.Is(err, ErrHierarchy), "text nodes cannot have children")
	err = doc.AppendChild(htm, doc.Root())
	assert.True(t, errors.Is(err, ErrHierarchy), "document cannot become a child")
	err = doc.AddAttrsIfMissing(text, []html.Attribute{{Key: "id", Val: "x"}})
	assert.True(t, errors.Is(err, ErrHierarchy), "attributes only apply to elements")
	_, err = doc.Create(DocumentKind)
	assert.True(t, errors.Is(err, ErrHierarchy))
	assert.Equal(t, version, doc.Version())
}

func TestCycleLeavesTreeUnchanged(t *testing.T) {
	doc, htm, _, body := minimal(t)
	version := doc.Version()
	err := doc.AppendChild(body, htm)
	assert.True(t, errors.Is(err, ErrCycleDetected))
	assert.Equal(t, version, doc.Version())
	p, _ := doc.ParentOf(htm)
	assert.Equal(t, doc.Root(), p)
}

func TestStaleNodeID(t *testing.T) {
	doc, _, head, body := minimal(t)
	meta := doc.CreateElement(Name("meta"), nil)
	require.NoError(t, doc.AppendChild(head, meta))
	require.NoError(t, doc.DestroySubtree(head))
	for _, err := range []error{
		doc.AppendChild(body, meta),
		doc.Detach(head),
		doc.SetAttribute(meta, "charset", "utf-8"),
		doc.MarkScriptStarted(head),
	} {
		assert.True(t, errors.Is(err, ErrUnknownNode), "got %v", err)
	}
	other := NewTree()
	assert.True(t, errors.Is(other.AppendChild(other.Root(), body), ErrUnknownNode))
}

func TestAttributes(t *testing.T) {
	doc := NewTree()
	a := doc.CreateElement(Name("a"), []html.Attribute{
		{Key: "href", Val: "one"},
		{Key: "href", Val: "two"},
	})
	attrs, _ := doc.Attributes(a)
	require.Len(t, attrs, 1)
	assert.Equal(t, "one", attrs[0].Val)
	require.NoError(t, doc.AddAttrsIfMissing(a, []html.Attribute{
		{Key: "href", Val: "three"},
		{Key: "class", Val: "link"},
	}))
	v, _ := doc.Attribute(a, "href")
	assert.Equal(t, "one", v)
	v, ok := doc.Attribute(a, "class")
	assert.True(t, ok)
	assert.Equal(t, "link", v)
	require.NoError(t, doc.SetAttribute(a, "href", "four"))
	v, _ = doc.Attribute(a, "href")
	assert.Equal(t, "four", v)
}

func TestWalkDocument(t *testing.T) {
	doc, _, _, _ := minimal(t)
	var names []string
	it := doc.Walk(doc.Root())
	for id, ok := it.Next(); ok; id, ok = it.Next() {
		names = append(names, doc.NodeFor(id).NodeName())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, "[#document html head body #text]", fmt.Sprint(names))
	texts, err := doc.Walk(doc.Root()).Collect(NodeIsText)
	require.NoError(t, err)
	assert.Len(t, texts, 1)
	elems, err := doc.Walk(doc.Root()).Collect(NodeIsElement(""))
	require.NoError(t, err)
	assert.Len(t, elems, 3)
}

func TestW3CView(t *testing.T) {
	doc, htm, _, body := minimal(t)
	require.NoError(t, doc.AppendChild(body, doc.CreateComment("c")))
	w := doc.NodeFor(htm)
	assert.Equal(t, html.ElementNode, w.NodeType())
	assert.Equal(t, "html", w.NodeName())
	assert.Equal(t, "#document", w.ParentNode().NodeName())
	assert.Nil(t, doc.Document().ParentNode())
	assert.Equal(t, 2, w.ChildNodes().Length())
	assert.Equal(t, "[head body]", w.Children().String())
	b := doc.NodeFor(body)
	assert.Equal(t, "[#text #comment]", b.ChildNodes().String())
	assert.Equal(t, 0, b.Children().Length())
	assert.Nil(t, b.NextSibling())
	assert.Equal(t, "Hi", b.FirstChild().NodeValue())
	s, err := doc.Document().TextContent()
	require.NoError(t, err)
	assert.Equal(t, "Hi", s)
	assert.Nil(t, doc.NodeFor(NodeID{}))
}

func TestMetadata(t *testing.T) {
	doc := NewTree()
	assert.False(t, doc.IsIncomplete())
	doc.SetQuirksMode(LimitedQuirks)
	doc.SetCurrentLine(42)
	doc.SetDoctype(Doctype{Name: "html"})
	doc.MarkIncomplete(fmt.Errorf("template contents: %w", ErrUnsupportedOperation))
	assert.Equal(t, LimitedQuirks, doc.QuirksMode())
	assert.Equal(t, uint64(42), doc.CurrentLine())
	dt, ok := doc.Doctype()
	assert.True(t, ok)
	assert.Equal(t, "html", dt.Name)
	assert.True(t, doc.IsIncomplete())
	assert.True(t, errors.Is(doc.Incomplete(), ErrUnsupportedOperation))
	assert.False(t, IsFatal(doc.Incomplete()))
	assert.True(t, IsFatal(ErrCycleDetected))
}

// --- Randomized invariant checks -------------------------------------------

// mutator applies a stream of pseudo-random structural operations to a
// document tree, checking the tree invariants after every step. It keeps a
// model of every child list to check that children come back in insertion
// order, with adjacent text merged into the earlier node.
type mutator struct {
	doc      *Tree
	nodes    []NodeID
	children map[NodeID][]NodeID // model of the child lists of live nodes
	parent   map[NodeID]NodeID
	text     map[NodeID]bool
	merged   []NodeID // text nodes merged away
}

func newMutator() *mutator {
	doc := NewTree()
	return &mutator{
		doc:      doc,
		nodes:    []NodeID{doc.Root()},
		children: map[NodeID][]NodeID{doc.Root(): nil},
		parent:   map[NodeID]NodeID{},
		text:     map[NodeID]bool{},
	}
}

func (m *mutator) pick(b byte) NodeID {
	return m.nodes[int(b)%len(m.nodes)]
}

func (m *mutator) created(id NodeID, isText bool) {
	m.nodes = append(m.nodes, id)
	m.children[id] = nil
	m.text[id] = isText
}

func (m *mutator) unlink(child NodeID) {
	p, ok := m.parent[child]
	if !ok {
		return
	}
	list := m.children[p]
	for i, c := range list {
		if c == child {
			m.children[p] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	delete(m.parent, child)
}

func (m *mutator) link(parent, child NodeID, at func([]NodeID) int) {
	m.unlink(child)
	list := m.children[parent]
	i := at(list)
	list = append(list[:i:i], append([]NodeID{child}, list[i:]...)...)
	m.children[parent] = list
	m.parent[child] = parent
}

func position(of NodeID, offset int) func([]NodeID) int {
	return func(list []NodeID) int {
		for i, c := range list {
			if c == of {
				return i + offset
			}
		}
		panic("sibling missing from model")
	}
}

func atEnd(list []NodeID) int { return len(list) }
func atFront([]NodeID) int    { return 0 }

// normalize merges adjacent text nodes of the model, keeping the earlier one.
func (m *mutator) normalize() {
	for p, list := range m.children {
		var kept []NodeID
		for _, c := range list {
			if m.text[c] && len(kept) > 0 && m.text[kept[len(kept)-1]] {
				delete(m.children, c)
				delete(m.parent, c)
				m.merged = append(m.merged, c)
				continue
			}
			kept = append(kept, c)
		}
		m.children[p] = kept
	}
}

// check compares the tree with the model.
func (m *mutator) check() error {
	for id, want := range m.children {
		got, err := m.doc.ChildrenOf(id)
		if err != nil {
			return fmt.Errorf("node %s of model: %w", id, err)
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return fmt.Errorf("children of %s are %v, expected %v", id, got, want)
		}
	}
	for _, id := range m.merged {
		if m.doc.Contains(id) {
			return fmt.Errorf("merged text node %s is still alive", id)
		}
	}
	return nil
}

func (m *mutator) step(op, a, b, c byte) error {
	doc := m.doc
	parent, child, sibling := m.pick(a), m.pick(b), m.pick(c)
	var err error
	var update func()
	switch op % 9 {
	case 0:
		m.created(doc.CreateElement(Name(fmt.Sprintf("e%d", a%4)), nil), false)
	case 1:
		m.created(doc.CreateText(string('a'+rune(a%26))), true)
	case 2:
		m.created(doc.CreateComment("c"), false)
	case 3:
		err = doc.AppendChild(parent, child)
		update = func() { m.link(parent, child, atEnd) }
	case 4:
		err = doc.PrependChild(parent, child)
		update = func() { m.link(parent, child, atFront) }
	case 5:
		err = doc.InsertBefore(parent, sibling, child)
		if sibling != child {
			update = func() { m.link(parent, child, position(sibling, 0)) }
		}
	case 6:
		err = doc.InsertAfter(parent, sibling, child)
		if sibling != child {
			update = func() { m.link(parent, child, position(sibling, 1)) }
		}
	case 7:
		err = doc.Detach(parent)
		update = func() { m.unlink(parent) }
	case 8:
		var id NodeID
		id, err = doc.AppendText(parent, "t")
		update = func() {
			if _, known := m.children[id]; !known {
				m.created(id, true)
				m.link(parent, id, atEnd)
			}
		}
	}
	if err != nil {
		if !errors.Is(err, ErrUnknownNode) && !errors.Is(err, ErrCycleDetected) &&
			!errors.Is(err, ErrHierarchy) {
			return fmt.Errorf("unexpected error class: %w", err)
		}
	} else if update != nil {
		update()
		m.normalize()
	}
	if err := doc.Verify(); err != nil {
		return err
	}
	return m.check()
}

func TestRandomMutationsKeepInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(4711))
	for round := 0; round < 50; round++ {
		m := newMutator()
		for i := 0; i < 200; i++ {
			b := make([]byte, 4)
			r.Read(b)
			if err := m.step(b[0], b[1], b[2], b[3]); err != nil {
				t.Fatalf("round %d, step %d: %v", round, i, err)
			}
		}
	}
}

func FuzzMutations(f *testing.F) {
	f.Add([]byte{0, 0, 0, 0, 3, 0, 1, 0})
	f.Add([]byte{1, 1, 0, 0, 1, 2, 0, 0, 3, 0, 1, 0, 3, 0, 2, 0, 7, 1, 0, 0})
	f.Add([]byte{0, 1, 0, 0, 0, 2, 0, 0, 3, 1, 2, 0, 3, 2, 1, 0, 5, 0, 1, 2})
	f.Fuzz(func(t *testing.T, ops []byte) {
		m := newMutator()
		for i := 0; i+3 < len(ops); i += 4 {
			if err := m.step(ops[i], ops[i+1], ops[i+2], ops[i+3]); err != nil {
				t.Fatalf("step %d: %v", i/4, err)
			}
		}
	})
}
