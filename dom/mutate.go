package dom

import (
	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

// --- Creation --------------------------------------------------------------

// CreateElement allocates a new, parentless element. Duplicate attributes are
// dropped, the first occurrence wins.
func (t *Tree) CreateElement(name QualName, attrs []html.Attribute) NodeID {
	nd := &nodeData{kind: ElementKind, name: name}
	nd.addAttrsIfMissing(attrs)
	return t.store.Create(nd)
}

// CreateComment allocates a new, parentless comment node.
func (t *Tree) CreateComment(text string) NodeID {
	return t.store.Create(&nodeData{kind: CommentKind, text: text})
}

// CreateText allocates a new, parentless text node.
func (t *Tree) CreateText(text string) NodeID {
	return t.store.Create(&nodeData{kind: TextKind, text: text})
}

// Create allocates a new, empty node of the given kind. There is only one
// Document node per tree, so creating a document fails with ErrHierarchy.
func (t *Tree) Create(kind Kind) (NodeID, error) {
	switch kind {
	case ElementKind, CommentKind, TextKind:
		return t.store.Create(&nodeData{kind: kind}), nil
	}
	return NodeID{}, errors.Wrapf(ErrHierarchy, "cannot create node of kind %s", kind)
}

// --- Structure -------------------------------------------------------------

// AppendChild moves child to the end of parent's children, detaching it from
// its current parent first. If child and its new previous sibling are both
// Text nodes, they are coalesced.
func (t *Tree) AppendChild(parent, child NodeID) error {
	return t.move(parent, child, func() error {
		return t.store.AppendChild(parent, child)
	})
}

// PrependChild moves child to the front of parent's children, detaching it
// from its current parent first.
func (t *Tree) PrependChild(parent, child NodeID) error {
	return t.move(parent, child, func() error {
		return t.store.PrependChild(parent, child)
	})
}

// InsertBefore moves child in front of sibling, which must be a child of
// parent; otherwise ErrUnknownNode is returned.
func (t *Tree) InsertBefore(parent, sibling, child NodeID) error {
	return t.move(parent, child, func() error {
		return t.store.InsertBefore(parent, sibling, child)
	})
}

// InsertAfter moves child right behind sibling, which must be a child of
// parent; otherwise ErrUnknownNode is returned.
func (t *Tree) InsertAfter(parent, sibling, child NodeID) error {
	return t.move(parent, child, func() error {
		return t.store.InsertAfter(parent, sibling, child)
	})
}

// move wraps a structural insertion: it checks that parent may hold children,
// remembers the gap child leaves behind, performs the insertion and then
// coalesces text at the gap and around child.
func (t *Tree) move(parent, child NodeID, insert func() error) error {
	if err := t.checkContainer(parent); err != nil {
		return err
	}
	gap, err := t.store.PrevSibling(child)
	if err != nil {
		return err
	}
	if err := insert(); err != nil {
		return err
	}
	if err := t.closeGap(gap); err != nil {
		return err
	}
	_, err = t.coalesce(child)
	return err
}

// Detach removes child from its parent. The subtree below child stays intact
// and may be re-attached later. If child was located between two Text nodes,
// these are coalesced.
func (t *Tree) Detach(child NodeID) error {
	gap, err := t.store.PrevSibling(child)
	if err != nil {
		return err
	}
	if err := t.store.Detach(child); err != nil {
		return err
	}
	return t.closeGap(gap)
}

// DestroySubtree permanently frees root and all of its descendants. NodeIDs
// into the freed subtree will fail with ErrUnknownNode.
func (t *Tree) DestroySubtree(root NodeID) error {
	gap, err := t.store.PrevSibling(root)
	if err != nil {
		return err
	}
	if err := t.store.DestroySubtree(root); err != nil {
		return err
	}
	return t.closeGap(gap)
}

func (t *Tree) checkContainer(parent NodeID) error {
	nd, err := t.data(parent)
	if err != nil {
		return err
	}
	if !nd.isContainer() {
		return errors.Wrapf(ErrHierarchy, "%s node %s cannot have children", nd.kind, parent)
	}
	return nil
}

// --- Text ------------------------------------------------------------------

// AppendText appends raw text at the end of parent's children. If parent
// already ends with a Text node, the text is added to it; otherwise a new
// Text node is created. AppendText returns the Text node holding the text.
func (t *Tree) AppendText(parent NodeID, text string) (NodeID, error) {
	if err := t.checkContainer(parent); err != nil {
		return NodeID{}, err
	}
	last, _ := t.store.LastChild(parent)
	if t.IsText(last) {
		nd, _ := t.data(last)
		nd.text += text
		return last, nil
	}
	id := t.CreateText(text)
	if err := t.store.AppendChild(parent, id); err != nil {
		return NodeID{}, err
	}
	return id, nil
}

// InsertTextBefore inserts raw text in front of sibling, which must be a
// child of parent. If the node preceding sibling is a Text node, the text is
// added to it. If sibling itself is a Text node, it will be merged into the
// new text. InsertTextBefore returns the Text node holding the text.
func (t *Tree) InsertTextBefore(parent, sibling NodeID, text string) (NodeID, error) {
	if err := t.checkContainer(parent); err != nil {
		return NodeID{}, err
	}
	if _, err := t.data(sibling); err != nil {
		return NodeID{}, err
	}
	if i, _ := t.store.IndexOf(parent, sibling); i < 0 {
		return NodeID{}, errors.Wrapf(ErrUnknownNode, "node %s is not a child of %s", sibling, parent)
	}
	prev, _ := t.store.PrevSibling(sibling)
	if t.IsText(prev) {
		nd, _ := t.data(prev)
		nd.text += text
		return prev, nil
	}
	id := t.CreateText(text)
	if err := t.store.InsertBefore(parent, sibling, id); err != nil {
		return NodeID{}, err
	}
	return t.coalesce(id)
}

// AppendData appends text to the contents of an existing Text or Comment node.
func (t *Tree) AppendData(id NodeID, text string) error {
	nd, err := t.data(id)
	if err != nil {
		return err
	}
	if nd.kind != TextKind && nd.kind != CommentKind {
		return errors.Wrapf(ErrHierarchy, "%s node %s has no character data", nd.kind, id)
	}
	nd.text += text
	return nil
}

// coalesce applies the text-coalescing rule to id and its neighbours.
// It returns the node which holds id's text afterwards: either id itself or
// its preceding sibling.
func (t *Tree) coalesce(id NodeID) (NodeID, error) {
	if !t.IsText(id) {
		return id, nil
	}
	survivor := id
	prev, _ := t.store.PrevSibling(id)
	if t.IsText(prev) {
		if err := t.mergeText(prev, id); err != nil {
			return NodeID{}, err
		}
		survivor = prev
	}
	next, _ := t.store.NextSibling(survivor)
	if t.IsText(next) {
		if err := t.mergeText(survivor, next); err != nil {
			return NodeID{}, err
		}
	}
	return survivor, nil
}

// closeGap coalesces the node which preceded a removed node with its new
// next sibling.
func (t *Tree) closeGap(prev NodeID) error {
	if !t.IsText(prev) {
		return nil
	}
	next, err := t.store.NextSibling(prev)
	if err != nil || !t.IsText(next) {
		return err
	}
	return t.mergeText(prev, next)
}

// mergeText moves the text of later into earlier and destroys later.
// Earlier must precede later in document order.
func (t *Tree) mergeText(earlier, later NodeID) error {
	e, _ := t.data(earlier)
	l, _ := t.data(later)
	e.text += l.text
	tracer().Debugf("coalesced text node %s into %s", later, earlier)
	return t.store.DestroySubtree(later)
}

// --- Attributes and flags --------------------------------------------------

// AddAttrsIfMissing adds every attribute of attrs which target does not
// already have. Target has to be an element.
func (t *Tree) AddAttrsIfMissing(target NodeID, attrs []html.Attribute) error {
	nd, err := t.element(target)
	if err != nil {
		return err
	}
	n := nd.addAttrsIfMissing(attrs)
	tracer().Debugf("added %d attribute(s) to %s", n, target)
	return nil
}

// SetAttribute sets the value of an attribute without namespace, adding the
// attribute if it is missing.
func (t *Tree) SetAttribute(target NodeID, key, value string) error {
	nd, err := t.element(target)
	if err != nil {
		return err
	}
	if i := nd.attrIndex("", key); i >= 0 {
		nd.attrs[i].Val = value
		return nil
	}
	nd.attrs = append(nd.attrs, html.Attribute{Key: key, Val: value})
	return nil
}

// MarkScriptStarted flags a script element as already started.
func (t *Tree) MarkScriptStarted(target NodeID) error {
	nd, err := t.element(target)
	if err != nil {
		return err
	}
	nd.scriptStarted = true
	return nil
}

func (t *Tree) element(id NodeID) (*nodeData, error) {
	nd, err := t.data(id)
	if err != nil {
		return nil, err
	}
	if nd.kind != ElementKind {
		return nil, errors.Wrapf(ErrHierarchy, "%s node %s is not an element", nd.kind, id)
	}
	return nd, nil
}
