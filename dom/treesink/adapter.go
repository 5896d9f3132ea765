/*
Package treesink translates the operations of an HTML tree-construction
algorithm into mutations of a dom.Tree.

A producer (usually a tokenizer plus tree builder, see package htmlsrc)
describes a document as a sequence of Ops. Nodes are named by Handles chosen
by the producer; the Adapter keeps the correlation between handles and the
NodeIDs of the tree it builds. Operations are applied strictly in order.

Unsupported operations (template contents, form association, processing
instructions) are reported with dom.ErrUnsupportedOperation and recorded on
the tree, which is then flagged incomplete. Handles introduced by an
unsupported operation are bound to detached placeholder nodes, so later
operations referencing them do not fail.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package treesink

import (
	"github.com/npillmayer/arbor/dom"
	"github.com/npillmayer/schuko/tracing"
	"github.com/pkg/errors"
)

// tracer traces with key 'arbor.sink'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.sink")
}

// ErrAfterFinish is returned for operations arriving after Finish.
var ErrAfterFinish = errors.New("operation after finish")

// ErrDuplicateHandle is returned if a producer binds a handle twice.
var ErrDuplicateHandle = errors.New("handle already bound")

// Emitter is the interface of everything operations can be sent to.
// Adapter implements it for in-process producers; ingest.Pipeline
// implements it for producers running in a separate goroutine.
type Emitter interface {
	Emit(Op) error
}

// Adapter applies Ops to a dom.Tree. It is the sole mutator of its tree
// while building and is not safe for concurrent use.
type Adapter struct {
	tree     *dom.Tree
	handles  map[Handle]dom.NodeID
	finished bool
	count    int // number of operations applied
}

var _ Emitter = &Adapter{}

// New creates an adapter building into t. If t is nil, a new tree is
// created.
func New(t *dom.Tree) *Adapter {
	if t == nil {
		t = dom.NewTree()
	}
	return &Adapter{
		tree:    t,
		handles: map[Handle]dom.NodeID{DocumentHandle: t.Root()},
	}
}

// Tree returns the tree under construction.
func (a *Adapter) Tree() *dom.Tree {
	return a.tree
}

// Finished is true after Finish has been applied.
func (a *Adapter) Finished() bool {
	return a.finished
}

// Count returns the number of operations applied so far.
func (a *Adapter) Count() int {
	return a.count
}

// NodeFor returns the NodeID bound to a handle.
func (a *Adapter) NodeFor(h Handle) (dom.NodeID, bool) {
	id, ok := a.handles[h]
	return id, ok
}

// Emit is part of interface Emitter. It applies op immediately.
func (a *Adapter) Emit(op Op) error {
	return a.Apply(op)
}

// Apply applies a single operation to the tree. Errors other than
// dom.ErrUnsupportedOperation (see dom.IsFatal) mean that producer and tree
// disagree about the document; the tree must not be used any further.
func (a *Adapter) Apply(op Op) error {
	if a.finished {
		return errors.Wrapf(ErrAfterFinish, "%s", op)
	}
	a.count++
	tracer().Debugf("apply %s", op)
	err := a.apply(op)
	if err != nil && dom.IsFatal(err) {
		tracer().Errorf("%s failed: %v", op, err)
	}
	return err
}

func (a *Adapter) apply(op Op) error {
	t := a.tree
	switch op := op.(type) {
	case CreateElement:
		if op.Line > 0 {
			t.SetCurrentLine(op.Line)
		}
		return a.bind(op.Node, t.CreateElement(op.Name, op.Attrs))
	case CreateComment:
		return a.bind(op.Node, t.CreateComment(op.Text))
	case Append:
		parent, err := a.node(op.Parent)
		if err != nil {
			return err
		}
		return a.appendChild(parent, op.Child)
	case AppendBeforeSibling:
		sibling, err := a.node(op.Sibling)
		if err != nil {
			return err
		}
		return a.insertBefore(sibling, op.Child)
	case AppendBasedOnParent:
		elem, err := a.node(op.Element)
		if err != nil {
			return err
		}
		if p, _ := t.ParentOf(elem); !p.IsNil() {
			return a.insertBefore(elem, op.Child)
		}
		prev, err := a.node(op.PrevElement)
		if err != nil {
			return err
		}
		return a.appendChild(prev, op.Child)
	case AppendDoctype:
		t.SetDoctype(dom.Doctype{Name: op.Name, PublicID: op.PublicID, SystemID: op.SystemID})
	case AddAttrsIfMissing:
		target, err := a.node(op.Target)
		if err != nil {
			return err
		}
		return t.AddAttrsIfMissing(target, op.Attrs)
	case RemoveFromParent:
		target, err := a.node(op.Target)
		if err != nil {
			return err
		}
		return t.Detach(target)
	case ReparentChildren:
		return a.reparent(op)
	case MarkScriptStarted:
		target, err := a.node(op.Node)
		if err != nil {
			return err
		}
		return t.MarkScriptStarted(target)
	case SetQuirksMode:
		t.SetQuirksMode(op.Mode)
	case SetCurrentLine:
		t.SetCurrentLine(op.Line)
	case ParseError:
		tracer().Infof("parse error: %s", op.Msg)
		t.AddParseError(op.Msg)
	case Pop:
		// the stack of open elements is the producer's business
	case Finish:
		a.finished = true
		tracer().Infof("document finished after %d operations, %d nodes", a.count, t.Len())
	case CreatePI:
		if err := a.bind(op.Node, t.CreateComment("?"+op.Target+" "+op.Data)); err != nil {
			return err
		}
		return a.unsupported(op)
	case GetTemplateContents:
		if _, err := a.node(op.Target); err != nil {
			return err
		}
		if err := a.bind(op.Contents, t.CreateElement(dom.Name("template"), nil)); err != nil {
			return err
		}
		return a.unsupported(op)
	case AssociateWithForm:
		return a.unsupported(op)
	default:
		return errors.Wrapf(dom.ErrUnsupportedOperation, "unknown operation type %T", op)
	}
	return nil
}

func (a *Adapter) bind(h Handle, id dom.NodeID) error {
	if _, exists := a.handles[h]; exists {
		return errors.Wrapf(ErrDuplicateHandle, "handle %s", h)
	}
	a.handles[h] = id
	return nil
}

func (a *Adapter) node(h Handle) (dom.NodeID, error) {
	id, ok := a.handles[h]
	if !ok {
		return dom.NodeID{}, errors.Wrapf(dom.ErrUnknownNode, "unbound handle %s", h)
	}
	return id, nil
}

func (a *Adapter) unsupported(op Op) error {
	err := errors.Wrapf(dom.ErrUnsupportedOperation, "%s", op)
	a.tree.MarkIncomplete(err)
	return err
}

func (a *Adapter) appendChild(parent dom.NodeID, child Child) error {
	if child.IsText {
		_, err := a.tree.AppendText(parent, child.Text)
		return err
	}
	id, err := a.node(child.Node)
	if err != nil {
		return err
	}
	return a.tree.AppendChild(parent, id)
}

func (a *Adapter) insertBefore(sibling dom.NodeID, child Child) error {
	parent, err := a.tree.ParentOf(sibling)
	if err != nil {
		return err
	}
	if parent.IsNil() {
		return errors.Wrapf(dom.ErrHierarchy, "sibling %s has no parent", sibling)
	}
	if child.IsText {
		_, err = a.tree.InsertTextBefore(parent, sibling, child.Text)
		return err
	}
	id, err := a.node(child.Node)
	if err != nil {
		return err
	}
	return a.tree.InsertBefore(parent, sibling, id)
}

func (a *Adapter) reparent(op ReparentChildren) error {
	from, err := a.node(op.Parent)
	if err != nil {
		return err
	}
	to, err := a.node(op.NewParent)
	if err != nil {
		return err
	}
	if name, _ := a.tree.TagName(from); name.Space == "" && name.Local == "template" {
		return a.unsupported(op)
	}
	children, err := a.tree.ChildrenOf(from)
	if err != nil {
		return err
	}
	for _, ch := range children {
		if !a.tree.Contains(ch) { // merged into a text node moved before
			continue
		}
		if err := a.tree.AppendChild(to, ch); err != nil {
			return err
		}
	}
	return nil
}
