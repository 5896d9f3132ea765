package treesink

import (
	"fmt"

	"github.com/npillmayer/arbor/dom"
	"golang.org/x/net/html"
)

// Handle is the producer's transient name for a node. Handles are chosen by
// the producer; the adapter correlates them with NodeIDs of the tree.
type Handle uint64

// DocumentHandle is the pre-defined handle of the Document node.
const DocumentHandle Handle = 0

func (h Handle) String() string {
	if h == DocumentHandle {
		return "&doc"
	}
	return fmt.Sprintf("&%d", h)
}

// Op is an operation of the tree-construction protocol. Ops are plain values
// and may be sent over channels.
type Op interface {
	fmt.Stringer
	isOp()
}

// Child is the payload of the append-type operations: either a node created
// earlier or a run of raw text.
type Child struct {
	Node   Handle
	Text   string
	IsText bool
}

// NodeChild creates a Child referencing a node.
func NodeChild(h Handle) Child {
	return Child{Node: h}
}

// TextChild creates a Child carrying raw text.
func TextChild(text string) Child {
	return Child{Text: text, IsText: true}
}

func (c Child) String() string {
	if c.IsText {
		return fmt.Sprintf("%q", c.Text)
	}
	return c.Node.String()
}

// CreateElement creates a parentless element and binds it to Node.
type CreateElement struct {
	Node  Handle
	Name  dom.QualName
	Attrs []html.Attribute
	Line  uint64 // source line, 0 if unknown
}

// CreateComment creates a parentless comment and binds it to Node.
type CreateComment struct {
	Node Handle
	Text string
}

// CreatePI creates a processing instruction. Unsupported.
type CreatePI struct {
	Node   Handle
	Target string
	Data   string
}

// Append appends Child to the children of Parent.
type Append struct {
	Parent Handle
	Child  Child
}

// AppendBeforeSibling inserts Child in front of Sibling.
type AppendBeforeSibling struct {
	Sibling Handle
	Child   Child
}

// AppendBasedOnParent inserts Child in front of Element if Element has a
// parent, and appends it to PrevElement otherwise (foster parenting).
type AppendBasedOnParent struct {
	Element     Handle
	PrevElement Handle
	Child       Child
}

// AppendDoctype records the document type declaration.
type AppendDoctype struct {
	Name     string
	PublicID string
	SystemID string
}

// AddAttrsIfMissing adds the attributes Target does not already have.
type AddAttrsIfMissing struct {
	Target Handle
	Attrs  []html.Attribute
}

// RemoveFromParent detaches Target from its parent.
type RemoveFromParent struct {
	Target Handle
}

// ReparentChildren moves all children of Parent to NewParent.
type ReparentChildren struct {
	Parent    Handle
	NewParent Handle
}

// MarkScriptStarted flags a script element as already started.
type MarkScriptStarted struct {
	Node Handle
}

// GetTemplateContents binds Contents to the template contents of Target.
// Unsupported.
type GetTemplateContents struct {
	Target   Handle
	Contents Handle
}

// AssociateWithForm associates a form-associated element with a form.
// Unsupported.
type AssociateWithForm struct {
	Target  Handle
	Form    Handle
	Element Handle
}

// SetQuirksMode records the quirks mode of the document.
type SetQuirksMode struct {
	Mode dom.QuirksMode
}

// SetCurrentLine records the current line of the source.
type SetCurrentLine struct {
	Line uint64
}

// ParseError reports a parse error. It is a diagnostic, not a failure.
type ParseError struct {
	Msg string
}

// Pop signals that the producer popped Node off its stack of open elements.
type Pop struct {
	Node Handle
}

// Finish ends the operation stream for a document.
type Finish struct{}

func (CreateElement) isOp()       {}
func (CreateComment) isOp()       {}
func (CreatePI) isOp()            {}
func (Append) isOp()              {}
func (AppendBeforeSibling) isOp() {}
func (AppendBasedOnParent) isOp() {}
func (AppendDoctype) isOp()       {}
func (AddAttrsIfMissing) isOp()   {}
func (RemoveFromParent) isOp()    {}
func (ReparentChildren) isOp()    {}
func (MarkScriptStarted) isOp()   {}
func (GetTemplateContents) isOp() {}
func (AssociateWithForm) isOp()   {}
func (SetQuirksMode) isOp()       {}
func (SetCurrentLine) isOp()      {}
func (ParseError) isOp()          {}
func (Pop) isOp()                 {}
func (Finish) isOp()              {}

func (op CreateElement) String() string {
	return fmt.Sprintf("CreateElement(%s <%s>, %d attrs)", op.Node, op.Name, len(op.Attrs))
}

func (op CreateComment) String() string {
	return fmt.Sprintf("CreateComment(%s)", op.Node)
}

func (op CreatePI) String() string {
	return fmt.Sprintf("CreatePI(%s %s)", op.Node, op.Target)
}

func (op Append) String() string {
	return fmt.Sprintf("Append(%s, %s)", op.Parent, op.Child)
}

func (op AppendBeforeSibling) String() string {
	return fmt.Sprintf("AppendBeforeSibling(%s, %s)", op.Sibling, op.Child)
}

func (op AppendBasedOnParent) String() string {
	return fmt.Sprintf("AppendBasedOnParent(%s, %s, %s)", op.Element, op.PrevElement, op.Child)
}

func (op AppendDoctype) String() string {
	return fmt.Sprintf("AppendDoctype(%q)", op.Name)
}

func (op AddAttrsIfMissing) String() string {
	return fmt.Sprintf("AddAttrsIfMissing(%s, %d attrs)", op.Target, len(op.Attrs))
}

func (op RemoveFromParent) String() string {
	return fmt.Sprintf("RemoveFromParent(%s)", op.Target)
}

func (op ReparentChildren) String() string {
	return fmt.Sprintf("ReparentChildren(%s, %s)", op.Parent, op.NewParent)
}

func (op MarkScriptStarted) String() string {
	return fmt.Sprintf("MarkScriptStarted(%s)", op.Node)
}

func (op GetTemplateContents) String() string {
	return fmt.Sprintf("GetTemplateContents(%s, %s)", op.Target, op.Contents)
}

func (op AssociateWithForm) String() string {
	return fmt.Sprintf("AssociateWithForm(%s, %s)", op.Target, op.Form)
}

func (op SetQuirksMode) String() string {
	return fmt.Sprintf("SetQuirksMode(%s)", op.Mode)
}

func (op SetCurrentLine) String() string {
	return fmt.Sprintf("SetCurrentLine(%d)", op.Line)
}

func (op ParseError) String() string {
	return fmt.Sprintf("ParseError(%q)", op.Msg)
}

func (op Pop) String() string {
	return fmt.Sprintf("Pop(%s)", op.Node)
}

func (Finish) String() string {
	return "Finish"
}
