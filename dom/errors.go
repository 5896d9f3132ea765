package dom

import (
	"github.com/npillmayer/arbor/tree"
	"github.com/pkg/errors"
)

// Structural errors. They indicate that the producer of tree operations and
// the tree disagree about the shape of the document and are fatal for a
// document load.
var (
	// ErrUnknownNode is returned if an operation references a dead or foreign
	// NodeID.
	ErrUnknownNode = tree.ErrUnknownNode

	// ErrCycleDetected is returned if an operation would make a node a
	// descendant of itself.
	ErrCycleDetected = tree.ErrCycleDetected

	// ErrHierarchy is returned if an operation would make the document a child,
	// give children to a Text or Comment node, or set attributes on a
	// non-element.
	ErrHierarchy = tree.ErrHierarchy
)

// Protocol errors.
var (
	// ErrUnsupportedOperation is returned for operations of the
	// tree-construction protocol which are not implemented. The document is
	// flagged as incomplete, but the tree itself stays consistent.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrChannelClosed signals that the stream of operations ended before the
	// producer finished the document.
	ErrChannelClosed = errors.New("operation channel closed")
)

// ErrTreeMutated is returned by an iterator which has been invalidated by a
// mutation of the tree.
var ErrTreeMutated = tree.ErrTreeMutated

// IsFatal returns true if err leaves a document tree in a state which cannot
// be trusted. Unsupported operations are not fatal.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrUnsupportedOperation)
}
