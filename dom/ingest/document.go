/*
Package ingest loads documents in the background.

A producer (the HTML tokenizer and tree builder) runs in its own goroutine
and emits tree-construction operations into a Pipeline. The tree owner drains
the pipeline and applies the operations, strictly in order, to the tree of a
Document. There is never more than one writer of a tree.

Mutation phases (applying a batch of operations) and read phases alternate:
the tree owner holds the document's write lock while applying a batch, and
readers access the tree through Document.Read, which holds the read lock.

A load ends in one of two states. Loaded means the producer finished the
document (possibly with unsupported operations, see dom.Tree.IsIncomplete).
Failed means the tree cannot be trusted: the producer and the tree disagreed
about the shape of the document, or the stream of operations ended early.
A failed document is never rolled back, but its tree is not handed out.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package ingest

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/npillmayer/arbor/dom"
	"github.com/npillmayer/arbor/dom/treesink"
	"github.com/npillmayer/schuko/tracing"
	"github.com/pkg/errors"
)

// tracer traces with key 'arbor.ingest'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.ingest")
}

// State is the load state of a document.
type State int32

// Load states.
const (
	NotLoaded State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case NotLoaded:
		return "not-loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// ErrNotLoaded is returned when accessing the tree of a document which has
// not (yet) been loaded.
var ErrNotLoaded = errors.New("document not loaded")

// ErrLoadFailed matches every LoadError (see errors.Is).
var ErrLoadFailed = errors.New("document load failed")

// ErrBusy is returned if a document is consumed twice.
var ErrBusy = errors.New("document already loading or loaded")

// LoadError is the error of a failed load. Cause tells why the load failed.
type LoadError struct {
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("document load failed: %v", e.Cause)
}

// Unwrap returns the cause of the load failure.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Is makes every LoadError match ErrLoadFailed.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailed
}

// Document is a document tree together with its load state.
type Document struct {
	mu    sync.RWMutex // write lock held during mutation phases
	tree  *dom.Tree
	state State
	err   *LoadError
	conf  config
}

// NewDocument creates an empty document in state NotLoaded.
func NewDocument(opts ...Option) *Document {
	return &Document{
		tree: dom.NewTree(),
		conf: configure(opts),
	}
}

// State returns the current load state.
func (d *Document) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Err returns the LoadError of a failed document, or nil.
func (d *Document) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.err == nil {
		return nil
	}
	return d.err
}

// Tree returns the tree of a loaded document. For a failed document the
// load error is returned, for all other states ErrNotLoaded.
func (d *Document) Tree() (*dom.Tree, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	switch d.state {
	case Loaded:
		return d.tree, nil
	case Failed:
		return nil, d.err
	}
	return nil, ErrNotLoaded
}

// Read calls f with the tree of the document, during a read phase. Read may
// be called while the document is loading; it then sees the tree as built
// by the operations applied so far. f must not keep the tree after it
// returns and must not mutate it.
func (d *Document) Read(f func(*dom.Tree) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	switch d.state {
	case NotLoaded:
		return ErrNotLoaded
	case Failed:
		return d.err
	}
	return f(d.tree)
}

// Consume makes the calling goroutine the tree owner: it drains p and
// applies the operations to the tree of d, until the producer finishes the
// document and closes p, or the load fails. The producer must close p when
// it is done, even after an error. If Consume fails, the producer should be
// stopped by cancelling the context of p.
func (d *Document) Consume(p *Pipeline) error {
	d.mu.Lock()
	if d.state != NotLoaded {
		d.mu.Unlock()
		return ErrBusy
	}
	d.state = Loading
	d.mu.Unlock()
	tracer().Infof("loading document")
	//
	sink := treesink.New(d.tree)
	batch := make([]opPackage, 0, d.conf.batchSize)
	var expected uint64
	for {
		var ok bool
		if batch, ok = p.next(batch, d.conf.batchSize); !ok {
			break
		}
		d.mu.Lock() // mutation phase
		for _, pkg := range batch {
			if pkg.serial != expected {
				return d.failLocked(errors.Errorf("operation %d arrived out of order, expected %d", pkg.serial, expected))
			}
			expected++
			if err := d.apply(sink, pkg.op); err != nil {
				return d.failLocked(err)
			}
		}
		d.mu.Unlock()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !sink.Finished() {
		tracer().Errorf("operation stream ended after %d operations without finish", expected)
		d.fail(errors.Wrapf(dom.ErrChannelClosed, "after %d operations", expected))
		return d.err
	}
	if d.conf.verifyOnFinish {
		if err := d.tree.Verify(); err != nil {
			d.fail(err)
			return d.err
		}
	}
	d.state = Loaded
	tracer().Infof("document loaded, %d nodes", d.tree.Len())
	return nil
}

func (d *Document) apply(sink *treesink.Adapter, op treesink.Op) error {
	err := sink.Apply(op)
	if err == nil {
		return nil
	}
	if dom.IsFatal(err) || d.conf.abortOnUnsupported {
		return err
	}
	tracer().Infof("continuing with incomplete document: %v", err)
	return nil
}

// failLocked fails the load from within a mutation phase and releases the
// write lock.
func (d *Document) failLocked(cause error) error {
	defer d.mu.Unlock()
	d.fail(cause)
	return d.err
}

// fail sets the document to state Failed. d.mu must be held.
func (d *Document) fail(cause error) {
	tracer().Errorf("document load failed: %v", cause)
	d.state = Failed
	if d.err == nil {
		d.err = &LoadError{Cause: cause}
		return
	}
	d.err.Cause = multierror.Append(d.err.Cause, cause)
}
