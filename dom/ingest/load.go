package ingest

import (
	"context"
	"io"

	"github.com/npillmayer/arbor/dom/htmlsrc"
	"github.com/npillmayer/arbor/dom/treesink"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Producer emits the operations constructing a document. It is run in its
// own goroutine by LoadFrom.
type Producer func(treesink.Emitter) error

// Load parses an HTML document from r and builds its tree. Parsing and tree
// construction run concurrently, connected by a Pipeline.
//
// Load always returns the document. If the load failed, the document is in
// state Failed and the error is a LoadError.
func Load(ctx context.Context, r io.Reader, opts ...Option) (*Document, error) {
	return LoadFrom(ctx, func(e treesink.Emitter) error {
		return htmlsrc.Parse(r, e)
	}, opts...)
}

// LoadFrom runs produce and a tree owner for a new document concurrently.
// Cancelling ctx aborts the load: the producer's pending Emit fails, the
// tree owner applies the operations already enqueued and the document ends
// up in state Failed.
func LoadFrom(ctx context.Context, produce Producer, opts ...Option) (*Document, error) {
	doc := NewDocument(opts...)
	g, gctx := errgroup.WithContext(ctx)
	pipe := NewPipeline(gctx, opts...)
	var perr error
	g.Go(func() error {
		defer pipe.Close()
		perr = produce(pipe)
		return perr
	})
	g.Go(func() error {
		return doc.Consume(pipe)
	})
	if err := g.Wait(); err != nil {
		tracer().Debugf("load group ended with %v", err)
	}
	if perr != nil && doc.State() != Loaded {
		doc.mu.Lock()
		doc.fail(errors.Wrap(perr, "producer"))
		doc.mu.Unlock()
	}
	return doc, doc.Err()
}
