package ingest

import (
	"context"
	"sync"

	"github.com/npillmayer/arbor/dom"
	"github.com/npillmayer/arbor/dom/treesink"
	"github.com/pkg/errors"
)

// opPackage is the type which is transported in a pipeline.
type opPackage struct {
	op     treesink.Op
	serial uint64 // serial number of the operation, for ordering
}

// Pipeline is an ordered, bounded channel of tree-construction operations.
// It decouples a producer (running in its own goroutine) from the tree
// owner, which drains the pipeline with Document.Consume.
//
// A pipeline has a single producer. Emit and Close must not be called
// concurrently with each other.
type Pipeline struct {
	ctx    context.Context
	ops    chan opPackage
	serial uint64
	closed bool
	once   sync.Once
}

var _ treesink.Emitter = &Pipeline{}

// NewPipeline creates a pipeline. Cancelling ctx makes pending and future
// calls of Emit fail. Option BufferSize sets the capacity of the channel.
func NewPipeline(ctx context.Context, opts ...Option) *Pipeline {
	conf := configure(opts)
	if ctx == nil {
		ctx = context.Background()
	}
	return &Pipeline{
		ctx: ctx,
		ops: make(chan opPackage, conf.bufferSize),
	}
}

// Emit is part of interface treesink.Emitter. It enqueues op, blocking while
// the channel is full. Emit fails if the context of the pipeline is
// cancelled or the pipeline has been closed.
func (p *Pipeline) Emit(op treesink.Op) error {
	if p.closed {
		return errors.Wrapf(dom.ErrChannelClosed, "emitting %s", op)
	}
	if err := p.ctx.Err(); err != nil {
		return errors.Wrapf(err, "emitting %s", op)
	}
	select {
	case p.ops <- opPackage{op: op, serial: p.serial}:
		p.serial++
		return nil
	case <-p.ctx.Done():
		tracer().Infof("load cancelled after %d operations", p.serial)
		return errors.Wrapf(p.ctx.Err(), "emitting %s", op)
	}
}

// Close ends the operation stream. Operations already enqueued will still
// be delivered to the tree owner. Close may be called more than once.
func (p *Pipeline) Close() {
	p.once.Do(func() {
		p.closed = true
		close(p.ops)
	})
}

// Len returns the number of operations waiting in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.ops)
}

// next receives the next batch of operations: it blocks for the first one
// and then takes whatever else is immediately available, up to max
// operations. It returns false if the pipeline is closed and drained.
func (p *Pipeline) next(batch []opPackage, max int) ([]opPackage, bool) {
	batch = batch[:0]
	pkg, ok := <-p.ops
	if !ok {
		return batch, false
	}
	batch = append(batch, pkg)
	for len(batch) < max {
		select {
		case pkg, ok := <-p.ops:
			if !ok {
				return batch, true
			}
			batch = append(batch, pkg)
		default:
			return batch, true
		}
	}
	return batch, true
}
