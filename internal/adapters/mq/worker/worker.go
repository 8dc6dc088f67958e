// Package worker drains the event queue on a single goroutine so host
// events reach the handler one at a time, in arrival order.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/papi/internal/domain/model"
	"github.com/okian/papi/pkg/logger"
	"github.com/okian/papi/pkg/metrics"
)

// Handler applies one event.
type Handler interface {
	Handle(ctx context.Context, e model.Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e model.Event) error

func (f HandlerFunc) Handle(ctx context.Context, e model.Event) error { return f(ctx, e) } //nolint:gocritic // hugeParam

// Queue is the receive side the worker reads from.
type Queue interface {
	Dequeue() <-chan model.Event
}

// Dispatcher is the single consumer of a Queue.
type Dispatcher struct {
	queue   Queue
	handler Handler
	name    string
	logger  logger.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New creates a dispatcher feeding events from q into h.
func New(q Queue, h Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:   q,
		handler: h,
		name:    "dispatcher",
		logger:  logger.Nop(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named(d.name)
	return d
}

// Run processes events until the queue is closed and drained, ctx is
// cancelled, or Shutdown gives up waiting.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	events := d.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			d.process(ctx, e)
		}
	}
}

// Shutdown waits for Run to drain a closed queue. If ctx expires first the
// remaining events are abandoned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.stopOnce.Do(func() { close(d.stop) })
		d.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run returns.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

func (d *Dispatcher) process(ctx context.Context, e model.Event) { //nolint:gocritic // hugeParam
	start := time.Now()
	defer func() {
		metrics.RecordQueueDequeue()
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := d.handler.Handle(ctx, e); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", string(e.Kind))
		d.logger.Error(ctx, "event handling failed",
			logger.String("eventID", e.EventID),
			logger.String("kind", string(e.Kind)),
			logger.Error(err),
		)
	}
}
