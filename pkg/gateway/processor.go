package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"fosscord/pkg/logger"
	"fosscord/pkg/models"
)

// Dispatcher applies one push event. It runs on the processor goroutine and
// must not block on network calls.
type Dispatcher interface {
	Dispatch(ctx context.Context, env models.Envelope) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, env models.Envelope) error

func (f DispatcherFunc) Dispatch(ctx context.Context, env models.Envelope) error { return f(ctx, env) }

// Processor drains the queue on a single worker so events reach the
// dispatcher in arrival order.
type Processor struct {
	q          *EventQueue
	dispatcher Dispatcher
	stop       chan struct{}
	wg         sync.WaitGroup
	running    int32
	paused     int32
	processed  uint64
	failed     uint64
}

func NewProcessor(q *EventQueue, d Dispatcher) *Processor {
	return &Processor{q: q, dispatcher: d, stop: make(chan struct{})}
}

// Pause stops handing out new events until Resume is called.
func (p *Processor) Pause() { atomic.StoreInt32(&p.paused, 1) }

func (p *Processor) Resume() { atomic.StoreInt32(&p.paused, 0) }

// Start launches the worker. Calling it twice is a no-op.
func (p *Processor) Start() {
	if !atomic.CompareAndSwapInt32(&p.running, 0, 1) {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.workerLoop()
	}()
	logger.Info("gateway_processor_started")
}

// Stop waits for the worker. When the queue has been closed the worker first
// drains every queued event; ctx bounds that wait, after which the worker is
// told to quit. With the queue still open the worker quits right away.
func (p *Processor) Stop(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&p.running, 1, 0) {
		return
	}
	draining := p.q.Closed()
	if draining {
		p.Resume()
	} else {
		close(p.stop)
	}
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("gateway_processor_stopped", "processed", p.Processed(), "failed", p.Failed(), "drained", draining)
	case <-ctx.Done():
		if draining {
			close(p.stop)
		}
		logger.Warn("gateway_processor_stop_timeout", "left", p.q.Len())
	}
}

// Processed is the number of events handed to the dispatcher.
func (p *Processor) Processed() uint64 { return atomic.LoadUint64(&p.processed) }

// Failed is the number of events the dispatcher returned an error for.
func (p *Processor) Failed() uint64 { return atomic.LoadUint64(&p.failed) }

func (p *Processor) workerLoop() {
	for {
		if atomic.LoadInt32(&p.paused) == 1 {
			select {
			case <-p.stop:
				return
			case <-time.After(50 * time.Millisecond):
				continue
			}
		}

		select {
		case it, ok := <-p.q.Out():
			if !ok {
				return
			}
			p.handle(it)
		case <-p.stop:
			return
		}
	}
}

func (p *Processor) handle(it *Item) {
	atomic.AddUint64(&p.processed, 1)
	if err := p.dispatcher.Dispatch(context.Background(), it.Envelope); err != nil {
		atomic.AddUint64(&p.failed, 1)
		logger.Error("gateway_dispatch_error", "kind", it.Envelope.T, "seq", it.EnqSeq, "error", err)
	}
}
