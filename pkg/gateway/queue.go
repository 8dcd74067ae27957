package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"fosscord/pkg/models"
)

var (
	ErrQueueFull   = errors.New("gateway event queue full")
	ErrQueueClosed = errors.New("gateway event queue closed")
)

// Item is one queued dispatch frame.
type Item struct {
	Envelope   models.Envelope
	EnqSeq     uint64
	ReceivedAt time.Time
}

// EventQueue is a bounded FIFO of dispatch frames.
type EventQueue struct {
	ch        chan *Item
	capacity  int
	dropped   uint64
	closed    int32
	enqSeq    uint64
	enqWg     sync.WaitGroup
	closeOnce sync.Once
}

// NewEventQueue creates a queue of the given capacity (>0).
func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		panic("gateway.NewEventQueue: capacity must be > 0; ensure config.Validate() applied defaults")
	}
	return &EventQueue{ch: make(chan *Item, capacity), capacity: capacity}
}

// TryEnqueue adds env without blocking; a full queue drops it with ErrQueueFull.
func (q *EventQueue) TryEnqueue(env models.Envelope) error {
	it, err := q.begin(env)
	if err != nil {
		return err
	}
	defer q.enqWg.Done()
	select {
	case q.ch <- it:
		return nil
	default:
		atomic.AddUint64(&q.dropped, 1)
		return ErrQueueFull
	}
}

// Enqueue blocks until there is room or ctx is done.
func (q *EventQueue) Enqueue(ctx context.Context, env models.Envelope) error {
	it, err := q.begin(env)
	if err != nil {
		return err
	}
	defer q.enqWg.Done()
	select {
	case q.ch <- it:
		return nil
	case <-ctx.Done():
		atomic.AddUint64(&q.dropped, 1)
		return ctx.Err()
	}
}

func (q *EventQueue) begin(env models.Envelope) (*Item, error) {
	if atomic.LoadInt32(&q.closed) == 1 {
		return nil, ErrQueueClosed
	}
	q.enqWg.Add(1)
	if atomic.LoadInt32(&q.closed) == 1 {
		q.enqWg.Done()
		return nil, ErrQueueClosed
	}
	return &Item{
		Envelope:   env,
		EnqSeq:     atomic.AddUint64(&q.enqSeq, 1),
		ReceivedAt: time.Now(),
	}, nil
}

// Close stops accepting frames. Frames already queued stay readable from Out.
func (q *EventQueue) Close() {
	if !atomic.CompareAndSwapInt32(&q.closed, 0, 1) {
		return
	}
	// wait for in-flight enqueuers before closing the channel
	q.enqWg.Wait()
	q.closeOnce.Do(func() { close(q.ch) })
}

func (q *EventQueue) Out() <-chan *Item { return q.ch }

// Closed reports whether Close has been called.
func (q *EventQueue) Closed() bool { return atomic.LoadInt32(&q.closed) == 1 }

func (q *EventQueue) Len() int { return len(q.ch) }

func (q *EventQueue) Cap() int { return q.capacity }

// Dropped returns how many frames were rejected while full or cancelled.
func (q *EventQueue) Dropped() uint64 { return atomic.LoadUint64(&q.dropped) }
