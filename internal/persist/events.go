package persist

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"math-worksheet-backend/internal/domain"
)

// EventRecorder stores admission events (memory or Redis stats store).
type EventRecorder interface {
	Record(ctx context.Context, ev domain.AdmissionEvent) error
}

// EventQueue hands admission events to a recorder from a background goroutine.
// Record never blocks: when the buffer is full the event is dropped and counted.
type EventQueue struct {
	recorder EventRecorder
	timeout  time.Duration
	logf     func(format string, args ...any)

	events  chan domain.AdmissionEvent
	dropped atomic.Int64
	failed  atomic.Int64
	done    chan struct{}
}

type QueueOption func(*EventQueue)

// WithRecordTimeout bounds each call into the recorder.
func WithRecordTimeout(d time.Duration) QueueOption {
	return func(q *EventQueue) { q.timeout = d }
}

func WithQueueLogf(logf func(format string, args ...any)) QueueOption {
	return func(q *EventQueue) { q.logf = logf }
}

func NewEventQueue(recorder EventRecorder, size int, opts ...QueueOption) *EventQueue {
	if size <= 0 {
		size = 1024
	}
	q := &EventQueue{
		recorder: recorder,
		timeout:  time.Second,
		logf:     log.Printf,
		events:   make(chan domain.AdmissionEvent, size),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Record enqueues ev. The request context is not used; the event outlives the request.
func (q *EventQueue) Record(_ context.Context, ev domain.AdmissionEvent) error {
	select {
	case q.events <- ev:
	default:
		q.dropped.Add(1)
	}
	return nil
}

// Run records queued events until ctx is canceled, then drains what is buffered and returns.
func (q *EventQueue) Run(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			q.drain()
			return
		case ev := <-q.events:
			q.record(ctx, ev)
		}
	}
}

func (q *EventQueue) Done() <-chan struct{} {
	return q.done
}

// Dropped is the number of events discarded because the buffer was full.
func (q *EventQueue) Dropped() int64 {
	return q.dropped.Load()
}

func (q *EventQueue) drain() {
	for {
		select {
		case ev := <-q.events:
			q.record(context.Background(), ev)
		default:
			return
		}
	}
}

func (q *EventQueue) record(ctx context.Context, ev domain.AdmissionEvent) {
	recCtx, cancel := context.WithTimeout(ctx, q.timeout)
	err := q.recorder.Record(recCtx, ev)
	cancel()
	if err == nil {
		return
	}
	// one line per 100 failures while the store is down
	if n := q.failed.Add(1); n%100 == 1 {
		q.logf("persist: record %s event: %v (%d failures so far)", ev.Stage, err, n)
	}
}
