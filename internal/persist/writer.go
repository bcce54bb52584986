// Package persist writes state snapshots in the background so request handlers never
// wait on disk or network I/O.
package persist

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// Store is a named blob store for snapshots (file, Redis, memory).
type Store interface {
	Save(ctx context.Context, name string, data []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
}

// Writer coalesces snapshot notifications and saves the latest payload per name.
// Failures are logged and otherwise ignored; the in-memory state stays authoritative.
type Writer struct {
	store   Store
	timeout time.Duration
	logf    func(format string, args ...any)

	mu      sync.Mutex
	pending map[string][]byte

	wake chan struct{}
	done chan struct{}
}

type WriterOption func(*Writer)

// WithSaveTimeout bounds each individual save.
func WithSaveTimeout(d time.Duration) WriterOption {
	return func(w *Writer) { w.timeout = d }
}

// WithLogf replaces log.Printf for failure reports.
func WithLogf(logf func(format string, args ...any)) WriterOption {
	return func(w *Writer) { w.logf = logf }
}

func NewWriter(store Store, opts ...WriterOption) *Writer {
	w := &Writer{
		store:   store,
		timeout: 5 * time.Second,
		logf:    log.Printf,
		pending: make(map[string][]byte),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Notify queues payload for name, replacing any payload not yet written. It never blocks.
func (w *Writer) Notify(name string, payload []byte) {
	w.mu.Lock()
	w.pending[name] = payload
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run saves queued snapshots until ctx is canceled, then flushes once more and returns.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.flush(context.Background())
			return
		case <-w.wake:
			w.flush(ctx)
		}
	}
}

// Done is closed when Run has returned.
func (w *Writer) Done() <-chan struct{} {
	return w.done
}

// Flush writes whatever is pending synchronously.
func (w *Writer) Flush(ctx context.Context) {
	w.flush(ctx)
}

func (w *Writer) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.pending
	w.pending = make(map[string][]byte, len(batch))
	w.mu.Unlock()

	names := make([]string, 0, len(batch))
	for name := range batch {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		saveCtx, cancel := context.WithTimeout(ctx, w.timeout)
		err := w.store.Save(saveCtx, name, batch[name])
		cancel()
		if err != nil {
			w.logf("persist: save %s snapshot: %v", name, err)
		}
	}
}
