package audit

import (
	"context"
	"sync"
	"time"
)

// defaultQueueSize is the entry buffer used when none is configured.
const defaultQueueSize = 256

// Logger is the logging interface used by Writer.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Writer persists entries asynchronously and serially.
//
// Thread Safety: Enqueue is safe for concurrent use.
type Writer struct {
	repo   Repository
	logger Logger
	queue  chan *Entry

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewWriter creates a Writer on repo. Call Run to start draining.
func NewWriter(repo Repository, queueSize int, logger Logger) *Writer {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Writer{
		repo:   repo,
		logger: logger,
		queue:  make(chan *Entry, queueSize),
		done:   make(chan struct{}),
	}
}

// Enqueue queues e without blocking. Returns false when the entry was dropped.
func (w *Writer) Enqueue(e *Entry) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}

	select {
	case w.queue <- e:
		return true
	default:
		w.logger.Warn("audit queue full, dropping entry",
			"namespace", e.Namespace,
			"name", e.Name,
		)
		return false
	}
}

// Run writes queued entries until Close is called, then drains what is left.
// Blocks; run it in its own goroutine.
func (w *Writer) Run() {
	defer close(w.done)
	for e := range w.queue {
		w.write(e)
	}
}

// Close stops accepting entries and waits for Run to drain the queue, up to
// ctx's deadline.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) write(e *Entry) {
	// Entries outlive the request that produced them.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.repo.Create(ctx, e); err != nil {
		w.logger.Error("audit write failed",
			"namespace", e.Namespace,
			"name", e.Name,
			"error", err,
		)
	}
}
