package persistence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/minicode/internal/domain/source"
)

// Writer saves snapshots off the caller's goroutine. Only the newest
// submitted snapshot is kept; intermediate ones are skipped.
type Writer struct {
	store   *Store
	logger  *zap.Logger
	timeout time.Duration

	mu     sync.Mutex
	latest *source.State
	saveMu sync.Mutex

	wake      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	onSaved func(err error)
}

// NewWriter starts the background writer. onSaved, if set, is called after
// each attempted write with nil on success.
func NewWriter(store *Store, timeout time.Duration, logger *zap.Logger, onSaved func(err error)) *Writer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Writer{
		store:   store,
		logger:  logger,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		onSaved: onSaved,
	}
	go w.loop()
	return w
}

// Submit queues a snapshot and returns immediately
func (w *Writer) Submit(state source.State) {
	w.mu.Lock()
	w.latest = &state
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush writes the queued snapshot, if any, before returning
func (w *Writer) Flush() {
	w.drain()
}

// Close flushes and stops the writer
func (w *Writer) Close() {
	w.closeOnce.Do(func() {
		close(w.quit)
	})
	<-w.done
}

func (w *Writer) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	w.mu.Lock()
	state := w.latest
	w.latest = nil
	w.mu.Unlock()

	if state == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	err := w.store.Save(ctx, *state)
	if err != nil {
		w.logger.Warn("Failed to persist state", zap.Error(err))
	}
	if w.onSaved != nil {
		w.onSaved(err)
	}
}
