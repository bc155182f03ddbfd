package sandbox

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/minicode/internal/domain/relay"
	"github.com/GriffinCanCode/minicode/internal/shared/id"
)

// Handle is one live execution context. A headless handle relays messages
// from its goja run until the document is served; serving hands the handle
// over to the browser and stops the goja run, so messages always have a
// single source.
type Handle struct {
	ID        id.SandboxID
	Token     string
	Document  string
	CreatedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	headless  bool
	served    bool
	destroyed bool
	result    *Result
}

func newHandle(document string) *Handle {
	return &Handle{
		ID:        id.NewSandboxID(),
		Token:     uuid.NewString(),
		Document:  document,
		CreatedAt: time.Now(),
		cancel:    func() {},
		done:      make(chan struct{}),
	}
}

// URL is the single-use document locator
func (h *Handle) URL() string {
	return "/sandbox/" + h.ID.String() + "/" + h.Token
}

// Done is closed when headless execution has finished
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result returns the headless execution summary, nil until Done
func (h *Handle) Result() *Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// Destroyed reports whether the handle was torn down
func (h *Handle) Destroyed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed
}

// Served reports whether the document was fetched
func (h *Handle) Served() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.served
}

// Forwarded reports whether messages forwarded by the browser page belong
// to this handle, i.e. no goja run owns it.
func (h *Handle) Forwarded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.destroyed && (!h.headless || h.served)
}

func (h *Handle) destroy() {
	h.mu.Lock()
	h.destroyed = true
	h.mu.Unlock()
	h.cancel()
}

// Runner owns the single live sandbox
type Runner struct {
	config   Config
	pool     *Pool
	observer Observer
	logger   *zap.Logger

	mu      sync.Mutex
	current *Handle
	closed  bool
	wg      sync.WaitGroup
}

// NewRunner creates a runner; the pool is only filled in headless mode
func NewRunner(config Config, observer Observer, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runner{
		config:   config,
		observer: observer,
		logger:   logger,
	}

	if config.Headless {
		pool, err := NewPool(config)
		if err != nil {
			return nil, err
		}
		r.pool = pool
	}

	return r, nil
}

// Run destroys the live handle and creates a new one for document. On
// failure the previous handle stays destroyed and a *CreationError is
// returned.
func (r *Runner) Run(ctx context.Context, document string) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.destroyLocked()

	if r.closed {
		return nil, &CreationError{Cause: ErrRunnerClosed}
	}

	var rt *Runtime
	if r.pool != nil {
		acquireCtx := ctx
		if r.config.AcquireTimeout > 0 {
			var cancel context.CancelFunc
			acquireCtx, cancel = context.WithTimeout(ctx, r.config.AcquireTimeout)
			defer cancel()
		}
		var err error
		rt, err = r.pool.Acquire(acquireCtx)
		if err != nil {
			r.logger.Warn("Sandbox creation failed", zap.Error(err))
			return nil, &CreationError{Cause: err}
		}
	}

	h := newHandle(document)
	h.headless = rt != nil
	r.current = h
	if r.observer != nil {
		r.observer.SandboxCreated(h)
	}

	if rt == nil {
		close(h.done)
		return h, nil
	}

	// Execution outlives the caller's request context
	execCtx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	r.wg.Add(1)
	go r.execute(execCtx, h, rt)

	return h, nil
}

func (r *Runner) execute(ctx context.Context, h *Handle, rt *Runtime) {
	defer r.wg.Done()
	defer close(h.done)

	// h.mu is held across delivery so Open cannot interleave a handover
	emit := func(msg relay.Message) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.served || h.destroyed || r.observer == nil {
			return
		}
		r.observer.SandboxMessage(h.ID, msg)
	}

	result, err := rt.Execute(ctx, h.Document, emit)

	h.mu.Lock()
	h.result = result
	h.mu.Unlock()

	switch {
	case err == nil:
		r.logger.Debug("Sandbox run finished",
			zap.String("sandbox_id", h.ID.String()),
			zap.Duration("duration", result.Duration),
			zap.Int("relayed", result.Relayed),
			zap.Int("timers", result.TimersFired))
	case errors.Is(err, context.Canceled):
		r.logger.Debug("Sandbox run cancelled", zap.String("sandbox_id", h.ID.String()))
	default:
		r.logger.Warn("Sandbox run ended with error",
			zap.String("sandbox_id", h.ID.String()),
			zap.Error(err))
	}
}

// Open returns the live handle's document exactly once. A headless run of
// that handle is stopped: from here on the browser page is its only source.
func (r *Runner) Open(sandboxID id.SandboxID, token string) (string, error) {
	r.mu.Lock()
	h := r.current
	r.mu.Unlock()

	if h == nil || h.ID != sandboxID {
		return "", ErrNotFound
	}
	if subtle.ConstantTimeCompare([]byte(h.Token), []byte(token)) != 1 {
		return "", ErrNotFound
	}

	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return "", ErrNotFound
	}
	if h.served {
		h.mu.Unlock()
		return "", ErrConsumed
	}
	h.served = true
	headless := h.headless
	h.mu.Unlock()

	if headless {
		h.cancel()
		r.logger.Debug("Sandbox handed over to browser", zap.String("sandbox_id", h.ID.String()))
	}
	return h.Document, nil
}

// Forwarded reports whether browser-forwarded messages tagged sandboxID are
// accepted: the handle must be live and not owned by a goja run.
func (r *Runner) Forwarded(sandboxID id.SandboxID) bool {
	r.mu.Lock()
	h := r.current
	r.mu.Unlock()
	return h != nil && h.ID == sandboxID && h.Forwarded()
}

// Current returns the live handle, or nil
func (r *Runner) Current() *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Destroy tears down the live handle, if any
func (r *Runner) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyLocked()
}

func (r *Runner) destroyLocked() {
	if r.current == nil {
		return
	}
	h := r.current
	r.current = nil
	h.destroy()
	if r.observer != nil {
		r.observer.SandboxDestroyed(h.ID)
	}
}

// Stats returns pool statistics, empty when not headless
func (r *Runner) Stats() map[string]interface{} {
	if r.pool == nil {
		return map[string]interface{}{"headless": false}
	}
	stats := r.pool.Stats()
	stats["headless"] = true
	return stats
}

// Close destroys the live handle and waits for running executions
func (r *Runner) Close() error {
	r.mu.Lock()
	r.destroyLocked()
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()
	if r.pool != nil {
		return r.pool.Close()
	}
	return nil
}
