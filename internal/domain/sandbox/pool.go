package sandbox

import (
	"context"
	"errors"
	"sync"
)

// Pool keeps never-used runtimes ready so a run does not pay for VM setup.
// Runtimes are handed out once and never returned.
type Pool struct {
	config  Config
	ready   chan *Runtime
	size    int
	mu      sync.RWMutex
	closed  bool
	created int
}

// NewPool creates a pool and fills it
func NewPool(config Config) (*Pool, error) {
	size := config.PoolSize
	if size < 0 {
		size = 0
	}

	pool := &Pool{
		config: config,
		ready:  make(chan *Runtime, size),
		size:   size,
	}

	// Pre-create runtimes
	for i := 0; i < size; i++ {
		rt, err := New(config)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.created++
		pool.ready <- rt
	}

	return pool, nil
}

// Acquire takes a fresh runtime, waiting for a refill until ctx is done
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrPoolClosed
	}

	if p.size == 0 {
		rt, err := New(p.config)
		if err == nil {
			p.mu.Lock()
			p.created++
			p.mu.Unlock()
		}
		return rt, err
	}

	select {
	case rt, ok := <-p.ready:
		if !ok {
			return nil, ErrPoolClosed
		}
		go p.refill()
		return rt, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

func (p *Pool) refill() {
	rt, err := New(p.config)
	if err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.ready <- rt:
		p.created++
	default:
	}
}

// Close closes the pool and drops idle runtimes
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	close(p.ready)

	for rt := range p.ready {
		rt.Close()
	}

	return nil
}

// Stats returns pool statistics
func (p *Pool) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"size":      p.size,
		"available": len(p.ready),
		"created":   p.created,
		"closed":    p.closed,
	}
}
