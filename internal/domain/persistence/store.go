package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/minicode/internal/domain/source"
	"github.com/GriffinCanCode/minicode/internal/infrastructure/resilience"
)

// DefaultKey is the fixed storage key of the saved record
const DefaultKey = "minicode-data"

var ErrSuspended = errors.New("persistence suspended after repeated failures")

// Options tunes the store
type Options struct {
	Key string
	// MaxFailures consecutive write failures suspend writes for Cooldown
	MaxFailures int
	Cooldown    time.Duration
}

// DefaultOptions returns the standard store options
func DefaultOptions() Options {
	return Options{
		Key:         DefaultKey,
		MaxFailures: 5,
		Cooldown:    30 * time.Second,
	}
}

// Store saves and loads source state through a Backend
type Store struct {
	backend Backend
	opts    Options
	logger  *zap.Logger

	breaker *resilience.Breaker

	mu        sync.Mutex
	lastSaved time.Time
	now       func() time.Time
}

// NewStore wraps a backend
func NewStore(backend Backend, opts Options, logger *zap.Logger) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = DefaultOptions().MaxFailures
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultOptions().Cooldown
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		backend: backend,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
	s.breaker = resilience.New("persistence", resilience.Settings{
		Timeout:     opts.Cooldown,
		ReadyToTrip: resilience.ConsecutiveFailures(uint32(opts.MaxFailures)),
		Now:         func() time.Time { return s.now() },
		OnStateChange: func(_ string, from, to resilience.State) {
			if to == resilience.StateOpen {
				logger.Warn("Suspending persistence after repeated failures",
					zap.Duration("cooldown", opts.Cooldown))
				return
			}
			logger.Info("Persistence breaker state changed",
				zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})
	return s
}

// Key returns the storage key
func (s *Store) Key() string {
	return s.opts.Key
}

// Save writes the state. No retry.
func (s *Store) Save(ctx context.Context, state source.State) error {
	data, err := EncodeRecord(state)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	err = s.breaker.Do(func() error {
		return s.backend.Put(ctx, s.opts.Key, data)
	})
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return ErrSuspended
	case err != nil:
		return fmt.Errorf("failed to save state: %w", err)
	}

	s.mu.Lock()
	s.lastSaved = s.now()
	s.mu.Unlock()
	return nil
}

// Load returns the saved state. The boolean is false when nothing usable was
// saved, in which case the default state is returned. Never fails.
func (s *Store) Load(ctx context.Context) (source.State, bool) {
	raw, err := s.backend.Get(ctx, s.opts.Key)
	if errors.Is(err, ErrNotFound) {
		return source.Default(), false
	}
	if err != nil {
		s.logger.Warn("Failed to read saved state", zap.Error(err))
		return source.Default(), false
	}

	state, defaulted, err := DecodeRecord(raw)
	if err != nil {
		s.logger.Warn("Failed to load saved data", zap.Error(err))
		return source.Default(), false
	}
	if len(defaulted) > 0 {
		s.logger.Debug("Saved record missing fields, using defaults", zap.Strings("fields", defaulted))
	}
	return state, true
}

// LastSaved returns the time of the last successful save
func (s *Store) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

// Close closes the backend
func (s *Store) Close() error {
	return s.backend.Close()
}
