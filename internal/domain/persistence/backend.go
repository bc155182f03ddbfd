package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrNotFound       = errors.New("key not found")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Backend is a minimal durable key/value store
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Kind names a backend implementation
type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindMemory Kind = "memory"
)

// Open creates the backend selected by kind. path is a directory for file,
// a database file for sqlite, and ignored for memory.
func Open(kind string, path string) (Backend, error) {
	switch Kind(strings.ToLower(kind)) {
	case KindFile, "":
		return NewFileBackend(path)
	case KindSQLite:
		return NewSQLiteBackend(path)
	case KindMemory:
		return NewMemoryBackend(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
}

// OpenOrMemory opens the configured backend and falls back to a memory
// backend when it is unavailable, so the playground keeps running without
// durable storage.
func OpenOrMemory(kind string, path string, logger *zap.Logger) Backend {
	backend, err := Open(kind, path)
	if err == nil {
		return backend
	}
	if logger != nil {
		logger.Warn("Storage unavailable, keeping state in memory",
			zap.String("backend", kind),
			zap.String("path", path),
			zap.Error(err))
	}
	return NewMemoryBackend()
}
