// Package id provides ULID-based identifiers for the playground backend.
//
// IDs are prefixed by kind so log lines stay readable:
//   - sbx_*: a sandbox handle (one per preview run)
//   - cli_*: a connected host UI client
//   - req_*: an HTTP request
//
// All IDs come from one monotonic source, so a later sandbox always sorts
// after an earlier one, even within the same millisecond.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SandboxID identifies a sandbox handle
type SandboxID string

// ClientID identifies a host UI connection
type ClientID string

// RequestID identifies an API request
type RequestID string

const (
	SandboxPrefix = "sbx"
	ClientPrefix  = "cli"
	RequestPrefix = "req"
)

// Source hands out strictly increasing ULIDs. Safe for concurrent use.
type Source struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

var global = NewSource(rand.Reader)

// NewSource creates a monotonic source over r
func NewSource(r io.Reader) *Source {
	return &Source{
		entropy: ulid.Monotonic(r, 0),
		now:     time.Now,
	}
}

// Next returns the next ULID
func (s *Source) Next() ulid.ULID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy)
}

// Prefixed returns "prefix_ULID"
func (s *Source) Prefixed(prefix string) string {
	return prefix + "_" + s.Next().String()
}

// NewSandboxID generates a new sandbox ID
func NewSandboxID() SandboxID { return SandboxID(global.Prefixed(SandboxPrefix)) }

// NewClientID generates a new client ID
func NewClientID() ClientID { return ClientID(global.Prefixed(ClientPrefix)) }

// NewRequestID generates a new request ID
func NewRequestID() RequestID { return RequestID(global.Prefixed(RequestPrefix)) }

func (id SandboxID) String() string { return string(id) }
func (id ClientID) String() string  { return string(id) }
func (id RequestID) String() string { return string(id) }

// Created returns when the sandbox ID was minted
func (id SandboxID) Created() (time.Time, error) {
	u, err := ulid.ParseStrict(strings.TrimPrefix(string(id), SandboxPrefix+"_"))
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}

// ParseSandboxID validates an externally supplied sandbox ID, e.g. from a
// URL path segment.
func ParseSandboxID(s string) (SandboxID, error) {
	if !HasPrefix(s, SandboxPrefix) {
		return "", fmt.Errorf("invalid sandbox id %q", s)
	}
	return SandboxID(s), nil
}

// HasPrefix reports whether s is a well-formed "prefix_ULID" string.
func HasPrefix(s, prefix string) bool {
	rest, ok := strings.CutPrefix(s, prefix+"_")
	if !ok {
		return false
	}
	_, err := ulid.ParseStrict(rest)
	return err == nil
}
