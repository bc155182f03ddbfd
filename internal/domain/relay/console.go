package relay

import (
	"sync"
	"time"
)

// Kind classifies a console entry
type Kind string

const (
	KindLog   Kind = "log"
	KindWarn  Kind = "warn"
	KindError Kind = "error"
)

// Entry is one line in the host console panel
type Entry struct {
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Console is the host-side entry log plus panel visibility.
type Console struct {
	mu      sync.RWMutex
	entries []Entry
	visible bool
	max     int
	dropped int
	now     func() time.Time
}

// NewConsole creates a hidden, empty console. max bounds the number of
// retained entries (oldest evicted first); zero means unbounded.
func NewConsole(max int) *Console {
	return &Console{
		entries: []Entry{},
		max:     max,
		now:     time.Now,
	}
}

// Append adds an entry. An error entry reveals a hidden panel; the return
// value reports whether that happened.
func (c *Console) Append(kind Kind, message string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry{Kind: kind, Message: message, Timestamp: c.now()}
	c.entries = append(c.entries, entry)
	if c.max > 0 && len(c.entries) > c.max {
		over := len(c.entries) - c.max
		c.entries = append([]Entry{}, c.entries[over:]...)
		c.dropped += over
	}

	revealed := false
	if kind == KindError && !c.visible {
		c.visible = true
		revealed = true
	}
	return entry, revealed
}

// Clear discards every entry
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = []Entry{}
	c.dropped = 0
}

// Toggle flips panel visibility and returns the new value
func (c *Console) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = !c.visible
	return c.visible
}

// Visible reports whether the panel is shown
func (c *Console) Visible() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visible
}

// Entries returns a copy of the current entries in arrival order
func (c *Console) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry{}, c.entries...)
}

// Dropped returns how many entries were evicted since the last clear
func (c *Console) Dropped() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dropped
}
