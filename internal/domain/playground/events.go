package playground

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventType names what changed
type EventType string

const (
	EventState             EventType = "state"
	EventPreview           EventType = "preview"
	EventConsoleEntry      EventType = "console-entry"
	EventConsoleClear      EventType = "console-clear"
	EventConsoleVisibility EventType = "console-visibility"
	EventSandboxFailed     EventType = "sandbox-failed"
	EventSaved             EventType = "saved"
)

// Event is a notification to host UIs
type Event struct {
	Type EventType   `json:"type"`
	Time time.Time   `json:"time"`
	Data interface{} `json:"data,omitempty"`
}

// SavedData is the payload of EventSaved
type SavedData struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// VisibilityData is the payload of EventConsoleVisibility
type VisibilityData struct {
	Visible bool `json:"visible"`
}

// DefaultSubscriberBuffer is the channel size used when Subscribe gets 0
const DefaultSubscriberBuffer = 64

// Bus fans events out to subscribers. Publishing never blocks: a full
// subscriber misses the event.
type Bus struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Event
	next    uint64
	dropped atomic.Uint64
	closed  bool
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]chan Event)}
}

// Subscribe returns an event channel and a func that closes it
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.next++
	key := b.next
	b.subs[key] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[key]; ok {
				delete(b.subs, key)
				close(c)
			}
		})
	}
}

// Publish delivers ev to every subscriber with room for it
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped for full subscribers
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Subscribers returns the number of live subscriptions
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscription
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for key, ch := range b.subs {
		delete(b.subs, key)
		close(ch)
	}
}
