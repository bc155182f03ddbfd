package relay

import (
	"errors"
	"sync"

	"github.com/GriffinCanCode/minicode/internal/shared/id"
)

var ErrStale = errors.New("message from inactive sandbox")

// Delivery describes the effect of an accepted message on the console
type Delivery struct {
	Message  Message
	Cleared  bool
	Entry    *Entry
	Revealed bool
}

// Relay routes tagged sandbox messages into a Console.
type Relay struct {
	mu      sync.Mutex
	active  id.SandboxID
	console *Console
}

// New creates a relay with no active sandbox
func New(console *Console) *Relay {
	return &Relay{console: console}
}

// Console returns the underlying console
func (r *Relay) Console() *Console {
	return r.console
}

// Activate makes tag the only accepted sandbox and clears the console so the
// new run starts empty.
func (r *Relay) Activate(tag id.SandboxID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = tag
	r.console.Clear()
}

// Deactivate stops accepting messages from any sandbox
func (r *Relay) Deactivate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = ""
}

// Active returns the currently accepted tag, if any
func (r *Relay) Active() id.SandboxID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Deliver applies msg if tag names the active sandbox. The check and the
// console update happen under one lock so a concurrent Activate cannot
// interleave between them.
func (r *Relay) Deliver(tag id.SandboxID, msg Message) (Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == "" || tag != r.active {
		return Delivery{}, ErrStale
	}

	d := Delivery{Message: msg}
	if msg.Type == TypeClear {
		r.console.Clear()
		d.Cleared = true
		return d, nil
	}

	kind, ok := msg.Type.Kind()
	if !ok {
		return Delivery{}, ErrMalformedMessage
	}
	entry, revealed := r.console.Append(kind, msg.Data)
	d.Entry = &entry
	d.Revealed = revealed
	return d, nil
}
