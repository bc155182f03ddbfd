package sandbox

import (
	"time"

	"github.com/GriffinCanCode/minicode/internal/domain/relay"
	"github.com/GriffinCanCode/minicode/internal/shared/id"
)

// DocumentCSP is sent with every served sandbox document. The sandbox
// directive without allow-same-origin gives the document an opaque origin.
const DocumentCSP = "sandbox allow-scripts allow-modals; default-src 'none'; " +
	"script-src 'unsafe-inline'; style-src 'unsafe-inline'; img-src data:; font-src data:"

// Config defines sandbox configuration
type Config struct {
	Timeout          time.Duration // Whole-run budget, timers included
	MaxCallStackSize int           // Maximum JS call depth
	MaxTimers        int           // Timer callbacks per run
	MaxRepeats       int           // Callbacks per setInterval; it also stops past Timeout in virtual time
	PoolSize         int           // Warm runtimes kept ready; 0 creates on demand
	AcquireTimeout   time.Duration // Wait for a runtime before failing creation
	Headless         bool          // Execute documents in goja as well as serving them
}

// DefaultConfig returns the standard sandbox configuration
func DefaultConfig() Config {
	return Config{
		Timeout:          5 * time.Second,
		MaxCallStackSize: 1024,
		MaxTimers:        1000,
		MaxRepeats:       10,
		PoolSize:         2,
		AcquireTimeout:   2 * time.Second,
		Headless:         true,
	}
}

// LogEntry is one line of the sandbox's own developer console
type LogEntry struct {
	Level   string    // log, info, warn, error, debug
	Message string    // Arguments joined by spaces
	Time    time.Time // Timestamp
}

// DOMChange records a mutation made through the DOM shim
type DOMChange struct {
	Type     string // set_attribute, set_text, set_html, append_child
	Selector string // Best-effort path of the target element
	Property string // Attribute or property name
	Value    string // New value
}

// Result summarizes a headless execution
type Result struct {
	Console     []LogEntry    // Developer console output
	DOMChanges  []DOMChange   // DOM modifications
	Relayed     int           // Messages posted to the parent
	Rejected    int           // Posted messages that failed validation
	TimersFired int           // Timer callbacks run
	Duration    time.Duration // Execution time
	Error       error         // Interrupt or internal failure
}

// Observer receives sandbox lifecycle and relay traffic. Created is called
// before the handle can emit any message.
type Observer interface {
	SandboxCreated(h *Handle)
	SandboxDestroyed(sandboxID id.SandboxID)
	SandboxMessage(sandboxID id.SandboxID, msg relay.Message)
}
