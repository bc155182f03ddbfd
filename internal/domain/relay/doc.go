// Package relay carries console activity from a preview sandbox back to the
// host.
//
// Message Types (sandbox → host):
//   - console-clear: discard the host console (sent once per run, first)
//   - console-log:   append a log entry, data = formatted arguments
//   - console-warn:  append a warn entry
//   - console-error: append an error entry; reveals a hidden console panel
//
// Messages are validated at the boundary and tagged with the sandbox that
// produced them. Relay accepts a message only while its tag names the active
// sandbox; anything from a replaced sandbox is dropped with ErrStale.
package relay
