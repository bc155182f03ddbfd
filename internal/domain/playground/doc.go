/*
Package playground is the core façade a host UI talks to.

A Workspace owns the editor state and wires the preview pipeline:

	edit -> debounce -> assemble -> sandbox run -> relay -> console
	                          \-> persistence (async, latest wins)

Hosts never call into the pipeline stages directly. They issue operations
(OnEdit, RunNow, ToggleTheme, ...) or keyboard commands (Dispatch), and
observe results through Subscribe, which streams Events instead of relying
on shared mutable UI state.

Failures below the Workspace never reach the host as panics or fatal
errors: sandbox creation failures become a failed Preview plus a
sandbox-failed event, storage failures are logged and reported through the
saved event, and stale or malformed relay messages are dropped and counted.
*/
package playground
