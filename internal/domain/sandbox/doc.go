/*
Package sandbox runs assembled preview documents in isolated execution
contexts.

# Overview

Exactly one sandbox handle is live at a time. Run destroys the previous
handle before creating the next, so a preview run always starts from a clean
global environment and nothing leaks between runs.

Each handle has two faces:

  - A single-use document locator, /sandbox/{id}/{token}, that a browser
    host loads into an iframe. The token is a random UUID and the document
    can be fetched once; it is served with a CSP sandbox policy so it gets
    an opaque origin and no network access.
  - Optionally, a headless execution of the same document in a fresh goja
    runtime, which is how the backend itself observes console output.

# Headless runtime

The runtime exposes the subset of the browser environment that preview
documents rely on:

  - window / self, window.parent.postMessage (the relay bridge)
  - console.log/info/warn/error/debug, recorded as the sandbox's own
    developer console
  - document with a DOM shim over the document body (goquery)
  - addEventListener for error, DOMContentLoaded and load
  - setTimeout/setInterval on a virtual clock, bounded by MaxTimers; an
    interval stops after MaxRepeats callbacks or past Timeout virtual time

Uncaught errors (syntax errors in a script element, errors thrown by
listeners or timers) are dispatched to window error listeners with message
and line number, which is how the instrumentation reports them.

# Resource limits

  - Timeout bounds the whole run, including timers; the VM is interrupted
    when it elapses or when the handle is destroyed.
  - MaxCallStackSize bounds recursion.
  - A warm pool keeps never-used runtimes ready; runtimes are never reused.

# Errors

When a runtime cannot be obtained, Run returns a *CreationError. The
previous handle is already gone by then: callers should treat it as a blank
preview, not an unchanged one.
*/
package sandbox
