// Package server wires configuration, the playground core and the HTTP
// surface into one process.
//
// NewServer creates the metrics registry, the Workspace (which loads the
// saved state and renders the first preview), the WebSocket hub and the gin
// router with its middleware stack. Shutdown reverses that: the listener
// stops, host UIs are disconnected, and the Workspace commits any pending
// edit before the caller closes the store.
package server
