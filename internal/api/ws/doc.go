// Package ws streams workspace events to connected host UIs over WebSocket.
//
// Each connection gets its own bus subscription. The first frame is a hello
// carrying the client id and a full snapshot; after that every playground
// event (state, preview, console-entry, console-clear, console-visibility,
// sandbox-failed, saved) is forwarded as JSON. A slow client loses events
// rather than stalling the workspace.
//
// Message Types (Client → Server):
//   - ping: Keep-alive, answered with pong
//
// Example Usage:
//
//	hub := ws.NewHub(workspace, ws.Options{Recorder: metrics})
//	router.GET("/stream", hub.HandleConnection)
package ws
