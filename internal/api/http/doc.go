// Package http exposes the playground core over a JSON API.
//
// Every editor action a host UI performs maps to one route: buffer edits,
// run, reset, theme, layout and console toggles, save, export, copy and
// keyboard commands. Two routes serve the preview itself:
//
//   - GET /sandbox/:id/:token returns the assembled document once, with a
//     sandboxing Content-Security-Policy. A second fetch is 410 Gone.
//   - POST /api/sandboxes/:id/messages relays a console message posted by
//     that document. Messages from a replaced sandbox are answered with 409.
//
// Sandbox creation failures are not HTTP errors: the preview is returned with
// failed set and the host shows it blank.
package http
