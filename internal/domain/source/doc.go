// Package source holds the playground's authoritative editor state.
//
// A State carries the three source buffers (HTML, CSS, JavaScript) plus the
// two presentation preferences that survive reloads (dark theme, vertical
// layout). Absent buffers default to a fixed sample program.
//
// State is a plain value: copy it freely. The playground workspace owns the
// live instance and is the only writer.
package source
