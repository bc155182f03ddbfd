package source

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownBuffer = errors.New("unknown buffer")

// Buffer names one of the three editor panes
type Buffer string

const (
	HTML Buffer = "html"
	CSS  Buffer = "css"
	JS   Buffer = "js"
)

// Buffers lists the panes in display order
var Buffers = []Buffer{HTML, CSS, JS}

// ParseBuffer accepts "html", "css", "js" (and "javascript") in any case.
func ParseBuffer(s string) (Buffer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html":
		return HTML, nil
	case "css":
		return CSS, nil
	case "js", "javascript":
		return JS, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBuffer, s)
}

// State is the editor content plus UI preferences
type State struct {
	HTML             string `json:"html"`
	CSS              string `json:"css"`
	JS               string `json:"js"`
	IsDarkTheme      bool   `json:"isDarkTheme"`
	IsVerticalLayout bool   `json:"isVerticalLayout"`
}

// Default returns the sample program with default preferences
func Default() State {
	return State{
		HTML:             DefaultHTML,
		CSS:              DefaultCSS,
		JS:               DefaultJS,
		IsDarkTheme:      true,
		IsVerticalLayout: false,
	}
}

// Get returns the text of one buffer
func (s State) Get(b Buffer) (string, error) {
	switch b {
	case HTML:
		return s.HTML, nil
	case CSS:
		return s.CSS, nil
	case JS:
		return s.JS, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBuffer, b)
}

// With returns a copy of s with one buffer replaced
func (s State) With(b Buffer, text string) (State, error) {
	switch b {
	case HTML:
		s.HTML = text
	case CSS:
		s.CSS = text
	case JS:
		s.JS = text
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownBuffer, b)
	}
	return s, nil
}

// ResetCode restores the sample program but keeps the preferences.
func (s State) ResetCode() State {
	d := Default()
	s.HTML, s.CSS, s.JS = d.HTML, d.CSS, d.JS
	return s
}
