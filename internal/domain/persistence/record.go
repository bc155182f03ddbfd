package persistence

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/minicode/internal/domain/source"
)

var ErrMalformedRecord = errors.New("malformed saved record")

// record is the persisted layout
type record struct {
	HTML   string `json:"html"`
	CSS    string `json:"css"`
	JS     string `json:"js"`
	Theme  bool   `json:"theme"`
	Layout bool   `json:"layout"`
}

// EncodeRecord serializes a state into the persisted layout
func EncodeRecord(s source.State) ([]byte, error) {
	return sonic.Marshal(record{
		HTML:   s.HTML,
		CSS:    s.CSS,
		JS:     s.JS,
		Theme:  s.IsDarkTheme,
		Layout: s.IsVerticalLayout,
	})
}

// DecodeRecord restores a state. Fields that are missing or of the wrong
// type keep their defaults and are named in the returned list; an
// unparseable record is ErrMalformedRecord.
func DecodeRecord(raw []byte) (source.State, []string, error) {
	var fields map[string]interface{}
	if err := sonic.Unmarshal(raw, &fields); err != nil {
		return source.Default(), nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if fields == nil {
		return source.Default(), nil, fmt.Errorf("%w: not an object", ErrMalformedRecord)
	}

	state := source.Default()
	var defaulted []string

	str := func(key string, dst *string) {
		if v, ok := fields[key].(string); ok {
			*dst = v
			return
		}
		defaulted = append(defaulted, key)
	}
	flag := func(key string, dst *bool) {
		if v, ok := fields[key].(bool); ok {
			*dst = v
			return
		}
		defaulted = append(defaulted, key)
	}

	str("html", &state.HTML)
	str("css", &state.CSS)
	str("js", &state.JS)
	flag("theme", &state.IsDarkTheme)
	flag("layout", &state.IsVerticalLayout)

	return state, defaulted, nil
}
