package sandbox

import (
	"strings"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/minicode/internal/domain/relay"
)

// UserAgent is reported by navigator.userAgent
const UserAgent = "Mozilla/5.0 (compatible; MiniCodeSandbox/1.0)"

// setupGlobals installs the document-independent browser surface
func (r *Runtime) setupGlobals() error {
	// Remove dangerous globals
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	global := r.vm.GlobalObject()

	parent := r.vm.NewObject()
	if err := parent.Set("postMessage", r.postMessage); err != nil {
		return err
	}

	console := r.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
			return err
		}
	}

	location := r.vm.NewObject()
	_ = location.Set("href", "about:srcdoc")
	_ = location.Set("origin", "null")

	navigator := r.vm.NewObject()
	_ = navigator.Set("userAgent", UserAgent)
	_ = navigator.Set("language", "en")

	globals := map[string]interface{}{
		"window":    global,
		"self":      global,
		"parent":    parent,
		"top":       parent,
		"console":   console,
		"location":  location,
		"navigator": navigator,

		"addEventListener": func(call goja.FunctionCall) goja.Value {
			r.addListener("window", call)
			return goja.Undefined()
		},
		"removeEventListener": func(call goja.FunctionCall) goja.Value {
			r.removeListener("window", call)
			return goja.Undefined()
		},
		"postMessage": func(goja.FunctionCall) goja.Value { return goja.Undefined() },

		"setTimeout":            r.makeTimerFunc(false),
		"setInterval":           r.makeTimerFunc(true),
		"clearTimeout":          r.clearTimer,
		"clearInterval":         r.clearTimer,
		"requestAnimationFrame": r.requestAnimationFrame,
		"cancelAnimationFrame":  r.clearTimer,

		"alert": func(call goja.FunctionCall) goja.Value {
			r.record("info", "alert: "+call.Argument(0).String())
			return goja.Undefined()
		},
		"confirm": func(call goja.FunctionCall) goja.Value {
			r.record("info", "confirm: "+call.Argument(0).String())
			return r.vm.ToValue(false)
		},
		"prompt": func(call goja.FunctionCall) goja.Value {
			r.record("info", "prompt: "+call.Argument(0).String())
			return goja.Null()
		},
	}
	for name, value := range globals {
		if err := r.vm.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// postMessage bridges window.parent.postMessage to the relay. Messages that
// fail validation are counted and dropped.
func (r *Runtime) postMessage(call goja.FunctionCall) goja.Value {
	m, ok := call.Argument(0).Export().(map[string]interface{})
	if !ok {
		r.result.Rejected++
		return goja.Undefined()
	}
	msg, err := relay.FromMap(m)
	if err != nil {
		r.result.Rejected++
		return goja.Undefined()
	}
	r.result.Relayed++
	if r.emit != nil {
		r.emit(msg)
	}
	return goja.Undefined()
}

// makeConsoleFunc creates a developer console function
func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		r.record(level, strings.Join(parts, " "))
		return goja.Undefined()
	}
}

func (r *Runtime) makeTimerFunc(repeat bool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			return r.vm.ToValue(0)
		}
		var args []goja.Value
		if len(call.Arguments) > 2 {
			args = append(args, call.Arguments[2:]...)
		}
		return r.vm.ToValue(r.loop.add(fn, call.Argument(1).ToInteger(), args, repeat))
	}
}

func (r *Runtime) clearTimer(call goja.FunctionCall) goja.Value {
	r.loop.clear(call.Argument(0).ToInteger())
	return goja.Undefined()
}

func (r *Runtime) requestAnimationFrame(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		return r.vm.ToValue(0)
	}
	frame := func(this goja.Value, _ ...goja.Value) (goja.Value, error) {
		return fn(this, r.vm.ToValue(r.loop.now))
	}
	return r.vm.ToValue(r.loop.add(frame, 16, nil, false))
}
