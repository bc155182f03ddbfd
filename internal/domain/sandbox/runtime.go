package sandbox

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"

	"github.com/GriffinCanCode/minicode/internal/domain/relay"
)

// ScriptName is the file name reported in stack traces for document scripts.
const ScriptName = "preview.html"

var (
	stackPosition = regexp.MustCompile(regexp.QuoteMeta(ScriptName) + `:(\d+):(\d+)`)
	parserPrefix  = regexp.MustCompile(`Line (\d+):(\d+) (.*)$`)
)

type listener struct {
	value goja.Value
	fn    goja.Callable
}

// Runtime wraps a goja VM emulating the browser surface of a preview
// document. A runtime executes exactly one document.
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex
	used   bool

	// Developer console output
	console   []LogEntry
	consoleMu sync.Mutex

	// Execution state, touched only by the executing goroutine
	dom        *DOM
	emit       func(relay.Message)
	result     *Result
	loop       *eventLoop
	listeners  map[string]map[string][]listener
	readyState string
	elements   elementCache
}

// New creates a fresh runtime
func New(config Config) (*Runtime, error) {
	vm := goja.New()
	if config.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(config.MaxCallStackSize)
	}

	r := &Runtime{
		vm:         vm,
		config:     config,
		loop:       newEventLoop(config.MaxTimers, config.MaxRepeats, config.Timeout.Milliseconds()),
		listeners:  make(map[string]map[string][]listener),
		readyState: "loading",
		elements:   newElementCache(),
	}

	if err := r.setupGlobals(); err != nil {
		return nil, err
	}
	return r, nil
}

// Execute runs every script of document, then the load events, then drains
// timers within the timer budget. Interruption stops it at any point.
// emit receives each valid message posted to window.parent.
func (r *Runtime) Execute(ctx context.Context, document string, emit func(relay.Message)) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.used {
		return nil, ErrRuntimeUsed
	}
	r.used = true

	start := time.Now()
	r.result = &Result{}
	r.emit = emit

	runCtx := ctx
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	// Setup interrupt handler
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-runCtx.Done():
			r.vm.Interrupt(runCtx.Err())
		case <-stop:
		}
	}()

	dom, err := NewDOM(document)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	r.dom = dom
	if err := r.injectDocument(); err != nil {
		return nil, fmt.Errorf("failed to inject document: %w", err)
	}

	scripts, err := extractScripts(document)
	if err != nil {
		return nil, fmt.Errorf("failed to extract scripts: %w", err)
	}

	err = r.runScripts(scripts)
	if err == nil {
		err = r.dispatchLoaded()
	}
	if err == nil {
		err = r.runTimers(runCtx)
	}

	r.result.Duration = time.Since(start)
	r.result.Console = r.Console()
	r.result.DOMChanges = dom.Changes()
	r.result.TimersFired = r.loop.fired

	if err != nil {
		r.result.Error = err
		return r.result, err
	}
	return r.result, nil
}

// Console returns the developer console output recorded so far
func (r *Runtime) Console() []LogEntry {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()
	return append([]LogEntry{}, r.console...)
}

// Used reports whether the runtime already executed a document
func (r *Runtime) Used() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used
}

// Close releases resources
func (r *Runtime) Close() error {
	r.vm.Interrupt(ErrPoolClosed)
	return nil
}

func (r *Runtime) runScripts(scripts []script) error {
	for _, s := range scripts {
		if err := r.runScript(s); err != nil {
			return err
		}
	}
	return nil
}

// runScript executes one script element. Only interrupts are returned; a
// script that fails reports to the error listeners and the next one runs.
func (r *Runtime) runScript(s script) error {
	ast, err := parser.ParseFile(nil, ScriptName, s.padded(), 0)
	if err != nil {
		msg, line, col := syntaxDetails(err, s.Line)
		return r.reportError("Uncaught SyntaxError: "+msg, line, col, goja.Null())
	}

	prg, err := goja.CompileAST(ast, false)
	if err != nil {
		return r.reportError("Uncaught SyntaxError: "+err.Error(), s.Line, 0, goja.Null())
	}

	_, err = r.vm.RunProgram(prg)
	return r.handle(err)
}

// handle classifies an error returned by the VM.
func (r *Runtime) handle(err error) error {
	if err == nil {
		return nil
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return interruptError(interrupted)
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		line, col := exceptionPosition(exception)
		return r.reportError(uncaughtMessage(exception), line, col, exception.Value())
	}

	r.record("error", err.Error())
	return nil
}

// reportError dispatches an ErrorEvent to window error listeners. Failures
// inside those listeners are recorded but not re-dispatched.
func (r *Runtime) reportError(message string, line, col int, cause goja.Value) error {
	r.record("error", message)

	ev := r.newEvent("error")
	_ = ev.Set("message", message)
	_ = ev.Set("filename", ScriptName)
	_ = ev.Set("lineno", line)
	_ = ev.Set("colno", col)
	if cause == nil {
		cause = goja.Null()
	}
	_ = ev.Set("error", cause)

	for _, l := range r.snapshot("window", "error") {
		_, err := l.fn(r.vm.GlobalObject(), ev)
		if err == nil {
			continue
		}
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return interruptError(interrupted)
		}
		r.record("error", err.Error())
	}
	return nil
}

// invoke calls fn, routing uncaught exceptions to the error listeners.
func (r *Runtime) invoke(fn goja.Callable, this goja.Value, args ...goja.Value) error {
	_, err := fn(this, args...)
	return r.handle(err)
}

func (r *Runtime) dispatch(target, typ string, this goja.Value, ev *goja.Object) error {
	for _, l := range r.snapshot(target, typ) {
		if err := r.invoke(l.fn, this, ev); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) dispatchLoaded() error {
	document := r.vm.Get("document")

	r.readyState = "interactive"
	ev := r.newEvent("DOMContentLoaded")
	if err := r.dispatch("document", "DOMContentLoaded", document, ev); err != nil {
		return err
	}
	if err := r.dispatch("window", "DOMContentLoaded", r.vm.GlobalObject(), ev); err != nil {
		return err
	}

	r.readyState = "complete"
	return r.dispatch("window", "load", r.vm.GlobalObject(), r.newEvent("load"))
}

func (r *Runtime) runTimers(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
		t := r.loop.step()
		if t == nil {
			if r.loop.pending() > 0 {
				r.record("warn", fmt.Sprintf("timer budget of %d callbacks reached, %d timers dropped", r.loop.max, r.loop.pending()))
			}
			if r.loop.expired > 0 {
				r.record("info", fmt.Sprintf("%d intervals stopped after their last callback", r.loop.expired))
			}
			return nil
		}
		if err := r.invoke(t.fn, r.vm.GlobalObject(), t.args...); err != nil {
			return err
		}
	}
}

func (r *Runtime) addListener(target string, call goja.FunctionCall) {
	typ := call.Argument(0).String()
	value := call.Argument(1)
	fn, ok := goja.AssertFunction(value)
	if !ok {
		return
	}
	byType, ok := r.listeners[target]
	if !ok {
		byType = make(map[string][]listener)
		r.listeners[target] = byType
	}
	for _, l := range byType[typ] {
		if l.value.SameAs(value) {
			return
		}
	}
	byType[typ] = append(byType[typ], listener{value: value, fn: fn})
}

func (r *Runtime) removeListener(target string, call goja.FunctionCall) {
	typ := call.Argument(0).String()
	value := call.Argument(1)
	list := r.listeners[target][typ]
	for i, l := range list {
		if l.value.SameAs(value) {
			r.listeners[target][typ] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

func (r *Runtime) snapshot(target, typ string) []listener {
	return append([]listener(nil), r.listeners[target][typ]...)
}

func (r *Runtime) newEvent(typ string) *goja.Object {
	ev := r.vm.NewObject()
	_ = ev.Set("type", typ)
	_ = ev.Set("timeStamp", r.loop.now)
	_ = ev.Set("defaultPrevented", false)
	_ = ev.Set("preventDefault", func(call goja.FunctionCall) goja.Value {
		_ = ev.Set("defaultPrevented", true)
		return goja.Undefined()
	})
	_ = ev.Set("stopPropagation", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	return ev
}

func (r *Runtime) record(level, message string) {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()
	r.console = append(r.console, LogEntry{
		Level:   level,
		Message: message,
		Time:    time.Now(),
	})
}

func interruptError(err *goja.InterruptedError) error {
	if cause, ok := err.Value().(error); ok {
		return fmt.Errorf("%w: %w", ErrInterrupted, cause)
	}
	return fmt.Errorf("%w: %v", ErrInterrupted, err.Value())
}

func uncaughtMessage(ex *goja.Exception) string {
	if v := ex.Value(); v != nil {
		return "Uncaught " + v.String()
	}
	return "Uncaught " + ex.Error()
}

// exceptionPosition reads the innermost document frame from the exception
// trace.
func exceptionPosition(ex *goja.Exception) (line, col int) {
	m := stackPosition.FindStringSubmatch(ex.String())
	if m == nil {
		return 0, 0
	}
	line, _ = strconv.Atoi(m[1])
	col, _ = strconv.Atoi(m[2])
	return line, col
}

// syntaxDetails extracts message and position from a parser error.
func syntaxDetails(err error, fallbackLine int) (string, int, int) {
	var list parser.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		return first.Message, first.Position.Line, first.Position.Column
	}
	if m := parserPrefix.FindStringSubmatch(err.Error()); m != nil {
		line, _ := strconv.Atoi(m[1])
		col, _ := strconv.Atoi(m[2])
		return strings.TrimSpace(m[3]), line, col
	}
	return err.Error(), fallbackLine, 0
}
