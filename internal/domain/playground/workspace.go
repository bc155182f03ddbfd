package playground

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/minicode/internal/domain/assembler"
	"github.com/GriffinCanCode/minicode/internal/domain/export"
	"github.com/GriffinCanCode/minicode/internal/domain/persistence"
	"github.com/GriffinCanCode/minicode/internal/domain/relay"
	"github.com/GriffinCanCode/minicode/internal/domain/sandbox"
	"github.com/GriffinCanCode/minicode/internal/domain/scheduler"
	"github.com/GriffinCanCode/minicode/internal/domain/source"
	"github.com/GriffinCanCode/minicode/internal/shared/id"
)

// Copier writes text to a clipboard, best effort
type Copier interface {
	Copy(text string) bool
}

// Recorder receives pipeline measurements
type Recorder interface {
	RunStarted()
	SandboxFailed()
	RelayMessage(t relay.Type)
	StaleDropped()
	MalformedDropped()
	Saved(err error)
	DebouncedCommit()
}

type nopRecorder struct{}

func (nopRecorder) RunStarted()             {}
func (nopRecorder) SandboxFailed()          {}
func (nopRecorder) RelayMessage(relay.Type) {}
func (nopRecorder) StaleDropped()           {}
func (nopRecorder) MalformedDropped()       {}
func (nopRecorder) Saved(error)             {}
func (nopRecorder) DebouncedCommit()        {}

// Options configures a Workspace
type Options struct {
	QuietPeriod       time.Duration
	ConsoleMaxEntries int
	SaveTimeout       time.Duration
	Sandbox           sandbox.Config

	Store     *persistence.Store // required
	Clipboard Copier
	Recorder  Recorder
	Logger    *zap.Logger
}

// Preview is the current preview source
type Preview struct {
	Document   string       `json:"document"`
	SandboxID  id.SandboxID `json:"sandboxId,omitempty"`
	URL        string       `json:"url,omitempty"`
	Failed     bool         `json:"failed"`
	Error      string       `json:"error,omitempty"`
	Generation uint64       `json:"generation"`
}

// Snapshot is everything a host needs to render
type Snapshot struct {
	State          source.State `json:"state"`
	ConsoleVisible bool         `json:"consoleVisible"`
	Preview        Preview      `json:"preview"`
}

// Workspace owns the editor state and the preview pipeline
type Workspace struct {
	mu      sync.Mutex
	state   source.State
	preview Preview

	runMu sync.Mutex // serializes assemble + run + preview publication

	relay     *relay.Relay
	runner    *sandbox.Runner
	store     *persistence.Store
	writer    *persistence.Writer
	debounce  *scheduler.Debouncer
	clipboard Copier
	bus       *Bus
	recorder  Recorder
	logger    *zap.Logger

	closeOnce sync.Once
}

// New loads the saved state, starts the sandbox runner and renders the
// first preview. A failed first run leaves a failed preview, not an error.
func New(ctx context.Context, opts Options) (*Workspace, error) {
	if opts.Store == nil {
		return nil, errors.New("playground: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = scheduler.DefaultQuietPeriod
	}

	w := &Workspace{
		relay:     relay.New(relay.NewConsole(opts.ConsoleMaxEntries)),
		store:     opts.Store,
		debounce:  scheduler.New(opts.QuietPeriod),
		clipboard: opts.Clipboard,
		bus:       NewBus(),
		recorder:  opts.Recorder,
		logger:    opts.Logger,
	}

	state, restored := opts.Store.Load(ctx)
	w.state = state
	w.logger.Info("Workspace state loaded", zap.Bool("restored", restored))

	runner, err := sandbox.NewRunner(opts.Sandbox, observer{w}, w.logger.Named("sandbox"))
	if err != nil {
		return nil, err
	}
	w.runner = runner
	w.writer = persistence.NewWriter(opts.Store, opts.SaveTimeout, w.logger.Named("persistence"), w.saved)

	w.run(ctx)
	return w, nil
}

// OnEdit replaces one buffer immediately and schedules the preview and
// persistence cycle after the quiet period.
func (w *Workspace) OnEdit(buffer source.Buffer, text string) error {
	w.mu.Lock()
	next, err := w.state.With(buffer, text)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.state = next
	w.mu.Unlock()

	w.publish(EventState, next)
	w.debounce.Schedule(w.commit)
	return nil
}

// commit is the deferred half of OnEdit
func (w *Workspace) commit() {
	w.recorder.DebouncedCommit()
	w.run(context.Background())
	w.writer.Submit(w.State())
}

// RunNow assembles and runs immediately. A pending edit cycle is absorbed.
func (w *Workspace) RunNow(ctx context.Context) (Preview, error) {
	if w.debounce.Pending() {
		w.debounce.Cancel()
		w.writer.Submit(w.State())
	}
	return w.run(ctx)
}

// run assembles the current state into a fresh sandbox. The error is a
// *sandbox.CreationError when the sandbox could not be created; the preview
// is then blank.
func (w *Workspace) run(ctx context.Context) (Preview, error) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	state := w.State()
	doc := assembler.Assemble(state)
	w.recorder.RunStarted()

	w.mu.Lock()
	generation := w.preview.Generation + 1
	w.mu.Unlock()

	preview := Preview{Document: doc, Generation: generation}
	h, err := w.runner.Run(ctx, doc)
	if err != nil {
		w.recorder.SandboxFailed()
		w.logger.Warn("Preview sandbox could not be created", zap.Error(err))
		preview.Failed = true
		preview.Error = err.Error()
	} else {
		preview.SandboxID = h.ID
		preview.URL = h.URL()
	}

	w.mu.Lock()
	w.preview = preview
	w.mu.Unlock()

	if err != nil {
		w.publish(EventSandboxFailed, preview)
	}
	w.publish(EventPreview, preview)
	return preview, err
}

// ResetToDefault restores the sample program, keeping theme and layout
func (w *Workspace) ResetToDefault(ctx context.Context) (Preview, error) {
	w.debounce.Cancel()

	w.mu.Lock()
	w.state = w.state.ResetCode()
	state := w.state
	w.mu.Unlock()

	w.publish(EventState, state)
	w.writer.Submit(state)
	return w.run(ctx)
}

// ToggleTheme flips the theme and returns whether it is now dark
func (w *Workspace) ToggleTheme() bool {
	w.mu.Lock()
	w.state.IsDarkTheme = !w.state.IsDarkTheme
	state := w.state
	w.mu.Unlock()

	w.publish(EventState, state)
	w.writer.Submit(state)
	return state.IsDarkTheme
}

// ToggleLayout flips the layout and returns whether it is now vertical
func (w *Workspace) ToggleLayout() bool {
	w.mu.Lock()
	w.state.IsVerticalLayout = !w.state.IsVerticalLayout
	state := w.state
	w.mu.Unlock()

	w.publish(EventState, state)
	w.writer.Submit(state)
	return state.IsVerticalLayout
}

// ToggleConsolePanel flips console visibility and returns the new value
func (w *Workspace) ToggleConsolePanel() bool {
	visible := w.relay.Console().Toggle()
	w.publish(EventConsoleVisibility, VisibilityData{Visible: visible})
	return visible
}

// ClearConsolePanel discards every console entry
func (w *Workspace) ClearConsolePanel() {
	w.relay.Console().Clear()
	w.publish(EventConsoleClear, nil)
}

// ExportFiles returns exactly index.html, styles.css and script.js
func (w *Workspace) ExportFiles() map[string]string {
	return export.Files(w.State())
}

// CopyBuffer returns a buffer's text and reports whether it reached the
// clipboard. A missing clipboard is not an error.
func (w *Workspace) CopyBuffer(buffer source.Buffer) (string, bool, error) {
	text, err := w.State().Get(buffer)
	if err != nil {
		return "", false, err
	}
	if w.clipboard == nil {
		return text, false, nil
	}
	return text, w.clipboard.Copy(text), nil
}

// Save persists the current state synchronously
func (w *Workspace) Save(ctx context.Context) error {
	w.writer.Flush()
	err := w.store.Save(ctx, w.State())
	w.saved(err)
	return err
}

func (w *Workspace) saved(err error) {
	w.recorder.Saved(err)
	data := SavedData{OK: err == nil}
	if err != nil {
		data.Error = err.Error()
	}
	w.publish(EventSaved, data)
}

// Deliver applies a relay message tagged with its originating sandbox.
// Messages from any sandbox other than the live one return relay.ErrStale.
func (w *Workspace) Deliver(tag id.SandboxID, msg relay.Message) error {
	d, err := w.relay.Deliver(tag, msg)
	if err != nil {
		if errors.Is(err, relay.ErrStale) {
			w.recorder.StaleDropped()
		} else {
			w.recorder.MalformedDropped()
		}
		return err
	}

	w.recorder.RelayMessage(msg.Type)
	if d.Cleared {
		w.publish(EventConsoleClear, nil)
		return nil
	}
	w.publish(EventConsoleEntry, *d.Entry)
	if d.Revealed {
		w.publish(EventConsoleVisibility, VisibilityData{Visible: true})
	}
	return nil
}

// DeliverRaw decodes and applies a relay message forwarded by the browser
// page. While a headless run owns the sandbox, forwarded messages are
// dropped as stale; serving the document hands ownership to the page.
func (w *Workspace) DeliverRaw(tag id.SandboxID, raw []byte) error {
	msg, err := relay.Decode(raw)
	if err != nil {
		w.recorder.MalformedDropped()
		return err
	}
	if !w.runner.Forwarded(tag) {
		w.recorder.StaleDropped()
		return fmt.Errorf("%w: %s is not relayed by the page", relay.ErrStale, tag)
	}
	return w.Deliver(tag, msg)
}

// OpenDocument serves the live sandbox document once
func (w *Workspace) OpenDocument(sandboxID id.SandboxID, token string) (string, error) {
	return w.runner.Open(sandboxID, token)
}

// State returns the current editor state
func (w *Workspace) State() source.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Preview returns the current preview source
func (w *Workspace) Preview() Preview {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.preview
}

// Console returns the console entries in arrival order
func (w *Workspace) Console() []relay.Entry {
	return w.relay.Console().Entries()
}

// ConsoleVisible reports whether the console panel is shown
func (w *Workspace) ConsoleVisible() bool {
	return w.relay.Console().Visible()
}

// Snapshot returns state, console visibility and preview together
func (w *Workspace) Snapshot() Snapshot {
	return Snapshot{
		State:          w.State(),
		ConsoleVisible: w.ConsoleVisible(),
		Preview:        w.Preview(),
	}
}

// ActiveSandbox returns the tag currently accepted by the relay
func (w *Workspace) ActiveSandbox() id.SandboxID {
	return w.relay.Active()
}

// SandboxStats returns sandbox pool statistics
func (w *Workspace) SandboxStats() map[string]interface{} {
	return w.runner.Stats()
}

// Subscribe streams events until the returned func is called
func (w *Workspace) Subscribe(buffer int) (<-chan Event, func()) {
	return w.bus.Subscribe(buffer)
}

// Dispatch runs a keyboard command
func (w *Workspace) Dispatch(ctx context.Context, cmd Command) error {
	switch cmd {
	case CommandRun:
		_, err := w.RunNow(ctx)
		return err
	case CommandSave:
		return w.Save(ctx)
	case CommandToggleLayout:
		w.ToggleLayout()
	case CommandToggleTheme:
		w.ToggleTheme()
	case CommandToggleConsole:
		w.ToggleConsolePanel()
	case CommandReset:
		_, err := w.ResetToDefault(ctx)
		return err
	case CommandClearConsole:
		w.ClearConsolePanel()
	default:
		return ErrUnknownCommand
	}
	return nil
}

// Close commits a pending edit, flushes persistence and tears down the
// sandbox. The store is left open for its owner to close.
func (w *Workspace) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.debounce.Flush()
		w.debounce.Stop()
		w.writer.Close()
		err = w.runner.Close()
		w.bus.Close()
	})
	return err
}

func (w *Workspace) publish(t EventType, data interface{}) {
	w.bus.Publish(Event{Type: t, Data: data})
}

// observer adapts sandbox lifecycle callbacks to the relay.
type observer struct {
	w *Workspace
}

func (o observer) SandboxCreated(h *sandbox.Handle) {
	o.w.relay.Activate(h.ID)
	o.w.publish(EventConsoleClear, nil)
}

func (o observer) SandboxDestroyed(sandboxID id.SandboxID) {
	if o.w.relay.Active() == sandboxID {
		o.w.relay.Deactivate()
	}
}

func (o observer) SandboxMessage(sandboxID id.SandboxID, msg relay.Message) {
	if err := o.w.Deliver(sandboxID, msg); err != nil {
		o.w.logger.Debug("Relay message dropped",
			zap.String("sandbox_id", sandboxID.String()),
			zap.String("type", string(msg.Type)),
			zap.Error(err))
	}
}
