package sandbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/minicode/internal/domain/assembler"
	"github.com/GriffinCanCode/minicode/internal/domain/relay"
	"github.com/GriffinCanCode/minicode/internal/domain/source"
)

type collector struct {
	mu   sync.Mutex
	msgs []relay.Message
}

func (c *collector) emit(msg relay.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *collector) messages() []relay.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]relay.Message(nil), c.msgs...)
}

func (c *collector) data() []string {
	var out []string
	for _, m := range c.messages() {
		if m.Type != relay.TypeClear {
			out = append(out, m.Data)
		}
	}
	return out
}

func execute(t *testing.T, cfg Config, document string) (*Result, *collector, error) {
	t.Helper()
	rt, err := New(cfg)
	require.NoError(t, err)
	defer rt.Close()

	c := &collector{}
	res, err := rt.Execute(context.Background(), document, c.emit)
	return res, c, err
}

func assembled(html, css, js string) string {
	return assembler.Assemble(source.State{HTML: html, CSS: css, JS: js})
}

func TestExecuteConsoleLog(t *testing.T) {
	res, c, err := execute(t, DefaultConfig(), assembled("<p>hi</p>", "", "console.log('x')"))
	require.NoError(t, err)

	assert.Equal(t, []relay.Message{
		{Type: relay.TypeClear},
		{Type: relay.TypeLog, Data: "x"},
	}, c.messages())
	assert.Equal(t, 2, res.Relayed)

	var devtools []string
	for _, e := range res.Console {
		devtools = append(devtools, e.Level+":"+e.Message)
	}
	assert.Contains(t, devtools, "log:x", "original console still receives output")
}

func TestExecuteGuardedThrow(t *testing.T) {
	_, c, err := execute(t, DefaultConfig(), assembled("<p>hi</p>", "", "throw new Error('boom')"))
	require.NoError(t, err)

	assert.Equal(t, []relay.Message{
		{Type: relay.TypeClear},
		{Type: relay.TypeError, Data: "JavaScript execution error: boom"},
	}, c.messages())
}

func TestExecuteSyntaxErrorReportsLine(t *testing.T) {
	_, c, err := execute(t, DefaultConfig(), assembled("<p>hi</p>", "", "console.log('a'"))
	require.NoError(t, err)

	msgs := c.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, relay.TypeClear, msgs[0].Type)
	assert.Equal(t, relay.TypeError, msgs[1].Type)
	assert.Regexp(t, `^JavaScript Error: Uncaught SyntaxError: .+ at line [1-9]\d*$`, msgs[1].Data)
}

func TestExecuteUncaughtTimerError(t *testing.T) {
	doc := "<script>window.addEventListener('error', function (e) { parent.postMessage({type: 'console-error', data: e.message + '@' + e.lineno}, '*'); });</script>\n" +
		"<script>\n" +
		"setTimeout(function () {\n" +
		"  throw new Error('late');\n" +
		"}, 10);\n" +
		"</script>"

	_, c, err := execute(t, DefaultConfig(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Uncaught Error: late@4"}, c.data())
}

func TestExecuteTimersUseVirtualClock(t *testing.T) {
	doc := `<script>
function log(v) { parent.postMessage({type: 'console-log', data: v}, '*'); }
setTimeout(function () { log('b'); }, 50000);
setTimeout(function () { log('a'); }, 10);
setTimeout(function (x) { log(x); }, 10, 'c');
var cancelled = setTimeout(function () { log('never'); }, 5);
clearTimeout(cancelled);
log('sync');
</script>`

	start := time.Now()
	res, c, err := execute(t, DefaultConfig(), doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"sync", "a", "c", "b"}, c.data())
	assert.Equal(t, 3, res.TimersFired)
	assert.Less(t, time.Since(start), 5*time.Second, "delays are not waited out")
}

func TestExecuteTimerBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTimers = 5

	doc := `<script>setInterval(function () { parent.postMessage({type: 'console-log', data: 'tick'}, '*'); }, 1);</script>`
	res, c, err := execute(t, cfg, doc)
	require.NoError(t, err)

	assert.Len(t, c.data(), 5)
	assert.Equal(t, 5, res.TimersFired)
	require.NotEmpty(t, res.Console)
	assert.Equal(t, "warn", res.Console[len(res.Console)-1].Level)
}

func TestExecuteIntervalStopsAtTimeout(t *testing.T) {
	doc := `<script>setInterval(function () { parent.postMessage({type: 'console-log', data: 'tick'}, '*'); }, 1000);</script>`
	res, c, err := execute(t, DefaultConfig(), doc)
	require.NoError(t, err)

	assert.Len(t, c.data(), 5)
	assert.Equal(t, 5, res.TimersFired)
	require.NotEmpty(t, res.Console)
	assert.Equal(t, "info", res.Console[len(res.Console)-1].Level)
}

func TestExecuteIntervalRepeatCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRepeats = 3

	doc := `<script>
var n = 0;
setInterval(function () { parent.postMessage({type: 'console-log', data: 'fast'}, '*'); }, 1);
setInterval(function () { n++; }, 2);
setTimeout(function () { parent.postMessage({type: 'console-log', data: 'n=' + n}, '*'); }, 100);
</script>`
	res, c, err := execute(t, cfg, doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"fast", "fast", "fast", "n=3"}, c.data())
	assert.Equal(t, 7, res.TimersFired)
}

func TestExecuteTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 100 * time.Millisecond

	res, _, err := execute(t, cfg, "<script>while (true) {}</script>")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, res)
	assert.Equal(t, err, res.Error)
}

func TestExecuteCancelled(t *testing.T) {
	rt, err := New(DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err = rt.Execute(ctx, "<script>for (;;) {}</script>", nil)
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRuntimeSingleUse(t *testing.T) {
	rt, err := New(DefaultConfig())
	require.NoError(t, err)

	_, err = rt.Execute(context.Background(), "<p></p>", nil)
	require.NoError(t, err)
	assert.True(t, rt.Used())

	_, err = rt.Execute(context.Background(), "<p></p>", nil)
	assert.ErrorIs(t, err, ErrRuntimeUsed)
}

func TestFreshGlobalsPerRuntime(t *testing.T) {
	_, _, err := execute(t, DefaultConfig(), "<script>window.leaked = 1; var alsoLeaked = 2;</script>")
	require.NoError(t, err)

	_, c, err := execute(t, DefaultConfig(),
		"<script>parent.postMessage({type: 'console-log', data: typeof leaked + ',' + typeof alsoLeaked}, '*');</script>")
	require.NoError(t, err)
	assert.Equal(t, []string{"undefined,undefined"}, c.data())
}

func TestRuntimeSecurity(t *testing.T) {
	doc := `<script>
parent.postMessage({type: 'console-log', data: [typeof require, typeof process, typeof module, typeof exports].join(',')}, '*');
</script>`
	_, c, err := execute(t, DefaultConfig(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"undefined,undefined,undefined,undefined"}, c.data())
}

func TestPostMessageValidation(t *testing.T) {
	doc := `<script>
parent.postMessage('plain string', '*');
parent.postMessage({type: 'navigate', data: 'x'}, '*');
parent.postMessage({type: 'console-log', data: 42}, '*');
parent.postMessage({type: 'console-warn', data: 'careful'}, '*');
</script>`
	res, c, err := execute(t, DefaultConfig(), doc)
	require.NoError(t, err)

	assert.Equal(t, []relay.Message{{Type: relay.TypeWarn, Data: "careful"}}, c.messages())
	assert.Equal(t, 3, res.Rejected)
	assert.Equal(t, 1, res.Relayed)
}

func TestDOMShim(t *testing.T) {
	doc := `<body>
<p id="t" class="note big">old</p>
<ul><li>a</li><li>b</li></ul>
<script>
function log(v) { parent.postMessage({type: 'console-log', data: String(v)}, '*'); }
var el = document.getElementById('t');
el.textContent = 'changed';
log(document.querySelector('#t').textContent);
log(el === document.querySelector('.note'));
log(document.querySelectorAll('li').length);
log(document.getElementsByClassName('note big').length);
el.setAttribute('data-x', '1');
log(el.getAttribute('data-x'));
log(el.getAttribute('missing'));
var item = document.createElement('li');
item.textContent = 'c';
document.querySelector('ul').appendChild(item);
log(document.querySelectorAll('li').length);
log(document.body.tagName);
log(document.querySelector('[[invalid'));
</script>
</body>`
	res, c, err := execute(t, DefaultConfig(), doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"changed", "true", "2", "1", "1", "null", "3", "BODY", "null"}, c.data())

	var types []string
	for _, ch := range res.DOMChanges {
		types = append(types, ch.Type)
	}
	assert.Contains(t, types, "set_text")
	assert.Contains(t, types, "set_attribute")
	assert.Contains(t, types, "append_child")
}

func TestInlineClickHandler(t *testing.T) {
	doc := `<button id="b" onclick="parent.postMessage({type: 'console-log', data: 'clicked ' + this.id}, '*')">go</button>
<script>document.getElementById('b').click();</script>`
	_, c, err := execute(t, DefaultConfig(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"clicked b"}, c.data())
}

func TestLoadEventsAfterScripts(t *testing.T) {
	doc := `<script>
function log(v) { parent.postMessage({type: 'console-log', data: v}, '*'); }
window.addEventListener('load', function () { log('load ' + document.readyState); });
document.addEventListener('DOMContentLoaded', function () { log('ready ' + document.readyState); });
log('script ' + document.readyState);
</script>`
	_, c, err := execute(t, DefaultConfig(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"script loading", "ready interactive", "load complete"}, c.data())
}

func TestDefaultSampleRuns(t *testing.T) {
	_, c, err := execute(t, DefaultConfig(), assembler.Assemble(source.Default()))
	require.NoError(t, err)

	msgs := c.messages()
	require.NotEmpty(t, msgs)
	assert.Equal(t, relay.TypeClear, msgs[0].Type)
	assert.Contains(t, c.data(), "🎯 MiniCode Preview Loaded!")
}

func TestExtractScriptsLines(t *testing.T) {
	doc := "<html>\n<body>\n<script>\nvar a = 1;\n</script>\n<script type=\"text/template\">skip</script>\n<script>var b = 2;</script>\n</body>\n</html>"
	scripts, err := extractScripts(doc)
	require.NoError(t, err)
	require.Len(t, scripts, 2)

	assert.Equal(t, 3, scripts[0].Line)
	assert.Equal(t, "\n\n\nvar a = 1;\n", scripts[0].padded())
	assert.Equal(t, 7, scripts[1].Line)
	assert.Equal(t, "var b = 2;", scripts[1].Source)
}
