package sandbox

import (
	"github.com/dop251/goja"
)

// timer is a pending setTimeout or setInterval callback.
type timer struct {
	id       int64
	due      int64 // virtual milliseconds
	seq      int64 // FIFO order among timers due at the same instant
	interval int64
	repeat   bool
	runs     int
	fn       goja.Callable
	args     []goja.Value
}

// eventLoop runs timers on a virtual clock. Delays order callbacks but are
// never waited out in wall time. An interval stops after repeats callbacks
// or once it would re-arm past horizon virtual milliseconds.
type eventLoop struct {
	now     int64
	seq     int64
	nextID  int64
	timers  map[int64]*timer
	fired   int
	max     int
	repeats int
	horizon int64
	expired int
}

func newEventLoop(limit, repeats int, horizon int64) *eventLoop {
	return &eventLoop{
		timers:  make(map[int64]*timer),
		max:     limit,
		repeats: repeats,
		horizon: horizon,
	}
}

func (l *eventLoop) add(fn goja.Callable, delay int64, args []goja.Value, repeat bool) int64 {
	if delay < 0 {
		delay = 0
	}
	l.nextID++
	l.seq++
	t := &timer{
		id:       l.nextID,
		due:      l.now + delay,
		seq:      l.seq,
		interval: delay,
		repeat:   repeat,
		fn:       fn,
		args:     args,
	}
	l.timers[t.id] = t
	return t.id
}

func (l *eventLoop) clear(id int64) {
	delete(l.timers, id)
}

func (l *eventLoop) pending() int {
	return len(l.timers)
}

func (l *eventLoop) next() *timer {
	var best *timer
	for _, t := range l.timers {
		if best == nil || t.due < best.due || (t.due == best.due && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

// step advances the clock to the next due timer and returns it, or nil when
// nothing is pending or the callback budget is spent.
func (l *eventLoop) step() *timer {
	if l.max > 0 && l.fired >= l.max {
		return nil
	}
	t := l.next()
	if t == nil {
		return nil
	}
	l.now = t.due
	l.fired++
	if !t.repeat {
		delete(l.timers, t.id)
		return t
	}

	t.runs++
	due := l.now + max(t.interval, 1)
	if (l.repeats > 0 && t.runs >= l.repeats) || (l.horizon > 0 && due > l.horizon) {
		delete(l.timers, t.id)
		l.expired++
		return t
	}
	l.seq++
	t.seq = l.seq
	t.due = due
	return t
}
