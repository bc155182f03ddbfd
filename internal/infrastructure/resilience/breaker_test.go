package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFailed = errors.New("failed")

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *clock {
	return &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func succeed() error { return nil }
func fail() error    { return errFailed }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		requests      []bool // true = success
		expectedState State
	}{
		{"stays closed on successes", []bool{true, true, true}, StateClosed},
		{"opens after consecutive failures", []bool{false, false, false}, StateOpen},
		{"success resets the streak", []bool{false, false, true, false, false}, StateClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := New("test", Settings{ReadyToTrip: ConsecutiveFailures(3), Now: newClock().Now})

			for _, success := range tt.requests {
				if success {
					_ = breaker.Do(succeed)
				} else {
					_ = breaker.Do(fail)
				}
			}

			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	breaker := New("test", Settings{Now: newClock().Now})

	require.NoError(t, breaker.Do(succeed))
	counts := breaker.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.ConsecutiveSuccesses)

	assert.ErrorIs(t, breaker.Do(fail), errFailed)
	counts = breaker.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerOpenSkipsCalls(t *testing.T) {
	breaker := New("test", Settings{ReadyToTrip: ConsecutiveFailures(2), Now: newClock().Now})
	_ = breaker.Do(fail)
	_ = breaker.Do(fail)
	require.Equal(t, StateOpen, breaker.State())

	called := false
	err := breaker.Do(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpen(t *testing.T) {
	clk := newClock()
	breaker := New("test", Settings{
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: ConsecutiveFailures(2),
		Now:         clk.Now,
	})
	_ = breaker.Do(fail)
	_ = breaker.Do(fail)

	clk.Advance(29 * time.Second)
	assert.Equal(t, StateOpen, breaker.State())
	clk.Advance(time.Second)
	assert.Equal(t, StateHalfOpen, breaker.State())

	require.NoError(t, breaker.Do(succeed))
	assert.Equal(t, StateHalfOpen, breaker.State())
	require.NoError(t, breaker.Do(succeed))
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clk := newClock()
	breaker := New("test", Settings{Timeout: time.Second, ReadyToTrip: ConsecutiveFailures(1), Now: clk.Now})
	_ = breaker.Do(fail)

	clk.Advance(time.Second)
	assert.ErrorIs(t, breaker.Do(fail), errFailed)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerIntervalClearsCounts(t *testing.T) {
	clk := newClock()
	breaker := New("test", Settings{Interval: time.Minute, ReadyToTrip: ConsecutiveFailures(2), Now: clk.Now})
	_ = breaker.Do(fail)

	clk.Advance(2 * time.Minute)
	_ = breaker.Do(fail)
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, uint32(1), breaker.Counts().ConsecutiveFailures)
}

func TestBreakerCallbacks(t *testing.T) {
	clk := newClock()
	var transitions []string
	breaker := New("persistence", Settings{
		Timeout:     time.Second,
		ReadyToTrip: ConsecutiveFailures(1),
		Now:         clk.Now,
		OnStateChange: func(name string, from State, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	_ = breaker.Do(fail)
	clk.Advance(time.Second)
	require.NoError(t, breaker.Do(succeed))

	assert.Equal(t, []string{
		"persistence:closed->open",
		"persistence:open->half-open",
		"persistence:half-open->closed",
	}, transitions)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	breaker := New("test", Settings{ReadyToTrip: ConsecutiveFailures(1), Now: newClock().Now})

	assert.Panics(t, func() {
		_ = breaker.Do(func() error { panic("boom") })
	})
	assert.Equal(t, StateOpen, breaker.State())
}
