package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBurstCollapsesToOneRun(t *testing.T) {
	d := New(100 * time.Millisecond)

	var (
		mu    sync.Mutex
		runs  int
		value int
	)
	done := make(chan struct{}, 10)

	for i := 1; i <= 10; i++ {
		v := i
		d.Schedule(func() {
			mu.Lock()
			runs++
			value = v
			mu.Unlock()
			done <- struct{}{}
		})
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced action never ran")
	}

	// give a superseded timer a chance to misfire
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, runs)
	assert.Equal(t, 10, value, "only the final edit is committed")
	assert.False(t, d.Pending())
}

func TestQuietPeriodMeasuredFromLastEdit(t *testing.T) {
	d := New(60 * time.Millisecond)

	var fired atomic.Int64
	start := time.Now()
	ran := make(chan struct{})

	d.Schedule(func() {})
	time.Sleep(40 * time.Millisecond)
	d.Schedule(func() {
		fired.Store(int64(time.Since(start)))
		close(ran)
	})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("action never ran")
	}

	assert.GreaterOrEqual(t, time.Duration(fired.Load()), 100*time.Millisecond)
}

func TestFlushRunsImmediately(t *testing.T) {
	d := New(time.Hour)

	var runs atomic.Int32
	d.Schedule(func() { runs.Add(1) })
	require.True(t, d.Pending())

	assert.True(t, d.Flush())
	assert.Equal(t, int32(1), runs.Load())
	assert.False(t, d.Flush(), "nothing left to flush")
}

func TestCancel(t *testing.T) {
	d := New(20 * time.Millisecond)

	var runs atomic.Int32
	d.Schedule(func() { runs.Add(1) })
	d.Cancel()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestStopRejectsSchedules(t *testing.T) {
	d := New(10 * time.Millisecond)
	d.Stop()

	var runs atomic.Int32
	d.Schedule(func() { runs.Add(1) })

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
	assert.False(t, d.Pending())
}

func TestDefaultQuietPeriod(t *testing.T) {
	assert.Equal(t, DefaultQuietPeriod, New(0).QuietPeriod())
	assert.Equal(t, 300*time.Millisecond, DefaultQuietPeriod)
}
