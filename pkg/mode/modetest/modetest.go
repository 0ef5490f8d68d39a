// Package modetest provides a manual clock and a recording device for tests
// of code that runs modes.
package modetest

import (
	"sync"
	"testing"
	"time"
)

// Timeout bounds every blocking helper so a broken sequence fails the test
// instead of hanging it.
const Timeout = 2 * time.Second

// Wait is one timed wait requested from a ManualClock.
type Wait struct {
	Duration time.Duration
	c        chan time.Time
}

// Fire completes the wait.
func (w *Wait) Fire() {
	select {
	case w.c <- time.Time{}:
	default:
	}
}

// ManualClock hands every requested wait to the test, which decides when it
// completes.
type ManualClock struct {
	waits chan *Wait
}

func NewManualClock() *ManualClock {
	return &ManualClock{waits: make(chan *Wait, 1024)}
}

func (c *ManualClock) After(d time.Duration) <-chan time.Time {
	w := &Wait{Duration: d, c: make(chan time.Time, 1)}
	c.waits <- w
	return w.c
}

// Next returns the oldest wait not yet taken.
func (c *ManualClock) Next(t testing.TB) *Wait {
	t.Helper()
	select {
	case w := <-c.waits:
		return w
	case <-time.After(Timeout):
		t.Fatal("no wait was requested from the clock")
		return nil
	}
}

// ExpectNoWait fails the test if a wait is requested within d.
func (c *ManualClock) ExpectNoWait(t testing.TB, d time.Duration) {
	t.Helper()
	select {
	case w := <-c.waits:
		t.Fatalf("unexpected wait of %v requested", w.Duration)
	case <-time.After(d):
	}
}

// RecordingDevice records every brightness level written to it.
type RecordingDevice struct {
	mu     sync.Mutex
	levels []int
	reject bool
	gate   chan struct{}
}

func NewRecordingDevice() *RecordingDevice {
	return &RecordingDevice{}
}

func (d *RecordingDevice) SetBrightness(level int) bool {
	d.mu.Lock()
	d.levels = append(d.levels, level)
	reject := d.reject
	gate := d.gate
	d.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return !reject
}

// Reject makes later writes report failure.
func (d *RecordingDevice) Reject(reject bool) {
	d.mu.Lock()
	d.reject = reject
	d.mu.Unlock()
}

// Hold makes later writes block after they were recorded until release is
// called, simulating a slow hardware write.
func (d *RecordingDevice) Hold() (release func()) {
	gate := make(chan struct{})
	d.mu.Lock()
	d.gate = gate
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			d.gate = nil
			d.mu.Unlock()
			close(gate)
		})
	}
}

// Levels returns a copy of the levels written so far.
func (d *RecordingDevice) Levels() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.levels...)
}

// WaitWrites blocks until at least n levels were written and returns them.
func (d *RecordingDevice) WaitWrites(t testing.TB, n int) []int {
	t.Helper()
	deadline := time.Now().Add(Timeout)
	for {
		levels := d.Levels()
		if len(levels) >= n {
			return levels
		}
		if time.Now().After(deadline) {
			t.Fatalf("got %d writes %v; want at least %d", len(levels), levels, n)
		}
		time.Sleep(time.Millisecond)
	}
}
