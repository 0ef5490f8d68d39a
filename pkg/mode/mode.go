// Package mode holds the timed brightness sequences started by a click.
package mode

import (
	"context"
	"strings"
	"time"
)

const (
	RampUpName = "rampup"
	SolidName  = "solid"

	DefaultRampUpInterval = 60 * time.Millisecond
	DefaultSolidInterval  = 6 * time.Second
)

// Device receives the brightness writes of a running mode.
type Device interface {
	SetBrightness(level int) bool
}

// Clock supplies the timed wait between two ticks.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// SystemClock waits in real time.
var SystemClock Clock = systemClock{}

// Mode is a finite sequence of brightness writes ending in a steady state.
//
// Run returns nil when the sequence completed and the context error when it
// was cancelled. Once ctx is done Run issues no further writes.
type Mode interface {
	Name() string
	Run(ctx context.Context, dev Device, clk Clock) error
}

// Parse selects a mode by name. Names are case-insensitive and anything other
// than "rampup" selects the solid delay mode.
func Parse(name string, rampUpInterval, solidInterval time.Duration) Mode {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case RampUpName:
		return NewRampUp(rampUpInterval)
	default:
		return NewSolidDelay(solidInterval)
	}
}

func wait(ctx context.Context, clk Clock, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clk.After(d):
		return nil
	}
}

// write checks ctx right before touching the device, so a wait that finished
// at the same time as a cancellation still writes nothing.
func write(ctx context.Context, dev Device, level int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dev.SetBrightness(level)
	return nil
}
