package mode

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultRampUpStep    = 10
	DefaultRampUpCeiling = 131
)

var errInvalidStep = errors.New("mode: ramp up step must be positive")

// RampUp raises brightness by Step on every tick. Tick n writes n*Step and the
// run ends, without writing, as soon as the next value would reach Ceiling.
type RampUp struct {
	Interval time.Duration
	Step     int
	Ceiling  int
}

func NewRampUp(interval time.Duration) RampUp {
	return RampUp{
		Interval: interval,
		Step:     DefaultRampUpStep,
		Ceiling:  DefaultRampUpCeiling,
	}
}

func (r RampUp) Name() string {
	return RampUpName
}

func (r RampUp) Run(ctx context.Context, dev Device, clk Clock) error {
	if r.Step <= 0 {
		return errInvalidStep
	}

	for n := 1; ; n++ {
		level := n * r.Step
		if level >= r.Ceiling {
			return nil
		}
		if err := wait(ctx, clk, r.Interval); err != nil {
			return err
		}
		if err := write(ctx, dev, level); err != nil {
			return err
		}
	}
}
