package mode

import (
	"context"
	"time"
)

const (
	DefaultDimLevel    = 0
	DefaultSettleLevel = 130
)

// SolidDelay dims immediately, holds for Delay, then settles once.
type SolidDelay struct {
	Delay       time.Duration
	DimLevel    int
	SettleLevel int
}

func NewSolidDelay(delay time.Duration) SolidDelay {
	return SolidDelay{
		Delay:       delay,
		DimLevel:    DefaultDimLevel,
		SettleLevel: DefaultSettleLevel,
	}
}

func (s SolidDelay) Name() string {
	return SolidName
}

func (s SolidDelay) Run(ctx context.Context, dev Device, clk Clock) error {
	if err := write(ctx, dev, s.DimLevel); err != nil {
		return err
	}
	if err := wait(ctx, clk, s.Delay); err != nil {
		return err
	}
	return write(ctx, dev, s.SettleLevel)
}
