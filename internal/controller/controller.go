// Package controller turns pointer clicks into brightness runs.
//
// A Controller owns at most one active run. Every transition (click, shutdown)
// goes through a single mutex, and a superseded run is fully stopped before the
// next run is started, so the device never sees two writers.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/hoppxi/clickdim/pkg/mode"
)

const DefaultRestLevel = 130

var (
	ErrTerminated       = errors.New("controller: shut down")
	ErrAlreadyListening = errors.New("controller: already listening to an input source")
)

// InputEventSource delivers one event per primary button press.
type InputEventSource interface {
	Start() (<-chan struct{}, error)
	Stop() error
}

type Options struct {
	// RestLevel is written once on shutdown. Zero means DefaultRestLevel.
	RestLevel int
	// Clock times the mode ticks. Nil means mode.SystemClock.
	Clock mode.Clock
}

type run struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

func (r *run) finished() bool {
	select {
	case <-r.done:
		return true
	default:
	}
	return false
}

type Controller struct {
	dev       mode.Device
	mode      mode.Mode
	clock     mode.Clock
	restLevel int

	mu       sync.Mutex
	active   *run
	runs     uint64
	terminal bool
	source   InputEventSource

	quit         chan struct{}
	shutdownOnce sync.Once
	restored     chan struct{}
}

func New(dev mode.Device, m mode.Mode, opts Options) *Controller {
	c := &Controller{
		dev:       dev,
		mode:      m,
		clock:     opts.Clock,
		restLevel: opts.RestLevel,
		quit:      make(chan struct{}),
		restored:  make(chan struct{}),
	}
	if c.clock == nil {
		c.clock = mode.SystemClock
	}
	if c.restLevel == 0 {
		c.restLevel = DefaultRestLevel
	}
	return c
}

// Click replaces the active run, if any, with a new run of the configured
// mode. It returns false once the controller has shut down.
func (c *Controller) Click() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminal {
		log.Debug("controller: click ignored after shutdown")
		return false
	}

	c.stopActiveLocked()
	c.startLocked()
	return true
}

func (c *Controller) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.active = r
	c.runs++

	logger := log.WithFields(log.Fields{"run": r.id, "mode": c.mode.Name()})
	logger.Debug("controller: left button pressed, starting run")

	go func() {
		defer close(r.done)
		defer cancel()

		err := c.mode.Run(ctx, c.dev, c.clock)
		switch {
		case err == nil:
			logger.Debug("controller: run completed")
		case errors.Is(err, context.Canceled):
			logger.Debug("controller: run cancelled")
		default:
			logger.Warnf("controller: run failed: %v", err)
		}
	}()
}

// stopActiveLocked cancels the active run and waits until its goroutine has
// returned. A write already handed to the device finishes first. Stopping a
// run that already completed is a no-op.
func (c *Controller) stopActiveLocked() {
	if c.active == nil {
		return
	}
	c.active.cancel()
	<-c.active.done
	c.active = nil
}

// Listen starts src and feeds its events into Click until shutdown.
func (c *Controller) Listen(src InputEventSource) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminal {
		return ErrTerminated
	}
	if c.source != nil {
		return ErrAlreadyListening
	}

	events, err := src.Start()
	if err != nil {
		return fmt.Errorf("start input source: %w", err)
	}
	c.source = src

	go c.consume(events)
	return nil
}

func (c *Controller) consume(events <-chan struct{}) {
	for {
		select {
		case <-c.quit:
			return
		case _, ok := <-events:
			if !ok {
				log.Debug("controller: input source closed")
				return
			}
			c.Click()
		}
	}
}

// Shutdown cancels the active run, writes the rest level once and stops
// consuming input. Every call waits until that restore write has finished or
// ctx is done. Only the first call writes.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		go c.terminate()
	})

	select {
	case <-c.restored:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("restore brightness: %w", ctx.Err())
	}
}

func (c *Controller) terminate() {
	c.mu.Lock()
	c.terminal = true
	c.stopActiveLocked()

	if !c.dev.SetBrightness(c.restLevel) {
		log.Warnf("controller: restore to %d was rejected by the device", c.restLevel)
	} else {
		log.Infof("controller: brightness restored to %d", c.restLevel)
	}
	src := c.source
	c.mu.Unlock()

	close(c.restored)
	close(c.quit)
	if src != nil {
		if err := src.Stop(); err != nil {
			log.Warnf("controller: stopping input source: %v", err)
		}
	}
}
