package gamma

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// ErrReadRejected is returned when the hardware refuses to report its ramp.
var ErrReadRejected = errors.New("gamma: device refused ramp read")

// Primitive is the hardware-facing gamma ramp interface.
// A false result means the driver rejected the request. Drivers under
// color-management restrictions do this routinely.
type Primitive interface {
	Init() error
	GetRamp(ramp *Ramp) bool
	SetRamp(ramp *Ramp) bool
}

// Stats counts device writes since the device was opened.
type Stats struct {
	Writes   uint64 `json:"writes"`
	Rejected uint64 `json:"rejected"`
}

// Device writes brightness levels to a display through its gamma ramp.
//
// Device does no locking of its own around the primitive. Callers must make
// sure there is only ever one writer at a time.
type Device struct {
	prim Primitive

	initOnce sync.Once
	initErr  error

	writes   atomic.Uint64
	rejected atomic.Uint64
}

// Open wraps a primitive and acquires the device context.
func Open(prim Primitive) (*Device, error) {
	d := &Device{prim: prim}
	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

// Init acquires the device context. Only the first call reaches the primitive,
// later calls return the first result.
func (d *Device) Init() error {
	d.initOnce.Do(func() {
		d.initErr = d.prim.Init()
	})
	return d.initErr
}

// SetBrightness clamps level, builds its ramp and writes it to the hardware.
// It reports whether the hardware accepted the ramp. A rejected write is
// logged and counted but is not an error.
func (d *Device) SetBrightness(level int) bool {
	clamped := Clamp(level)
	ramp := BuildRamp(clamped)

	d.writes.Add(1)
	if !d.prim.SetRamp(&ramp) {
		d.rejected.Add(1)
		log.WithField("level", clamped).Warn("gamma: hardware rejected ramp write")
		return false
	}
	log.WithField("level", clamped).Debug("gamma: ramp written")
	return true
}

// Brightness reads the ramp currently loaded in the hardware.
func (d *Device) Brightness() (Ramp, error) {
	var ramp Ramp
	if !d.prim.GetRamp(&ramp) {
		log.Warn("gamma: hardware rejected ramp read")
		return Ramp{}, ErrReadRejected
	}
	return ramp, nil
}

func (d *Device) Stats() Stats {
	return Stats{
		Writes:   d.writes.Load(),
		Rejected: d.rejected.Load(),
	}
}

// Close releases the primitive when it holds a connection.
func (d *Device) Close() error {
	if c, ok := d.prim.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
