package gamma

import (
	"errors"
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
	log "github.com/sirupsen/logrus"
)

var errNoCrtc = errors.New("randr: no active CRTC with a gamma ramp")

// RandR drives the gamma ramp of the first active CRTC through the X11 RandR
// extension. Only one output is dimmed.
type RandR struct {
	display string
	conn    *xgb.Conn
	crtc    randr.Crtc
	size    int
}

// NewRandR returns a primitive for the given X display. An empty display
// falls back to $DISPLAY.
func NewRandR(display string) *RandR {
	return &RandR{display: display}
}

func (x *RandR) Init() error {
	conn, err := xgb.NewConnDisplay(x.display)
	if err != nil {
		return fmt.Errorf("connect to X display %q: %w", x.display, err)
	}
	if err := randr.Init(conn); err != nil {
		conn.Close()
		return fmt.Errorf("randr extension: %w", err)
	}

	root := xproto.Setup(conn).DefaultScreen(conn).Root
	res, err := randr.GetScreenResourcesCurrent(conn, root).Reply()
	if err != nil {
		conn.Close()
		return fmt.Errorf("randr screen resources: %w", err)
	}

	for _, crtc := range res.Crtcs {
		info, err := randr.GetCrtcInfo(conn, crtc, res.ConfigTimestamp).Reply()
		if err != nil || len(info.Outputs) == 0 {
			continue
		}
		gammaSize, err := randr.GetCrtcGammaSize(conn, crtc).Reply()
		if err != nil || gammaSize.Size == 0 {
			continue
		}

		x.conn = conn
		x.crtc = crtc
		x.size = int(gammaSize.Size)
		log.Debugf("gamma: using CRTC %d with %d gamma entries", crtc, x.size)
		return nil
	}

	conn.Close()
	return errNoCrtc
}

// SetRamp resamples ramp to the CRTC gamma size and uploads it.
func (x *RandR) SetRamp(ramp *Ramp) bool {
	if x.conn == nil {
		return false
	}

	red, green, blue := spread(ramp, x.size)
	err := randr.SetCrtcGammaChecked(x.conn, x.crtc, uint16(x.size), red, green, blue).Check()
	if err != nil {
		log.Debugf("gamma: SetCrtcGamma failed: %v", err)
		return false
	}
	return true
}

// GetRamp downloads the CRTC gamma and resamples it to RampSize entries.
func (x *RandR) GetRamp(ramp *Ramp) bool {
	if x.conn == nil {
		return false
	}

	reply, err := randr.GetCrtcGamma(x.conn, x.crtc).Reply()
	if err != nil {
		log.Debugf("gamma: GetCrtcGamma failed: %v", err)
		return false
	}
	return gather(ramp, reply.Red, reply.Green, reply.Blue)
}

// spread stretches ramp over a CRTC table of n entries.
func spread(ramp *Ramp, n int) (red, green, blue []uint16) {
	red = make([]uint16, n)
	green = make([]uint16, n)
	blue = make([]uint16, n)
	for j := 0; j < n; j++ {
		i := resample(j, n, RampSize)
		red[j] = ramp.Red[i]
		green[j] = ramp.Green[i]
		blue[j] = ramp.Blue[i]
	}
	return red, green, blue
}

// gather is the inverse of spread: entry i is read from the first CRTC
// index spread filled from ramp entry i, so a table of 256 or more entries
// reads back the ramp that was written.
func gather(ramp *Ramp, red, green, blue []uint16) bool {
	n := len(red)
	if n == 0 || len(green) != n || len(blue) != n {
		return false
	}
	for i := 0; i < RampSize; i++ {
		j := resampleCeil(i, RampSize, n)
		ramp.Red[i] = red[j]
		ramp.Green[i] = green[j]
		ramp.Blue[i] = blue[j]
	}
	return true
}

func (x *RandR) Close() error {
	if x.conn != nil {
		x.conn.Close()
		x.conn = nil
	}
	return nil
}

// resample maps index i of a table with from entries onto a table with to
// entries, keeping both end points.
func resample(i, from, to int) int {
	if from <= 1 {
		return 0
	}
	return i * (to - 1) / (from - 1)
}

// resampleCeil is resample rounding up instead of down.
func resampleCeil(i, from, to int) int {
	if from <= 1 {
		return 0
	}
	return (i*(to-1) + from - 2) / (from - 1)
}
