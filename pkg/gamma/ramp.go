package gamma

import "math"

// RampSize is the number of entries per channel in a gamma ramp.
const RampSize = 256

const (
	MinLevel = 0
	MaxLevel = 255

	// levelOffset keeps level 0 from producing a fully black ramp.
	levelOffset = 128
)

// Ramp is the lookup table a display driver uses to map input levels to output
// levels. Only used as a dimmer here, so every channel carries the same curve.
type Ramp struct {
	Red   [RampSize]uint16
	Green [RampSize]uint16
	Blue  [RampSize]uint16
}

// Clamp limits a brightness level to [MinLevel, MaxLevel].
func Clamp(level int) int {
	if level > MaxLevel {
		return MaxLevel
	}
	if level < MinLevel {
		return MinLevel
	}
	return level
}

// BuildRamp returns the ramp for a brightness level. Entry i of every channel
// is min(i*(level+128), 65535) with level clamped first.
func BuildRamp(level int) Ramp {
	level = Clamp(level)

	var ramp Ramp
	for i := 0; i < RampSize; i++ {
		value := uint16(min(i*(level+levelOffset), math.MaxUint16))
		ramp.Red[i] = value
		ramp.Green[i] = value
		ramp.Blue[i] = value
	}
	return ramp
}

// Level reports the brightness level this ramp was built from. ok is false
// when the ramp was not produced by BuildRamp, e.g. a color-corrected profile
// loaded by another program.
func (r Ramp) Level() (level int, ok bool) {
	level = int(r.Red[1]) - levelOffset
	if level < MinLevel || level > MaxLevel {
		return 0, false
	}
	if BuildRamp(level) != r {
		return 0, false
	}
	return level, true
}
