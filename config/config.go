// Package config describes the clickdim settings and how raw configuration
// values are turned into them. Values that cannot be parsed fall back to
// their defaults instead of failing startup.
package config

import (
	"math"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	ModeRampUp = "rampup"
	ModeSolid  = "solid"
)

var DefaultInputDevices = []string{
	"/dev/input/by-id/*-event-mouse",
	"/dev/input/by-path/*-event-mouse",
}

// Keys lists every recognised setting.
var Keys = []string{
	"mode",
	"rampUpInterval",
	"solidInterval",
	"restLevel",
	"shutdownTimeout",
	"inputDevices",
	"display",
	"logLevel",
}

// Settings are read once at startup and stay fixed for the process lifetime.
type Settings struct {
	Mode            string
	RampUpInterval  time.Duration
	SolidInterval   time.Duration
	RestLevel       int
	ShutdownTimeout time.Duration
	InputDevices    []string
	Display         string
	LogLevel        string
}

// File is the on-disk layout. Durations are stored in seconds.
type File struct {
	Mode            string   `yaml:"mode"`
	RampUpInterval  float64  `yaml:"rampUpInterval"`
	SolidInterval   float64  `yaml:"solidInterval"`
	RestLevel       int      `yaml:"restLevel"`
	ShutdownTimeout float64  `yaml:"shutdownTimeout"`
	InputDevices    []string `yaml:"inputDevices"`
	Display         string   `yaml:"display,omitempty"`
	LogLevel        string   `yaml:"logLevel"`
}

func Defaults() Settings {
	return Settings{
		Mode:            ModeSolid,
		RampUpInterval:  60 * time.Millisecond,
		SolidInterval:   6 * time.Second,
		RestLevel:       130,
		ShutdownTimeout: 3 * time.Second,
		InputDevices:    append([]string(nil), DefaultInputDevices...),
		Display:         "",
		LogLevel:        "info",
	}
}

// FromViper reads every setting from v, replacing missing or unparsable
// values with the default.
func FromViper(v *viper.Viper) Settings {
	d := Defaults()
	return Settings{
		Mode:            modeName(v.Get("mode"), d.Mode),
		RampUpInterval:  seconds("rampUpInterval", v.Get("rampUpInterval"), d.RampUpInterval),
		SolidInterval:   seconds("solidInterval", v.Get("solidInterval"), d.SolidInterval),
		RestLevel:       level("restLevel", v.Get("restLevel"), d.RestLevel),
		ShutdownTimeout: seconds("shutdownTimeout", v.Get("shutdownTimeout"), d.ShutdownTimeout),
		InputDevices:    patterns(v.Get("inputDevices"), d.InputDevices),
		Display:         cast.ToString(v.Get("display")),
		LogLevel:        logLevel(v.Get("logLevel"), d.LogLevel),
	}
}

func (s Settings) File() File {
	return File{
		Mode:            s.Mode,
		RampUpInterval:  s.RampUpInterval.Seconds(),
		SolidInterval:   s.SolidInterval.Seconds(),
		RestLevel:       s.RestLevel,
		ShutdownTimeout: s.ShutdownTimeout.Seconds(),
		InputDevices:    s.InputDevices,
		Display:         s.Display,
		LogLevel:        s.LogLevel,
	}
}

// Diff lists the keys whose values differ between s and other.
func (s Settings) Diff(other Settings) []string {
	var changed []string
	if s.Mode != other.Mode {
		changed = append(changed, "mode")
	}
	if s.RampUpInterval != other.RampUpInterval {
		changed = append(changed, "rampUpInterval")
	}
	if s.SolidInterval != other.SolidInterval {
		changed = append(changed, "solidInterval")
	}
	if s.RestLevel != other.RestLevel {
		changed = append(changed, "restLevel")
	}
	if s.ShutdownTimeout != other.ShutdownTimeout {
		changed = append(changed, "shutdownTimeout")
	}
	if strings.Join(s.InputDevices, "\x00") != strings.Join(other.InputDevices, "\x00") {
		changed = append(changed, "inputDevices")
	}
	if s.Display != other.Display {
		changed = append(changed, "display")
	}
	if s.LogLevel != other.LogLevel {
		changed = append(changed, "logLevel")
	}
	return changed
}

// Mode normalises a mode name, returning def for unknown names.
func Mode(raw string, def string) string {
	return modeName(raw, def)
}

// Seconds parses raw as a positive number of seconds, returning def
// otherwise.
func Seconds(raw string, def time.Duration) time.Duration {
	return seconds("duration", raw, def)
}

func modeName(raw any, def string) string {
	name := strings.ToLower(strings.TrimSpace(cast.ToString(raw)))
	switch name {
	case ModeRampUp, ModeSolid:
		return name
	}
	if name != "" {
		log.Debugf("config: unknown mode %q, using %s", name, def)
	}
	return def
}

func seconds(key string, raw any, def time.Duration) time.Duration {
	if raw == nil {
		return def
	}
	if s, ok := raw.(string); ok {
		raw = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(f) || f <= 0 || f*float64(time.Second) >= math.MaxInt64 {
		log.Debugf("config: invalid %s %v, using %v", key, raw, def)
		return def
	}
	d := time.Duration(f * float64(time.Second))
	if d <= 0 {
		log.Debugf("config: %s %v is below a nanosecond, using %v", key, raw, def)
		return def
	}
	return d
}

func level(key string, raw any, def int) int {
	if raw == nil {
		return def
	}
	n, err := cast.ToIntE(raw)
	if err != nil || n < 1 || n > 255 {
		log.Debugf("config: invalid %s %v, using %d", key, raw, def)
		return def
	}
	return n
}

func patterns(raw any, def []string) []string {
	list, err := cast.ToStringSliceE(raw)
	if err != nil || len(list) == 0 {
		return append([]string(nil), def...)
	}
	return list
}

func logLevel(raw any, def string) string {
	name := strings.ToLower(strings.TrimSpace(cast.ToString(raw)))
	if _, err := log.ParseLevel(name); err != nil {
		return def
	}
	return name
}
