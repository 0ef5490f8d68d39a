package manager

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hoppxi/clickdim/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	log.SetOutput(io.Discard)
	c := &ConfigManager{}

	got := c.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if diff := got.Diff(config.Defaults()); len(diff) != 0 {
		t.Errorf("settings differ from defaults in %v", diff)
	}
	if c.Events() != nil {
		t.Error("Events should be nil without a file")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	log.SetOutput(io.Discard)
	path := filepath.Join(t.TempDir(), "clickdim.yaml")
	if err := os.WriteFile(path, []byte("mode: rampup\nrampUpInterval: 0.1\nrestLevel: nope\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CLICKDIM_SOLIDINTERVAL", "2.5")

	c := &ConfigManager{}
	got := c.Load(path)
	if got.Mode != config.ModeRampUp {
		t.Errorf("mode = %q", got.Mode)
	}
	if got.RampUpInterval != 100*time.Millisecond {
		t.Errorf("rampUpInterval = %v", got.RampUpInterval)
	}
	if got.SolidInterval != 2500*time.Millisecond {
		t.Errorf("solidInterval = %v; want env override", got.SolidInterval)
	}
	if got.RestLevel != config.Defaults().RestLevel {
		t.Errorf("restLevel = %d; want default", got.RestLevel)
	}

	if err := os.WriteFile(path, []byte("mode: solid\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if reloaded := c.Reload(); reloaded.Mode != config.ModeSolid {
		t.Errorf("reloaded mode = %q", reloaded.Mode)
	}
}

func TestReloadLeavesLoadedInstanceAlone(t *testing.T) {
	log.SetOutput(io.Discard)
	path := filepath.Join(t.TempDir(), "clickdim.yaml")
	if err := os.WriteFile(path, []byte("mode: rampup\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := &ConfigManager{}
	c.Load(path)
	loaded := c.v

	if err := os.WriteFile(path, []byte("mode: solid\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := c.Reload(); got.Mode != config.ModeSolid {
		t.Errorf("reloaded mode = %q", got.Mode)
	}
	if c.v != loaded {
		t.Error("Reload replaced the loaded instance")
	}
	if got := config.FromViper(loaded); got.Mode != config.ModeRampUp {
		t.Errorf("Reload re-read the loaded instance: mode = %q", got.Mode)
	}
}
