package cmd

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hoppxi/clickdim/config"
)

func TestPromptSettings(t *testing.T) {
	input := strings.Join([]string{
		"RampUp",
		"",
		"0.1",
		"999",
		":1",
	}, "\n") + "\n"

	got := promptSettings(bufio.NewReader(strings.NewReader(input)), io.Discard, config.Defaults())

	if got.Mode != config.ModeRampUp {
		t.Errorf("mode = %q", got.Mode)
	}
	if got.SolidInterval != 6*time.Second {
		t.Errorf("solid interval = %v; want the default", got.SolidInterval)
	}
	if got.RampUpInterval != 100*time.Millisecond {
		t.Errorf("ramp-up interval = %v", got.RampUpInterval)
	}
	if got.RestLevel != 130 {
		t.Errorf("rest level = %d; out of range input should keep the default", got.RestLevel)
	}
	if got.Display != ":1" {
		t.Errorf("display = %q", got.Display)
	}
}

func TestConfirm(t *testing.T) {
	tests := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
	}
	for input, want := range tests {
		if got := confirm(bufio.NewReader(strings.NewReader(input)), io.Discard, "Overwrite?"); got != want {
			t.Errorf("confirm(%q) = %v; want %v", input, got, want)
		}
	}
}

func TestWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clickdim", "clickdim.yaml")
	s := config.Defaults()
	s.Mode = config.ModeRampUp

	if err := writeConfig(path, s); err != nil {
		t.Fatalf("writeConfig: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var f config.File
	if err := yaml.Unmarshal(data, &f); err != nil {
		t.Fatalf("written file is not YAML: %v", err)
	}
	if f.Mode != "rampup" || f.SolidInterval != 6 || f.RestLevel != 130 {
		t.Errorf("unexpected file %+v", f)
	}
}
