package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hoppxi/clickdim/config"
	"github.com/hoppxi/clickdim/internal/manager"
)

var useDefaults bool

var generateConfigCmd = &cobra.Command{
	Use:   "generate-config",
	Short: "Write a clickdim.yaml with your settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		path := configPath
		if path == "" {
			path = manager.DefaultConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !useDefaults {
			if !confirm(reader, out, path+" already exists. Overwrite with new settings?") {
				return nil
			}
		}

		s := config.Defaults()
		if !useDefaults {
			s = promptSettings(reader, out, s)
		}

		if err := writeConfig(path, s); err != nil {
			return err
		}
		fmt.Fprintf(out, "Config written to %s\n", path)
		return nil
	},
}

func init() {
	generateConfigCmd.Flags().BoolVar(&useDefaults, "defaults", false, "write the defaults without prompting")
}

func promptSettings(reader *bufio.Reader, out io.Writer, s config.Settings) config.Settings {
	s.Mode = config.Mode(prompt(reader, out, "Mode (solid or rampup)", s.Mode), s.Mode)
	s.SolidInterval = config.Seconds(prompt(reader, out, "Solid delay in seconds", fmtSeconds(s.SolidInterval.Seconds())), s.SolidInterval)
	s.RampUpInterval = config.Seconds(prompt(reader, out, "Ramp-up step interval in seconds", fmtSeconds(s.RampUpInterval.Seconds())), s.RampUpInterval)
	if n, err := strconv.Atoi(prompt(reader, out, "Rest brightness level (1-255)", strconv.Itoa(s.RestLevel))); err == nil && n >= 1 && n <= 255 {
		s.RestLevel = n
	}
	s.Display = prompt(reader, out, "X display (empty for $DISPLAY)", s.Display)
	return s
}

func writeConfig(path string, s config.Settings) error {
	d, err := yaml.Marshal(s.File())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}

func fmtSeconds(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func prompt(r *bufio.Reader, out io.Writer, label, defaultValue string) string {
	fmt.Fprintf(out, "%s [%s]: ", label, defaultValue)
	input, _ := r.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

func confirm(r *bufio.Reader, out io.Writer, message string) bool {
	fmt.Fprintf(out, "%s (y/N): ", message)
	input, _ := r.ReadString('\n')
	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes"
}
