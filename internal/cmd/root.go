package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hoppxi/clickdim/config"
	"github.com/hoppxi/clickdim/internal/manager"
)

var Version = "0.1.0"

var (
	configPath string
	logLevel   string
	settings   config.Settings
)

// daemonCommands talk to a running daemon and fail early without one.
var daemonCommands = map[string]bool{
	"kill":   true,
	"status": true,
	"click":  true,
}

var rootCmd = &cobra.Command{
	Use:     "clickdim",
	Version: Version,
	Short:   "Dim the display when the mouse is clicked",
	Long: `clickdim watches the primary mouse button and drives the display gamma ramp
through a timed sequence on every press.

Modes:
  solid    dim to black, wait, then settle at the rest level (default)
  rampup   start dark and brighten in steps up to the rest level

Brightness is restored when the daemon stops, the session ends or the
system shuts down.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		settings = manager.Config.Load(configPath)
		setupLogging(settings.LogLevel)

		if !daemonCommands[cmd.Name()] {
			return nil
		}
		conn, err := manager.Manage.ConnectIPC()
		if err != nil {
			return fmt.Errorf("%w\nhint: run `clickdim start` first", err)
		}
		conn.Close()
		return nil
	},
}

func setupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if logLevel != "" {
		level = logLevel
	}
	parsed, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.Warnf("unknown log level %q, using info", level)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

func Execute() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration file (default "+manager.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clickCmd)
	rootCmd.AddCommand(displayCmd)
	rootCmd.AddCommand(generateConfigCmd)
}
