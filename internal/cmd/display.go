package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hoppxi/clickdim/internal/controller"
	"github.com/hoppxi/clickdim/internal/manager"
	"github.com/hoppxi/clickdim/pkg/gamma"
)

var restoreDisplay bool

var displayCmd = &cobra.Command{
	Use:   "display",
	Short: "Show the current display brightness level",
	Long: `Show the brightness level of the current gamma ramp. With --restore the rest
level is written, which recovers a display left dim by a crashed daemon.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if restoreDisplay {
			if conn, err := manager.Manage.ConnectIPC(); err == nil {
				conn.Close()
				return errors.New("the daemon is running; use `clickdim kill` to restore brightness")
			}
		}

		dev, err := gamma.Open(gamma.NewRandR(settings.Display))
		if err != nil {
			return fmt.Errorf("open display: %w", err)
		}
		defer dev.Close()

		if restoreDisplay {
			level := settings.RestLevel
			if level == 0 {
				level = controller.DefaultRestLevel
			}
			if !dev.SetBrightness(level) {
				return fmt.Errorf("display rejected brightness level %d", level)
			}
		}

		ramp, err := dev.Brightness()
		if err != nil {
			return err
		}
		if level, ok := ramp.Level(); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "level %d\n", level)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "custom gamma ramp (not set by clickdim)")
		return nil
	},
}

func init() {
	displayCmd.Flags().BoolVar(&restoreDisplay, "restore", false, "write the rest level first")
}
