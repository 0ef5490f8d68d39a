package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/spf13/cobra"

	"github.com/hoppxi/clickdim/internal/manager"
)

var askBeforeKill bool

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Stop the daemon and restore brightness",
	RunE: func(cmd *cobra.Command, args []string) error {
		if askBeforeKill {
			err := zenity.Question("Stop clickdim and restore the display brightness?",
				zenity.Title("clickdim"),
				zenity.OKLabel("Stop"),
				zenity.CancelLabel("Keep running"),
				zenity.QuestionIcon,
			)
			if errors.Is(err, zenity.ErrCanceled) {
				fmt.Println("clickdim keeps running.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("confirmation dialog: %w", err)
			}
		}

		response, err := manager.Manage.SendIPCCommand("STOP")
		if err != nil {
			return fmt.Errorf("%w (is the daemon running?)", err)
		}

		if response == "" {
			return errors.New("daemon closed the connection without replying")
		}
		fmt.Printf("Server response: %s\n", response)
		if !strings.HasPrefix(response, "OK") {
			return errors.New(strings.TrimPrefix(response, "ERR: "))
		}
		return nil
	},
}

func init() {
	killCmd.Flags().BoolVar(&askBeforeKill, "ask", false, "ask for confirmation in a dialog first")
}
