package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hoppxi/clickdim/internal/manager"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon state and current brightness",
	RunE: func(cmd *cobra.Command, args []string) error {
		return ipc(cmd, "STATUS")
	},
}

var clickCmd = &cobra.Command{
	Use:   "click",
	Short: "Trigger the brightness sequence as if the mouse was clicked",
	RunE: func(cmd *cobra.Command, args []string) error {
		return ipc(cmd, "CLICK")
	},
}

func ipc(cmd *cobra.Command, command string) error {
	response, err := manager.Manage.SendIPCCommand(command)
	if err != nil {
		return err
	}
	if msg, ok := strings.CutPrefix(response, "ERR: "); ok {
		return errors.New(msg)
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimPrefix(response, "OK: "))
	return nil
}
