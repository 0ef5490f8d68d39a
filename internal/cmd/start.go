package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hoppxi/clickdim/internal/controller"
	"github.com/hoppxi/clickdim/internal/manager"
	"github.com/hoppxi/clickdim/internal/subscribe"
	"github.com/hoppxi/clickdim/internal/watchers"
	"github.com/hoppxi/clickdim/pkg/gamma"
	"github.com/hoppxi/clickdim/pkg/mode"
)

var errAlreadyRunning = errors.New("daemon already running")

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the click-to-dim daemon in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		if conn, err := manager.Manage.ConnectIPC(); err == nil {
			conn.Close()
			return fmt.Errorf("%w (socket %s)", errAlreadyRunning, manager.Manage.SocketPath())
		}

		dev, err := gamma.Open(gamma.NewRandR(settings.Display))
		if err != nil {
			return fmt.Errorf("open display: %w", err)
		}
		logStartupLevel(dev)

		m := mode.Parse(settings.Mode, settings.RampUpInterval, settings.SolidInterval)
		ctrl := controller.New(dev, m, controller.Options{RestLevel: settings.RestLevel})
		manager.Manage.Attach(ctrl, dev, settings.ShutdownTimeout)

		if err := manager.Manage.StartIPCServer(); err != nil {
			manager.Manage.StopAll()
			return err
		}

		if err := ctrl.Listen(subscribe.NewPointerEvents(settings.InputDevices)); err != nil {
			manager.Manage.StopAll()
			return fmt.Errorf("listen for clicks: %w", err)
		}

		manager.Manage.StartWatcher(watchers.StartPowerWatcher(func() {
			manager.Manage.StopAll()
		}))
		if events := manager.Config.Events(); events != nil {
			manager.Manage.StartWatcher(watchers.StartConfigWatcher(events, settings, manager.Config.Reload))
		}

		log.WithField("mode", m.Name()).Info("clickdim started. Press Ctrl+C to stop.")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			log.Infof("Received %v, restoring brightness...", sig)
			if err := manager.Manage.StopAll(); err != nil {
				return err
			}
		case <-manager.Manage.Done():
		}
		manager.Manage.Wait()
		log.Info("clickdim stopped")
		return nil
	},
}

func logStartupLevel(dev *gamma.Device) {
	ramp, err := dev.Brightness()
	if err != nil {
		log.Warnf("could not read the current gamma ramp: %v", err)
		return
	}
	if level, ok := ramp.Level(); ok {
		log.Infof("current brightness level %d", level)
		return
	}
	log.Info("current gamma ramp was not set by clickdim")
}
