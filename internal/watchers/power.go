package watchers

import (
	log "github.com/sirupsen/logrus"

	"github.com/hoppxi/clickdim/internal/subscribe"
)

// StartPowerWatcher runs onShutdown when logind announces a shutdown or
// reboot. The inhibitor is released once onShutdown returns, which is after
// brightness has been restored.
func StartPowerWatcher(onShutdown func()) func(stop <-chan struct{}) {
	return func(stop <-chan struct{}) {
		power, err := subscribe.SubscribePower(stop)
		if err != nil {
			log.Warnf("watchers: logind unavailable, shutdown will not restore brightness: %v", err)
			<-stop
			return
		}
		defer power.Release()

		select {
		case <-stop:
		case <-power.Shutdown:
			onShutdown()
		}
	}
}
