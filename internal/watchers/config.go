package watchers

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/hoppxi/clickdim/config"
	"github.com/hoppxi/clickdim/internal/subscribe"
)

// StartConfigWatcher reports edits to the configuration file. The mode and
// its intervals are fixed for the lifetime of the daemon, so a change is
// only logged.
func StartConfigWatcher(events <-chan subscribe.ConfigEvent, running config.Settings, reload func() config.Settings) func(stop <-chan struct{}) {
	return func(stop <-chan struct{}) {
		for {
			select {
			case <-stop:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				changed := running.Diff(reload())
				if len(changed) == 0 {
					log.Debugf("watchers: %s rewritten without changes", ev.Path)
					continue
				}
				log.Warnf("watchers: %s changed (%s); restart clickdim to apply", ev.Path, strings.Join(changed, ", "))
			}
		}
	}
}
