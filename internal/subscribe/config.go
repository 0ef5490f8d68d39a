package subscribe

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	log "github.com/sirupsen/logrus"
)

// ConfigEvents watches the file v was read from. Editors tend to write a
// file in several steps, so bursts are coalesced into one event.
func ConfigEvents(v *viper.Viper) <-chan ConfigEvent {
	events := make(chan ConfigEvent, 1)

	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		select {
		case events <- ConfigEvent{Path: e.Name}:
		case <-time.After(10 * time.Millisecond):
		}
	})

	go func() {
		v.WatchConfig()
		log.Debugf("subscribe: watching %s", v.ConfigFileUsed())
	}()

	return events
}
