package watchers

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hoppxi/clickdim/config"
	"github.com/hoppxi/clickdim/internal/subscribe"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestConfigWatcherLogsRestartRequired(t *testing.T) {
	out := &syncBuffer{}
	log.SetOutput(out)
	log.SetLevel(log.DebugLevel)
	defer log.SetLevel(log.InfoLevel)

	running := config.Defaults()
	edited := running
	edited.Mode = config.ModeRampUp

	reloads := make(chan config.Settings, 2)
	reloads <- running
	reloads <- edited

	events := make(chan subscribe.ConfigEvent)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		StartConfigWatcher(events, running, func() config.Settings { return <-reloads })(stop)
		close(done)
	}()

	events <- subscribe.ConfigEvent{Path: "clickdim.yaml"}
	events <- subscribe.ConfigEvent{Path: "clickdim.yaml"}
	close(stop)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}

	logged := out.String()
	if !strings.Contains(logged, "without changes") {
		t.Errorf("unchanged rewrite not reported:\n%s", logged)
	}
	if !strings.Contains(logged, "restart clickdim") || !strings.Contains(logged, "mode") {
		t.Errorf("mode change not reported:\n%s", logged)
	}
}

func TestConfigWatcherStopsOnClosedEvents(t *testing.T) {
	events := make(chan subscribe.ConfigEvent)
	close(events)

	done := make(chan struct{})
	go func() {
		StartConfigWatcher(events, config.Defaults(), config.Defaults)(make(chan struct{}))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher kept running after its events closed")
	}
}
