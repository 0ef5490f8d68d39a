package subscribe

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

var errPointerStarted = errors.New("subscribe: pointer events already started")

// udev sets the input group ACL on a new node shortly after creating it, so
// a permission error on open is retried a few times.
const (
	openRetries    = 5
	openRetryDelay = 200 * time.Millisecond
)

// PointerEvents reads evdev pointer devices and emits one event per primary
// button press. Devices that appear after Start are picked up through
// fsnotify.
type PointerEvents struct {
	patterns   []string
	retryDelay time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	events  chan struct{}
	stop    chan struct{}
	devices map[string]*os.File
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

func NewPointerEvents(patterns []string) *PointerEvents {
	return &PointerEvents{
		patterns:   patterns,
		retryDelay: openRetryDelay,
		devices:    make(map[string]*os.File),
	}
}

func (p *PointerEvents) Start() (<-chan struct{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil, errPointerStarted
	}
	p.started = true
	p.events = make(chan struct{}, 16)
	p.stop = make(chan struct{})

	for _, path := range p.match() {
		p.openLocked(path)
	}
	if len(p.devices) == 0 {
		log.Warnf("subscribe: no pointer device matches %v yet", p.patterns)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warnf("subscribe: hot-plug disabled: %v", err)
		return p.events, nil
	}
	for _, dir := range p.dirs() {
		if err := watcher.Add(dir); err != nil {
			log.Debugf("subscribe: not watching %s: %v", dir, err)
		}
	}
	p.watcher = watcher
	p.wg.Add(1)
	go p.watch(watcher)

	return p.events, nil
}

func (p *PointerEvents) Stop() error {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.stop)

	var errs []error
	if p.watcher != nil {
		errs = append(errs, p.watcher.Close())
	}
	for path, f := range p.devices {
		errs = append(errs, f.Close())
		delete(p.devices, path)
	}
	p.mu.Unlock()

	p.wg.Wait()
	close(p.events)
	return errors.Join(errs...)
}

func (p *PointerEvents) match() []string {
	var paths []string
	for _, pattern := range p.patterns {
		found, err := filepath.Glob(pattern)
		if err != nil {
			log.Warnf("subscribe: bad device pattern %q: %v", pattern, err)
			continue
		}
		paths = append(paths, found...)
	}
	return paths
}

func (p *PointerEvents) matches(path string) bool {
	for _, pattern := range p.patterns {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

func (p *PointerEvents) dirs() []string {
	var dirs []string
	for _, pattern := range p.patterns {
		dir := filepath.Dir(pattern)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// openLocked starts a reader for path. The same device is often linked from
// both by-id and by-path, so devices are keyed by their resolved node.
func (p *PointerEvents) openLocked(path string) {
	p.tryOpenLocked(path, 1)
}

func (p *PointerEvents) tryOpenLocked(path string, attempt int) {
	if p.stopped {
		return
	}
	node, err := filepath.EvalSymlinks(path)
	if err != nil {
		log.Debugf("subscribe: resolve %s: %v", path, err)
		return
	}
	if _, ok := p.devices[node]; ok {
		return
	}

	f, err := os.Open(node)
	if errors.Is(err, fs.ErrPermission) && attempt < openRetries {
		log.Debugf("subscribe: %s not readable yet, retrying: %v", node, err)
		time.AfterFunc(p.retryDelay, func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.tryOpenLocked(path, attempt+1)
		})
		return
	}
	if err != nil {
		log.Warnf("subscribe: cannot read %s (is the user in the input group?): %v", node, err)
		return
	}
	p.devices[node] = f
	log.Infof("subscribe: listening for clicks on %s", path)

	p.wg.Add(1)
	go p.read(node, f)
}

func (p *PointerEvents) read(node string, f *os.File) {
	defer p.wg.Done()

	buf := make([]byte, eventSize*64)
	for {
		n, err := f.Read(buf)
		if err != nil {
			p.forget(node, f, err)
			return
		}
		for off := 0; off+eventSize <= n; off += eventSize {
			if !decodeEvent(buf[off : off+eventSize]).primaryPress() {
				continue
			}
			select {
			case p.events <- struct{}{}:
			case <-p.stop:
				return
			}
		}
	}
}

func (p *PointerEvents) forget(node string, f *os.File, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	if p.devices[node] == f {
		delete(p.devices, node)
		f.Close()
	}
	log.Infof("subscribe: stopped reading %s: %v", node, err)
}

func (p *PointerEvents) watch(watcher *fsnotify.Watcher) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Chmod) != 0 && p.matches(event.Name) {
				p.mu.Lock()
				p.openLocked(event.Name)
				p.mu.Unlock()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("subscribe: device watcher error: %v", err)
		}
	}
}
