package manager

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	log "github.com/sirupsen/logrus"

	"github.com/hoppxi/clickdim/config"
	"github.com/hoppxi/clickdim/internal/subscribe"
)

const envPrefix = "CLICKDIM"

type ConfigManager struct {
	mu     sync.Mutex
	v      *viper.Viper
	path   string
	loaded bool
	watch  sync.Once
	events <-chan subscribe.ConfigEvent
}

var Config = &ConfigManager{}

func DefaultConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "clickdim.yaml"
	}
	return filepath.Join(configDir, "clickdim", "clickdim.yaml")
}

// Load reads settings from path, or from the default location when path is
// empty. A missing or broken file leaves every setting at its default.
func (c *ConfigManager) Load(path string) config.Settings {
	if path == "" {
		path = DefaultConfigPath()
	}

	v := newViper(path)
	loaded := true
	if err := v.ReadInConfig(); err != nil {
		loaded = false
		log.Debugf("config: using defaults: %v", err)
	}

	c.mu.Lock()
	c.v = v
	c.path = path
	c.loaded = loaded
	c.mu.Unlock()

	return config.FromViper(v)
}

// Reload re-reads the file Load used into a fresh viper instance. The
// loaded instance belongs to the file watcher, which reads it on its own
// goroutine.
func (c *ConfigManager) Reload() config.Settings {
	c.mu.Lock()
	path := c.path
	loaded := c.v != nil
	c.mu.Unlock()
	if !loaded {
		return c.Load("")
	}

	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		log.Debugf("config: reload failed: %v", err)
	}
	return config.FromViper(v)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range config.Keys {
		_ = v.BindEnv(key)
	}
	return v
}

// Events reports edits to the loaded file. It returns nil when no file was
// read, since there is nothing to watch.
func (c *ConfigManager) Events() <-chan subscribe.ConfigEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.v == nil || !c.loaded {
		return nil
	}
	c.watch.Do(func() {
		c.events = subscribe.ConfigEvents(c.v)
	})
	return c.events
}
