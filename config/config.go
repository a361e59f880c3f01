// Package config loads runtime settings for the model runtime and watches
// them for changes.
package config

import (
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Settings is the runtime configuration surface.
type Settings struct {
	// Diagnostics enables the per-invocation logging callback. This is the
	// explicit switch; the runtime never reads environment flags itself.
	Diagnostics bool `mapstructure:"diagnostics"`

	// SchemaDir is the directory of model schema YAML documents.
	SchemaDir string `mapstructure:"schema_dir"`

	Providers map[string]ProviderSettings `mapstructure:"providers"`
}

// ProviderSettings configures one backend's endpoint and default key.
type ProviderSettings struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// Config holds the loaded settings and rereads them when the file changes.
type Config struct {
	v        *viper.Viper
	mu       sync.RWMutex
	value    Settings
	watchers []func(old, new Settings)
}

// Load reads the settings file, binds MODELRUNTIME_-prefixed environment
// variables, and starts watching the file for changes.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MODELRUNTIME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, err
	}

	c := &Config{v: v, value: s}
	c.watch()
	return c, nil
}

// Get returns the current settings.
func (c *Config) Get() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// OnChange registers a callback invoked after the settings file is reloaded.
func (c *Config) OnChange(callback func(old, new Settings)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers = append(c.watchers, callback)
}

func (c *Config) watch() {
	var (
		debounceMu    sync.Mutex
		debounceTimer *time.Timer
	)

	// Editors fire several fsnotify events per save; debounce them into one
	// reload.
	c.v.OnConfigChange(func(_ fsnotify.Event) {
		debounceMu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(100*time.Millisecond, c.reload)
		debounceMu.Unlock()
	})

	c.v.WatchConfig()
}

func (c *Config) reload() {
	if err := c.v.ReadInConfig(); err != nil {
		return
	}
	var next Settings
	if err := c.v.Unmarshal(&next); err != nil {
		return
	}

	c.mu.Lock()
	old := c.value
	c.value = next
	watchers := append(([]func(old, new Settings))(nil), c.watchers...)
	c.mu.Unlock()

	for _, w := range watchers {
		w(old, next)
	}
}
