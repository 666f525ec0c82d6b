package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Defaults applied to omitted engine settings.
const (
	DefaultWorkers       = 8
	DefaultQueueDepth    = 1000
	DefaultEvalTimeoutMs = 2000
)

// Loader reads a YAML policy file and watches it for changes.
type Loader struct {
	path     string
	reloadMu sync.Mutex // one reload at a time
	mu       sync.RWMutex
	current  *PolicyConfig
	onChange []func(*PolicyConfig) error
}

// NewLoader creates a Loader and performs the initial load. The file must
// parse and validate.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Path returns the watched file.
func (l *Loader) Path() string { return l.path }

// Config returns the current (latest) configuration.
func (l *Loader) Config() *PolicyConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked with every config that parses and
// validates. A callback returning an error rejects the reload: later
// callbacks are skipped and Config keeps returning the previous config.
func (l *Loader) OnChange(fn func(*PolicyConfig) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file
// changes. The parent directory is watched so editors that replace the file
// by rename are picked up. A change that fails to parse or validate is logged
// and the previous config stays in effect. Call the returned stop function to
// clean up; it waits for the goroutine to exit.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", dir, err)
	}
	target := filepath.Clean(l.path)

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("policy reload rejected; keeping previous policy", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("policy watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}, nil
}

// Reload forces an immediate re-read of the config file. The new config
// becomes current only when it loads and every OnChange callback accepts it;
// on error the current config is left untouched.
func (l *Loader) Reload() (*PolicyConfig, error) {
	l.reloadMu.Lock()
	defer l.reloadMu.Unlock()

	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.RLock()
	callbacks := make([]func(*PolicyConfig) error, len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.RUnlock()
	for _, fn := range callbacks {
		if err := fn(cfg); err != nil {
			return nil, fmt.Errorf("config %s rejected: %w", l.path, err)
		}
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

func (l *Loader) load() (*PolicyConfig, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", l.path, err)
	}
	return cfg, nil
}

// Parse decodes a policy document, applies defaults and validates it.
func Parse(data []byte) (*PolicyConfig, error) {
	var cfg PolicyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	cfg.SetDefaults()
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills omitted engine settings.
func (c *PolicyConfig) SetDefaults() {
	if c.Engine.Workers == 0 {
		c.Engine.Workers = DefaultWorkers
	}
	if c.Engine.QueueDepth == 0 {
		c.Engine.QueueDepth = DefaultQueueDepth
	}
	if c.Engine.EvalTimeoutMs == 0 {
		c.Engine.EvalTimeoutMs = DefaultEvalTimeoutMs
	}
	if c.Engine.CustomDialect == "" {
		c.Engine.CustomDialect = "key"
	}
}
