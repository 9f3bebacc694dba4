package config

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/artpar/lowcode/core/schema"
)

// Holder provides thread-safe access to configuration with hot reload support.
// It can also watch the schema directory and report changed definition files.
type Holder struct {
	mu        sync.RWMutex
	config    *Config
	path      string
	schemaDir string
	logger    zerolog.Logger
	watcher   *fsnotify.Watcher
	onChange  []func(*Config)
	onSchema  []func(path string)
	stopOnce  sync.Once
	stopCh    chan struct{}
}

// NewHolder creates a new config holder and loads the initial configuration.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	return newHolder(cfg, absPath, logger), nil
}

// NewStaticHolder wraps an already loaded configuration. Reload and
// WatchFile are no-ops for the config itself; schema watching still works.
func NewStaticHolder(cfg *Config, logger zerolog.Logger) *Holder {
	return newHolder(cfg, "", logger)
}

func newHolder(cfg *Config, path string, logger zerolog.Logger) *Holder {
	return &Holder{
		config: cfg,
		path:   path,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Get returns the current configuration (thread-safe).
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Reload reloads the configuration from disk.
// Returns error if loading fails (keeps old config).
func (h *Holder) Reload() error {
	if h.path == "" {
		return nil
	}
	h.logger.Info().Str("path", h.path).Msg("reloading configuration")

	newCfg, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping old config")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.config
	h.config = newCfg
	listeners := append([]func(*Config){}, h.onChange...)
	h.mu.Unlock()

	h.logChanges(oldCfg, newCfg)

	for _, fn := range listeners {
		fn(newCfg)
	}

	h.logger.Info().Msg("configuration reloaded successfully")
	return nil
}

// OnChange registers a callback to be called when config changes.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// OnSchemaChange registers a callback to be called with the path of every
// collection definition that is written, created, removed or renamed.
func (h *Holder) OnSchemaChange(fn func(path string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSchema = append(h.onSchema, fn)
}

// WatchFile starts watching the config file for changes.
// Changes trigger automatic reload.
func (h *Holder) WatchFile() error {
	if h.path == "" {
		return nil
	}
	w, err := h.ensureWatcher()
	if err != nil {
		return err
	}

	// Watch the directory (more reliable for editors that do atomic saves)
	if err := w.Add(filepath.Dir(h.path)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	h.logger.Info().Str("path", h.path).Msg("watching config file for changes")
	return nil
}

// WatchSchema starts watching dir and its subdirectories for collection
// definition changes.
func (h *Holder) WatchSchema(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	w, err := h.ensureWatcher()
	if err != nil {
		return err
	}

	// fsnotify is not recursive
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch schema dir: %w", err)
	}

	h.mu.Lock()
	h.schemaDir = absDir
	h.mu.Unlock()

	h.logger.Info().Str("dir", absDir).Msg("watching collection definitions for changes")
	return nil
}

// WatchSignals starts listening for SIGHUP to trigger reload.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading config")
				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-h.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()

	h.logger.Info().Msg("listening for SIGHUP to reload config")
}

// Stop stops watching for file changes and signals. It is safe to call twice.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) ensureWatcher() (*fsnotify.Watcher, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.watcher != nil {
		return h.watcher, nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = w

	go h.watchLoop(w)
	return w, nil
}

func (h *Holder) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			h.handle(w, event)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}

func (h *Holder) handle(w *fsnotify.Watcher, event fsnotify.Event) {
	h.mu.RLock()
	schemaDir := h.schemaDir
	h.mu.RUnlock()

	// React to write or create (atomic save = create)
	if h.path != "" && event.Name == h.path {
		if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		h.logger.Debug().
			Str("event", event.Op.String()).
			Str("file", event.Name).
			Msg("config file changed")

		if err := h.Reload(); err != nil {
			h.logger.Error().Err(err).Msg("file watch reload failed")
		}
		return
	}

	if schemaDir == "" || !within(schemaDir, event.Name) {
		return
	}

	// New subdirectories are watched as they appear.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.Add(event.Name); err != nil {
				h.logger.Warn().Err(err).Str("dir", event.Name).Msg("cannot watch new schema directory")
			}
			return
		}
	}

	if !schema.IsDefinitionFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	h.logger.Debug().
		Str("event", event.Op.String()).
		Str("file", event.Name).
		Msg("collection definition changed")

	h.mu.RLock()
	listeners := append([]func(string){}, h.onSchema...)
	h.mu.RUnlock()

	for _, fn := range listeners {
		fn(event.Name)
	}
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (h *Holder) logChanges(old, new *Config) {
	if old.Logging.Level != new.Logging.Level {
		h.logger.Info().
			Str("old", old.Logging.Level).
			Str("new", new.Logging.Level).
			Msg("log level changed")
	}

	if old.Codegen.Namespace != new.Codegen.Namespace {
		h.logger.Info().
			Str("old", old.Codegen.Namespace).
			Str("new", new.Codegen.Namespace).
			Msg("codegen namespace changed")
	}

	if old.Codegen.OutputDir != new.Codegen.OutputDir {
		h.logger.Info().
			Str("old", old.Codegen.OutputDir).
			Str("new", new.Codegen.OutputDir).
			Msg("codegen output directory changed")
	}

	if old.Database.DSN != new.Database.DSN || old.Schema.Dir != new.Schema.Dir {
		h.logger.Warn().Msg("database and schema settings change only after restart")
	}
}
