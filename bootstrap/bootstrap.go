// Package bootstrap wires the field registry, storage, schema builder,
// validator and controller generator from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/lowcode/adapters/metrics"
	"github.com/artpar/lowcode/config"
	"github.com/artpar/lowcode/core/codegen"
	"github.com/artpar/lowcode/core/registry"
	"github.com/artpar/lowcode/core/schema"
	"github.com/artpar/lowcode/core/storage"
	"github.com/artpar/lowcode/core/validation"
)

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = "LOWCODE_CONFIG"

// App holds the wired components.
type App struct {
	Logger    zerolog.Logger
	Config    *config.Config
	Registry  *registry.Registry
	Validator *validation.Validator
	Generator *codegen.Generator
	Metrics   *metrics.Collector

	// Executor and Builder are nil when the app runs offline.
	Executor *storage.SQLExecutor
	Builder  *storage.Builder
	Dialect  storage.Dialect

	mu          sync.RWMutex
	collections map[string]*schema.Collection
}

// Options adjusts initialization.
type Options struct {
	// Logger replaces the logger built from the logging config.
	Logger *zerolog.Logger

	// Offline skips opening the database. Migrate and Drop then fail.
	Offline bool

	// Extensions are registered next to the default extension types.
	Extensions []Extension
}

// New creates and initializes the application.
func New(cfg *config.Config, opts Options) (*App, error) {
	logger := NewLogger(cfg.Logging)
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	a := &App{
		Logger:      logger,
		Config:      cfg,
		collections: make(map[string]*schema.Collection),
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
	}

	reg, err := NewRegistry(opts.Extensions...)
	if err != nil {
		return nil, err
	}
	a.Registry = reg

	var validationObserver validation.Observer
	var codegenObserver codegen.Observer
	var ddlObserver storage.Observer
	if a.Metrics != nil {
		validationObserver = a.Metrics
		codegenObserver = a.Metrics
		ddlObserver = a.Metrics
	}

	a.Validator, err = validation.New(reg, validationObserver)
	if err != nil {
		return nil, fmt.Errorf("init validator: %w", err)
	}
	a.Generator = codegen.NewGenerator(codegen.Config{Observer: codegenObserver})

	a.Dialect, err = storage.DialectFor(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	if !opts.Offline {
		exec, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		a.Executor = exec
		a.Builder = storage.NewBuilder(exec, storage.Config{
			Dialect:  a.Dialect,
			Logger:   logger,
			Observer: ddlObserver,
		})
		logger.Debug().Str("driver", exec.Driver()).Msg("database initialized")
	}

	return a, nil
}

// NewLogger builds a zerolog logger writing to stderr.
func NewLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// Reload applies the settings that take effect without a restart: codegen,
// logging and the metrics textfile. Database and schema settings are kept.
func (a *App) Reload(cfg *config.Config) {
	next := *a.Config
	next.Codegen = cfg.Codegen
	next.Metrics.Textfile = cfg.Metrics.Textfile
	if next.Logging != cfg.Logging {
		next.Logging = cfg.Logging
		a.Logger = NewLogger(cfg.Logging)
		a.Logger.Info().Str("level", cfg.Logging.Level).Msg("logger rebuilt")
	}
	a.Config = &next
}

// ParseOptions returns the collection options the config implies.
func (a *App) ParseOptions() []schema.Option {
	return []schema.Option{schema.WithTablePrefix(a.Config.Schema.Prefix())}
}

// LoadCollections parses every definition under the schema directory and
// replaces the loaded set.
func (a *App) LoadCollections() ([]*schema.Collection, error) {
	all, err := schema.ParseDir(a.Config.Schema.Dir, a.Registry, a.ParseOptions()...)
	if err != nil {
		return nil, err
	}

	loaded := make(map[string]*schema.Collection, len(all))
	for _, c := range all {
		loaded[c.Name()] = c
	}

	a.mu.Lock()
	a.collections = loaded
	a.mu.Unlock()

	if a.Metrics != nil {
		a.Metrics.CollectionsLoaded.Set(float64(len(all)))
	}
	a.Logger.Info().
		Str("dir", a.Config.Schema.Dir).
		Int("count", len(all)).
		Msg("collections loaded")
	return all, nil
}

// Collections returns the loaded collections sorted by name.
func (a *App) Collections() []*schema.Collection {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]*schema.Collection, 0, len(a.collections))
	for _, c := range a.collections {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Collection returns a loaded collection by name.
func (a *App) Collection(name string) (*schema.Collection, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	c, ok := a.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q not found in %s", name, a.Config.Schema.Dir)
	}
	return c, nil
}

// MigrateResult lists what Migrate did per collection.
type MigrateResult struct {
	Created []string
	Skipped []string
	Dropped []string
}

// Migrate creates the tables of every loaded collection that does not have
// one yet. With drop set, existing tables are dropped and recreated.
func (a *App) Migrate(ctx context.Context, drop bool) (MigrateResult, error) {
	var res MigrateResult
	if a.Builder == nil {
		return res, fmt.Errorf("migrate: no database (offline)")
	}

	opts := storage.TableOptions{Engine: a.Config.Database.Engine}
	for _, c := range a.Collections() {
		exists, err := a.Builder.HasTable(ctx, c.Table())
		if err != nil {
			return res, fmt.Errorf("migrate %s: %w", c.Name(), err)
		}

		if exists && drop {
			if err := a.Builder.DropCollection(ctx, c); err != nil {
				return res, fmt.Errorf("migrate %s: %w", c.Name(), err)
			}
			res.Dropped = append(res.Dropped, c.Name())
			exists = false
		}
		if exists {
			res.Skipped = append(res.Skipped, c.Name())
			a.Logger.Debug().Str("collection", c.Name()).Msg("table exists, skipping")
			continue
		}

		if err := a.Builder.CreateCollection(ctx, c, opts); err != nil {
			return res, fmt.Errorf("migrate %s: %w", c.Name(), err)
		}
		res.Created = append(res.Created, c.Name())
		a.Logger.Info().
			Str("collection", c.Name()).
			Str("table", c.Table()).
			Msg("table created")
	}
	return res, nil
}

// Drop removes the tables of a loaded collection.
func (a *App) Drop(ctx context.Context, name string) error {
	if a.Builder == nil {
		return fmt.Errorf("drop: no database (offline)")
	}
	c, err := a.Collection(name)
	if err != nil {
		return err
	}
	if err := a.Builder.DropCollection(ctx, c); err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}
	a.Logger.Info().Str("collection", name).Msg("tables dropped")
	return nil
}

// Rules derives the validation rules of a loaded collection.
func (a *App) Rules(name string) (validation.RuleSet, error) {
	c, err := a.Collection(name)
	if err != nil {
		return nil, err
	}
	return validation.RulesFor(c)
}

// Validate checks a record against the rules of a loaded collection.
func (a *App) Validate(name string, record map[string]any) error {
	rules, err := a.Rules(name)
	if err != nil {
		return err
	}
	return a.Validator.Validate(record, rules)
}

// GenerateOptions override the codegen config for one controller.
type GenerateOptions struct {
	ClassName string
	Namespace string
	OutputDir string
	Methods   []string
}

// GenerateController renders the controller of a loaded collection and
// writes it to the output directory. It returns the written path.
func (a *App) GenerateController(name string, opts GenerateOptions) (string, error) {
	c, err := a.Collection(name)
	if err != nil {
		return "", err
	}
	rules, err := validation.RulesFor(c)
	if err != nil {
		return "", fmt.Errorf("rules for %s: %w", name, err)
	}

	cfg := a.Config.Codegen
	in := codegen.Input{
		ClassName:  opts.ClassName,
		Namespace:  firstNonEmpty(opts.Namespace, cfg.Namespace),
		Collection: c,
		Dialect:    a.Dialect,
		Methods:    opts.Methods,
		Rules:      rules,
	}
	if len(in.Methods) == 0 {
		in.Methods = cfg.Methods
	}

	ctrl, err := codegen.Build(in)
	if err != nil {
		return "", err
	}
	src, err := a.Generator.Render(ctrl)
	if err != nil {
		return "", err
	}

	dir := firstNonEmpty(opts.OutputDir, cfg.OutputDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, codegen.FileName(ctrl.ClassName))
	if err := os.WriteFile(path, src, 0644); err != nil {
		return "", fmt.Errorf("write controller: %w", err)
	}

	a.Logger.Info().
		Str("collection", name).
		Str("class", ctrl.ClassName).
		Str("path", path).
		Msg("controller generated")
	return path, nil
}

// GenerateAll writes a controller for every loaded collection.
func (a *App) GenerateAll(opts GenerateOptions) ([]string, error) {
	opts.ClassName = ""

	var paths []string
	for _, c := range a.Collections() {
		path, err := a.GenerateController(c.Name(), opts)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Close writes the metrics textfile when configured and closes the database.
func (a *App) Close() error {
	var firstErr error

	if a.Metrics != nil && a.Config.Metrics.Textfile != "" {
		if err := a.Metrics.WriteTextfile(a.Config.Metrics.Textfile); err != nil {
			a.Logger.Error().Err(err).Msg("metrics textfile write error")
			firstErr = fmt.Errorf("write metrics: %w", err)
		}
	}

	if a.Executor != nil {
		if err := a.Executor.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
			if firstErr == nil {
				firstErr = fmt.Errorf("close database: %w", err)
			}
		}
	}
	return firstErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
