// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/artpar/lowcode/core/convention"
	"github.com/artpar/lowcode/core/schema"
)

// Config is the root configuration structure.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Schema   SchemaConfig   `yaml:"schema"`
	Codegen  CodegenConfig  `yaml:"codegen"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DatabaseConfig configures the database the schema builder runs against.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite3", "mysql" or "postgres"
	DSN    string `yaml:"dsn"`
	Engine string `yaml:"engine,omitempty"` // MySQL table engine, e.g. InnoDB
}

// SchemaConfig locates collection definitions.
type SchemaConfig struct {
	Dir string `yaml:"dir"`

	// TablePrefix is nil when unset; an explicit "" disables prefixing.
	TablePrefix *string `yaml:"table_prefix"`
}

// Prefix returns the table prefix, falling back to the collection default.
func (s SchemaConfig) Prefix() string {
	if s.TablePrefix == nil {
		return convention.DefaultTablePrefix
	}
	return *s.TablePrefix
}

// CodegenConfig configures controller generation.
type CodegenConfig struct {
	Namespace string   `yaml:"namespace"`
	OutputDir string   `yaml:"output_dir"`
	Methods   []string `yaml:"methods,omitempty"` // empty means all
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile,omitempty"` // written after each command when set
}

var drivers = map[string]bool{
	"sqlite3":    true,
	"sqlite":     true,
	"mysql":      true,
	"postgres":   true,
	"postgresql": true,
	"pgx":        true,
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Config{Metrics: MetricsConfig{Enabled: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	LOWCODE_DATABASE_DRIVER   - sqlite3, mysql or postgres (default: sqlite3)
//	LOWCODE_DATABASE_DSN      - Data source name (default: lowcode.db)
//	LOWCODE_DATABASE_ENGINE   - MySQL table engine
//	LOWCODE_SCHEMA_DIR        - Collection definitions directory (default: collections)
//	LOWCODE_TABLE_PREFIX      - Table name prefix (default: lc_)
//	LOWCODE_CODEGEN_NAMESPACE - Generated package (default: controllers)
//	LOWCODE_CODEGEN_OUT       - Generated files directory (default: generated)
//	LOWCODE_LOG_LEVEL         - Log level: debug, info, warn, error (default: info)
//	LOWCODE_LOG_FORMAT        - Log format: json or console (default: console)
//	LOWCODE_METRICS_ENABLED   - Collect metrics (default: true)
//	LOWCODE_METRICS_TEXTFILE  - Write metrics to this file
func LoadFromEnv() (*Config, error) {
	cfg := Config{Metrics: MetricsConfig{Enabled: true}}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads from path when the file exists, and from the
// environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies LOWCODE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Database configuration
	if v := os.Getenv("LOWCODE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("LOWCODE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("LOWCODE_DATABASE_ENGINE"); v != "" {
		cfg.Database.Engine = v
	}

	// Schema configuration
	if v := os.Getenv("LOWCODE_SCHEMA_DIR"); v != "" {
		cfg.Schema.Dir = v
	}
	if v, ok := os.LookupEnv("LOWCODE_TABLE_PREFIX"); ok {
		cfg.Schema.TablePrefix = &v
	}

	// Codegen configuration
	if v := os.Getenv("LOWCODE_CODEGEN_NAMESPACE"); v != "" {
		cfg.Codegen.Namespace = v
	}
	if v := os.Getenv("LOWCODE_CODEGEN_OUT"); v != "" {
		cfg.Codegen.OutputDir = v
	}

	// Logging configuration
	if v := os.Getenv("LOWCODE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOWCODE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("LOWCODE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("LOWCODE_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite3"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "lowcode.db"
	}

	if cfg.Schema.Dir == "" {
		cfg.Schema.Dir = "collections"
	}

	if cfg.Codegen.Namespace == "" {
		cfg.Codegen.Namespace = "controllers"
	}
	if cfg.Codegen.OutputDir == "" {
		cfg.Codegen.OutputDir = "generated"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func validate(cfg *Config) error {
	if !drivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be one of sqlite3, mysql, postgres, got %q", cfg.Database.Driver)
	}

	if p := cfg.Schema.Prefix(); p != "" && !schema.IsValidIdentifier(p) {
		return fmt.Errorf("schema.table_prefix %q is not a valid identifier", p)
	}

	if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}
