package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/lowcode/bootstrap"
	"github.com/artpar/lowcode/config"
	"github.com/artpar/lowcode/core/formatter"
)

const defaultConfigFile = "lowcode.yaml"

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lowcode",
	Short: "Schema-driven tables, validation rules and CRUD controllers",
	Long: `lowcode turns collection definitions into database tables,
input validation rules and generated Go CRUD controllers.

Quick start:
  lowcode check             # Parse and validate collection definitions
  lowcode migrate           # Create missing tables
  lowcode generate          # Generate controllers for every collection

Inspection:
  lowcode types             # List registered field types
  lowcode rules product     # Print the validation rules of a collection`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var r reportedError
		if !errors.As(err, &r) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// reportedError marks an error a command has already written out.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// report writes err through the command's output formatter.
func report(cmd *cobra.Command, f formatter.Formatter, err error) error {
	if ferr := f.FormatError(cmd.ErrOrStderr(), err); ferr != nil {
		return err
	}
	return reportedError{err}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default $LOWCODE_CONFIG or lowcode.yaml)")
}

// configPath resolves the config file and whether it was asked for explicitly.
func configPath() (string, bool) {
	if cfgFile != "" {
		return cfgFile, true
	}
	if v := os.Getenv(bootstrap.EnvConfigPath); v != "" {
		return v, true
	}
	return defaultConfigFile, false
}

// loadConfig loads an explicitly named config file, or the default file
// when present, falling back to the environment.
func loadConfig() (*config.Config, error) {
	path, explicit := configPath()
	if explicit {
		return config.Load(path)
	}
	return config.LoadWithFallback(path)
}

// openApp wires the application and loads every collection definition.
func openApp(offline bool) (*bootstrap.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	app, err := bootstrap.New(cfg, bootstrap.Options{Offline: offline})
	if err != nil {
		return nil, err
	}
	if _, err := app.LoadCollections(); err != nil {
		app.Close()
		return nil, fmt.Errorf("load collections: %w", err)
	}
	return app, nil
}
