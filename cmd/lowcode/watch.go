package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/lowcode/bootstrap"
	"github.com/artpar/lowcode/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate controllers when collection definitions change",
	Long: `Generate every controller, then watch the schema directory and the
config file. Any change to a definition reloads all collections and
regenerates the controllers. SIGHUP reloads the config file.

Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

// watchDebounce coalesces the burst of events an editor save produces.
var watchDebounce = 200 * time.Millisecond

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	app, err := openApp(true)
	if err != nil {
		return err
	}
	defer app.Close()

	holder := config.NewStaticHolder(app.Config, app.Logger)
	if path, _ := configPath(); fileExists(path) {
		holder, err = config.NewHolder(path, app.Logger)
		if err != nil {
			return err
		}
		if err := holder.WatchFile(); err != nil {
			return err
		}
		holder.WatchSignals()
	}
	defer holder.Stop()

	trigger := make(chan struct{}, 1)
	notify := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}
	holder.OnSchemaChange(func(string) { notify() })
	holder.OnChange(func(*config.Config) {
		if app.Metrics != nil {
			app.Metrics.ObserveConfigReload(nil)
		}
		notify()
	})

	if err := holder.WatchSchema(app.Config.Schema.Dir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	regenerate(app, holder)

	for {
		select {
		case <-ctx.Done():
			app.Logger.Info().Msg("watch stopped")
			return nil
		case <-trigger:
			// Let the rest of the burst arrive.
			select {
			case <-time.After(watchDebounce):
			case <-ctx.Done():
				return nil
			}
			select {
			case <-trigger:
			default:
			}
			regenerate(app, holder)
		}
	}
}

// regenerate applies the reloadable config, reloads the collections and writes
// every controller. Errors are logged so a broken definition does not end the
// watch.
func regenerate(app *bootstrap.App, holder *config.Holder) {
	app.Reload(holder.Get())

	if _, err := app.LoadCollections(); err != nil {
		app.Logger.Error().Err(err).Msg("cannot load collections, keeping previous controllers")
		return
	}
	paths, err := app.GenerateAll(bootstrap.GenerateOptions{})
	if err != nil {
		app.Logger.Error().Err(err).Msg("generation failed")
		return
	}
	app.Logger.Info().Int("count", len(paths)).Msg("controllers regenerated")

	if app.Config.Metrics.Textfile != "" && app.Metrics != nil {
		if err := app.Metrics.WriteTextfile(app.Config.Metrics.Textfile); err != nil {
			app.Logger.Warn().Err(err).Msg("metrics textfile write error")
		}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
