package bootstrap_test

import (
	"context"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/lowcode/bootstrap"
	"github.com/artpar/lowcode/config"
	"github.com/artpar/lowcode/core/errs"
)

const productDef = `
collection: product
fields:
  title:  { type: string, length: 120 }
  price:  { type: decimal, precision: 10, scale: 2, minimum: 0 }
  sku:    { type: uuid }
  status: { type: enum, values: [draft, published], default: draft }
relationships:
  - { kind: many_to_many, target: tag }
`

const tagDef = `
collection: tag
fields:
  label: { type: string, length: 40, unique: true }
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	defs := filepath.Join(dir, "collections")
	require.NoError(t, os.MkdirAll(defs, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(defs, "product.yaml"), []byte(productDef), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(defs, "tag.yml"), []byte(tagDef), 0644))

	return &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite3", DSN: filepath.Join(dir, "test.db")},
		Schema:   config.SchemaConfig{Dir: defs},
		Codegen:  config.CodegenConfig{Namespace: "controllers", OutputDir: filepath.Join(dir, "generated")},
		Logging:  config.LoggingConfig{Level: "debug", Format: "console"},
		Metrics:  config.MetricsConfig{Enabled: true, Textfile: filepath.Join(dir, "lowcode.prom")},
	}
}

func newApp(t *testing.T, cfg *config.Config, opts bootstrap.Options) *bootstrap.App {
	t.Helper()

	nop := zerolog.Nop()
	opts.Logger = &nop
	app, err := bootstrap.New(cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	_, err = app.LoadCollections()
	require.NoError(t, err)
	return app
}

func TestBootstrap_Integration(t *testing.T) {
	cfg := testConfig(t)
	app := newApp(t, cfg, bootstrap.Options{})
	ctx := context.Background()

	require.NotNil(t, app.Builder)
	require.NotNil(t, app.Metrics)
	assert.True(t, app.Registry.Sealed())

	names := make([]string, 0)
	for _, c := range app.Collections() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"product", "tag"}, names)

	res, err := app.Migrate(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"product", "tag"}, res.Created)

	for _, table := range []string{"lc_product", "lc_tag", "lc_product_tag"} {
		ok, err := app.Builder.HasTable(ctx, table)
		require.NoError(t, err)
		assert.True(t, ok, "table %s should exist", table)
	}

	ok, err := app.Builder.HasColumn(ctx, "lc_product", "sku")
	require.NoError(t, err)
	assert.True(t, ok)

	// Second run leaves existing tables alone.
	res, err = app.Migrate(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Equal(t, []string{"product", "tag"}, res.Skipped)

	res, err = app.Migrate(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"product", "tag"}, res.Dropped)
	assert.Equal(t, []string{"product", "tag"}, res.Created)

	require.NoError(t, app.Drop(ctx, "product"))
	ok, err = app.Builder.HasTable(ctx, "lc_product")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = app.Builder.HasTable(ctx, "lc_product_tag")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, app.Close())
	data, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `lowcode_ddl_total{op="create_table",result="ok"}`)
	assert.Contains(t, string(data), "lowcode_collections_loaded 2")
}

func TestBootstrap_Rules(t *testing.T) {
	app := newApp(t, testConfig(t), bootstrap.Options{Offline: true})

	rules, err := app.Rules("product")
	require.NoError(t, err)
	assert.Equal(t, []string{"required", "string", "max_length:120"}, rules["title"])
	assert.Equal(t, []string{"in:draft,published"}, rules["status"][len(rules["status"])-1:])

	_, err = app.Rules("order")
	assert.Error(t, err)
}

func TestBootstrap_Validate(t *testing.T) {
	app := newApp(t, testConfig(t), bootstrap.Options{Offline: true})

	err := app.Validate("product", map[string]any{
		"title": "Desk",
		"price": 120.5,
		"sku":   uuid.NewString(),
	})
	assert.NoError(t, err)

	err = app.Validate("product", map[string]any{"price": -1})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	failed := make(map[string]string)
	for _, f := range e.Fields {
		failed[f.Field] = f.Rule
	}
	assert.Equal(t, "required", failed["title"])
	assert.Equal(t, "min:0", failed["price"])
	assert.Equal(t, "required", failed["sku"])
}

func TestBootstrap_GenerateController(t *testing.T) {
	cfg := testConfig(t)
	app := newApp(t, cfg, bootstrap.Options{Offline: true})

	path, err := app.GenerateController("product", bootstrap.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Codegen.OutputDir, "product_controller.go"), path)

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	file, err := parser.ParseFile(token.NewFileSet(), path, src, 0)
	require.NoError(t, err)
	assert.Equal(t, "controllers", file.Name.Name)
	assert.Contains(t, string(src), `"title", "price", "sku", "status"`)

	out := filepath.Join(t.TempDir(), "handlers")
	path, err = app.GenerateController("product", bootstrap.GenerateOptions{
		ClassName: "catalog_item",
		Namespace: "github.com/acme/shop/handlers",
		OutputDir: out,
		Methods:   []string{"Get"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "catalog_item_controller.go"), path)

	src, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(src), "package handlers")
	assert.Contains(t, string(src), "func (c *CatalogItemController) Get(")
	assert.NotContains(t, string(src), "Delete(")
}

func TestBootstrap_GenerateAll(t *testing.T) {
	app := newApp(t, testConfig(t), bootstrap.Options{Offline: true})

	paths, err := app.GenerateAll(bootstrap.GenerateOptions{ClassName: "ignored"})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.True(t, strings.HasSuffix(paths[0], "product_controller.go"))
	assert.True(t, strings.HasSuffix(paths[1], "tag_controller.go"))
}

func TestBootstrap_Offline(t *testing.T) {
	app := newApp(t, testConfig(t), bootstrap.Options{Offline: true})

	assert.Nil(t, app.Executor)
	assert.Nil(t, app.Builder)

	_, err := app.Migrate(context.Background(), false)
	assert.Error(t, err)
	assert.Error(t, app.Drop(context.Background(), "product"))
}

func TestBootstrap_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false
	app := newApp(t, cfg, bootstrap.Options{})

	assert.Nil(t, app.Metrics)
	_, err := app.Migrate(context.Background(), false)
	require.NoError(t, err)
	require.NoError(t, app.Close())

	_, err = os.Stat(cfg.Metrics.Textfile)
	assert.True(t, os.IsNotExist(err))
}

func TestBootstrap_UnsupportedDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "oracle"

	_, err := bootstrap.New(cfg, bootstrap.Options{})
	assert.Error(t, err)
}

func TestBootstrap_BadDefinition(t *testing.T) {
	cfg := testConfig(t)
	bad := "collection: broken\nfields:\n  x: { type: geometry }\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Schema.Dir, "broken.yaml"), []byte(bad), 0644))

	nop := zerolog.Nop()
	app, err := bootstrap.New(cfg, bootstrap.Options{Offline: true, Logger: &nop})
	require.NoError(t, err)
	defer app.Close()

	_, err = app.LoadCollections()
	require.Error(t, err)
	assert.True(t, errs.IsUnknownFieldType(err))
}

func TestBootstrap_TablePrefix(t *testing.T) {
	cfg := testConfig(t)
	prefix := "shop_"
	cfg.Schema.TablePrefix = &prefix
	app := newApp(t, cfg, bootstrap.Options{Offline: true})

	c, err := app.Collection("product")
	require.NoError(t, err)
	assert.Equal(t, "shop_product", c.Table())
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		cfg  config.LoggingConfig
		want zerolog.Level
	}{
		{config.LoggingConfig{Level: "debug", Format: "json"}, zerolog.DebugLevel},
		{config.LoggingConfig{Level: "warn", Format: "console"}, zerolog.WarnLevel},
		{config.LoggingConfig{Level: "bogus"}, zerolog.InfoLevel},
		{config.LoggingConfig{}, zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := bootstrap.NewLogger(tt.cfg).GetLevel(); got != tt.want {
			t.Errorf("NewLogger(%+v) level = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}

func TestBootstrap_Reload(t *testing.T) {
	cfg := testConfig(t)
	app := newApp(t, cfg, bootstrap.Options{Offline: true})

	same := *cfg
	same.Codegen.Namespace = "handlers"
	app.Reload(&same)
	assert.Equal(t, "handlers", app.Config.Codegen.Namespace)
	assert.Equal(t, zerolog.Disabled, app.Logger.GetLevel(), "unchanged logging keeps the logger")

	next := *cfg
	next.Logging = config.LoggingConfig{Level: "warn", Format: "json"}
	next.Metrics.Textfile = filepath.Join(t.TempDir(), "reloaded.prom")
	next.Database.DSN = "elsewhere.db"
	next.Schema.Dir = t.TempDir()
	app.Reload(&next)

	assert.Equal(t, zerolog.WarnLevel, app.Logger.GetLevel())
	assert.Equal(t, next.Metrics.Textfile, app.Config.Metrics.Textfile)
	assert.Equal(t, "controllers", app.Config.Codegen.Namespace)
	assert.Equal(t, cfg.Database.DSN, app.Config.Database.DSN, "database settings need a restart")
	assert.Equal(t, cfg.Schema.Dir, app.Config.Schema.Dir, "schema settings need a restart")

	_, err := app.LoadCollections()
	require.NoError(t, err)
	require.NoError(t, app.Metrics.WriteTextfile(app.Config.Metrics.Textfile))
	assert.FileExists(t, next.Metrics.Textfile)
}
