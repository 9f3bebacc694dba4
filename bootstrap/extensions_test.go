package bootstrap_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/lowcode/bootstrap"
	"github.com/artpar/lowcode/core/field"
	"github.com/artpar/lowcode/core/schema"
	"github.com/artpar/lowcode/core/storage"
)

func TestNewRegistry(t *testing.T) {
	reg, err := bootstrap.NewRegistry()
	require.NoError(t, err)

	assert.True(t, reg.Sealed())
	assert.True(t, reg.Has(bootstrap.TypeUUID))
	assert.True(t, reg.Has(bootstrap.TypeURL))
	assert.True(t, reg.Has(field.TypeString))

	err = reg.Register("slug", bootstrap.NewURLField)
	assert.Error(t, err, "sealed registry must reject registration")
}

func TestNewRegistry_Extra(t *testing.T) {
	reg, err := bootstrap.NewRegistry(bootstrap.Extension{Type: "link", Constructor: bootstrap.NewURLField})
	require.NoError(t, err)
	assert.True(t, reg.Has("link"))

	_, err = bootstrap.NewRegistry(bootstrap.Extension{Type: field.TypeString, Constructor: bootstrap.NewURLField})
	assert.Error(t, err, "built-in tags cannot be replaced")
}

func TestUUIDField(t *testing.T) {
	f, err := bootstrap.NewUUIDField("sku", field.Options{})
	require.NoError(t, err)
	assert.Equal(t, bootstrap.TypeUUID, f.Type())
	assert.Equal(t, 36, f.Options().Length)

	tests := []struct {
		value any
		want  bool
	}{
		{uuid.NewString(), true},
		{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", true},
		{"6ba7b8109dad11d180b400c04fd430c8", false},
		{"urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"not-a-uuid", false},
		{42, false},
		{nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Validate(tt.value), "Validate(%v)", tt.value)
	}

	nullable, err := bootstrap.NewUUIDField("ref", field.Options{Nullable: true})
	require.NoError(t, err)
	assert.True(t, nullable.Validate(nil))

	for _, def := range []any{"nope", 5, true} {
		_, err = bootstrap.NewUUIDField("sku", field.Options{Default: def})
		assert.Error(t, err, "default %v", def)
	}
	_, err = bootstrap.NewUUIDField("sku", field.Options{Default: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"})
	assert.NoError(t, err)
}

func TestURLField(t *testing.T) {
	f, err := bootstrap.NewURLField("homepage", field.Options{Length: 40})
	require.NoError(t, err)

	tests := []struct {
		value any
		want  bool
	}{
		{"https://example.com/a", true},
		{"http://localhost:8080", true},
		{"ftp://example.com", false},
		{"/relative/path", false},
		{"https://", false},
		{"https://example.com/" + string(make([]byte, 40)), false},
		{3, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Validate(tt.value), "Validate(%q)", tt.value)
	}

	def, err := bootstrap.NewURLField("homepage", field.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2048, def.Options().Length)

	for _, bad := range []any{"not a url", 5, 1.5} {
		_, err = bootstrap.NewURLField("homepage", field.Options{Default: bad})
		assert.Error(t, err, "default %v", bad)
	}
	_, err = bootstrap.NewURLField("homepage", field.Options{Default: "https://example.com"})
	assert.NoError(t, err)
}

func TestExtensionFields_InCollection(t *testing.T) {
	reg, err := bootstrap.NewRegistry()
	require.NoError(t, err)

	c, err := schema.Parse([]byte(`
collection: link
fields:
  ref:  { type: uuid }
  href: { type: url, nullable: true }
`), reg)
	require.NoError(t, err)

	table, err := storage.ColumnsFor(c)
	require.NoError(t, err)

	cols := make(map[string]storage.Column)
	for _, col := range table.Columns {
		cols[col.Name] = col
	}
	assert.Equal(t, storage.ColumnString, cols["ref"].Type)
	assert.Equal(t, 36, cols["ref"].Length)
	assert.True(t, cols["href"].Nullable)
}
