package bootstrap

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/artpar/lowcode/core/field"
	"github.com/artpar/lowcode/core/registry"
)

// Extension field type tags registered by NewRegistry.
const (
	TypeUUID field.Type = "uuid"
	TypeURL  field.Type = "url"
)

// Extension pairs a field type tag with its constructor.
type Extension struct {
	Type        field.Type
	Constructor registry.Constructor
}

// DefaultExtensions returns the extension types every App registers.
func DefaultExtensions() []Extension {
	return []Extension{
		{Type: TypeUUID, Constructor: NewUUIDField},
		{Type: TypeURL, Constructor: NewURLField},
	}
}

// NewRegistry builds the built-in registry, adds the default and extra
// extensions, and seals it.
func NewRegistry(extra ...Extension) (*registry.Registry, error) {
	reg := registry.NewDefault()
	for _, ext := range append(DefaultExtensions(), extra...) {
		if err := reg.Register(ext.Type, ext.Constructor); err != nil {
			return nil, fmt.Errorf("register extension: %w", err)
		}
	}
	reg.Seal()
	return reg, nil
}

// UUIDField accepts canonical UUID strings. It is stored as a 36 character string.
type UUIDField struct {
	field.Base
}

// NewUUIDField creates a uuid field.
func NewUUIDField(name string, opts field.Options) (field.Field, error) {
	if opts.Length == 0 {
		opts.Length = 36
	}
	f := &UUIDField{Base: field.NewBase(name, TypeUUID, opts)}
	if opts.Default != nil && !f.Validate(opts.Default) {
		return nil, fmt.Errorf("default %v is not a uuid", opts.Default)
	}
	return f, nil
}

// Validate accepts nil for nullable fields and strings uuid.Parse accepts
// in the 36 character hyphenated form.
func (f *UUIDField) Validate(value any) bool {
	if value == nil {
		return f.Nullable()
	}
	s, ok := value.(string)
	if !ok || len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// URLField accepts absolute http and https URLs.
type URLField struct {
	field.Base
}

// NewURLField creates a url field.
func NewURLField(name string, opts field.Options) (field.Field, error) {
	if opts.Length == 0 {
		opts.Length = 2048
	}
	f := &URLField{Base: field.NewBase(name, TypeURL, opts)}
	if opts.Default != nil && !f.Validate(opts.Default) {
		return nil, fmt.Errorf("default %v is not an absolute url", opts.Default)
	}
	return f, nil
}

// Validate accepts nil for nullable fields and absolute http(s) URLs with a
// host that fit the configured length.
func (f *URLField) Validate(value any) bool {
	if value == nil {
		return f.Nullable()
	}
	s, ok := value.(string)
	if !ok || len(s) > f.Options().Length {
		return false
	}
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
