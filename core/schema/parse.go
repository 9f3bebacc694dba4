package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artpar/lowcode/core/errs"
	"github.com/artpar/lowcode/core/field"
	"github.com/artpar/lowcode/core/registry"
)

// maxIdentifierLength matches the MySQL limit, the strictest of the supported engines.
const maxIdentifierLength = 64

// definition is the on-disk YAML form of a collection.
type definition struct {
	Name          string         `yaml:"collection"`
	Table         string         `yaml:"table,omitempty"`
	Fields        fieldList      `yaml:"fields"`
	Relationships []Relationship `yaml:"relationships,omitempty"`
}

// fieldList accepts fields either as a sequence of descriptors or as a
// mapping keyed by field name. Both keep document order.
type fieldList []field.Descriptor

func (l *fieldList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []field.Descriptor
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil

	case yaml.MappingNode:
		list := make([]field.Descriptor, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			var d field.Descriptor
			if err := value.Decode(&d); err != nil {
				return fmt.Errorf("field %q: %w", key.Value, err)
			}
			d.Name = key.Value
			list = append(list, d)
		}
		*l = list
		return nil

	default:
		return errs.Malformed("fields", "fields must be a list or a mapping (line %d)", node.Line)
	}
}

// ParseFile parses a collection definition from a YAML file.
func ParseFile(path string, reg *registry.Registry, opts ...Option) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	c, err := Parse(data, reg, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse parses a collection definition from YAML bytes.
//
//	collection: product
//	fields:
//	  title: { type: string, length: 120 }
//	  price: { type: decimal, precision: 10, scale: 2 }
//	relationships:
//	  - { kind: belongs_to, target: category }
func Parse(data []byte, reg *registry.Registry, opts ...Option) (*Collection, error) {
	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errs.Wrap(errs.KindMalformedSchema, def.Name, "parse yaml", err)
	}

	if err := validate(def); err != nil {
		return nil, fmt.Errorf("validate collection %q: %w", def.Name, err)
	}

	return FromDescriptor(Descriptor{
		Name:          def.Name,
		Table:         def.Table,
		Fields:        def.Fields,
		Relationships: def.Relationships,
	}, reg, opts...)
}

// ParseDir parses all collection definitions from a directory, including
// subdirectories. Duplicate collection or table names are rejected.
func ParseDir(dir string, reg *registry.Registry, opts ...Option) ([]*Collection, error) {
	var collections []*Collection

	if err := parseDir(dir, reg, opts, &collections); err != nil {
		return nil, err
	}

	names := make(map[string]bool)
	tables := make(map[string]string)
	for _, c := range collections {
		if names[c.Name()] {
			return nil, fmt.Errorf("collection %q defined more than once", c.Name())
		}
		names[c.Name()] = true

		if existing, ok := tables[c.Table()]; ok {
			return nil, fmt.Errorf("table %q already claimed by collection %q", c.Table(), existing)
		}
		tables[c.Table()] = c.Name()
	}

	return collections, nil
}

func parseDir(dir string, reg *registry.Registry, opts []Option, out *[]*Collection) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if err := parseDir(path, reg, opts, out); err != nil {
				return err
			}
			continue
		}

		if !IsDefinitionFile(entry.Name()) {
			continue
		}

		c, err := ParseFile(path, reg, opts...)
		if err != nil {
			return err
		}
		*out = append(*out, c)
	}

	return nil
}

// IsDefinitionFile reports whether a file name looks like a collection definition.
func IsDefinitionFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// validate checks the structure of a definition before any field is resolved,
// so all problems are reported at once.
func validate(def definition) error {
	var problems []string

	if def.Name == "" {
		problems = append(problems, "collection name is required")
	} else if !IsValidIdentifier(def.Name) {
		problems = append(problems, fmt.Sprintf("collection name %q is not a valid identifier", def.Name))
	}

	if len(def.Fields) == 0 {
		problems = append(problems, "fields must have at least one entry")
	}

	seen := make(map[string]bool)
	for _, f := range def.Fields {
		if !IsValidIdentifier(f.Name) {
			problems = append(problems, fmt.Sprintf("field name %q is not a valid identifier", f.Name))
		}
		if seen[f.Name] {
			problems = append(problems, fmt.Sprintf("field %q defined more than once", f.Name))
		}
		seen[f.Name] = true

		if f.Type == "" {
			problems = append(problems, fmt.Sprintf("field %q: type is required", f.Name))
		}
	}

	if len(problems) > 0 {
		return errs.Malformed(def.Name, "validation errors:\n  - %s", strings.Join(problems, "\n  - "))
	}

	return nil
}

// IsValidIdentifier reports whether s may be used as a collection, table or
// column name: a letter or underscore followed by letters, digits or
// underscores, at most 64 characters.
func IsValidIdentifier(s string) bool {
	if s == "" || len(s) > maxIdentifierLength {
		return false
	}

	for i, c := range s {
		if i == 0 {
			if !isLetter(c) && c != '_' {
				return false
			}
		} else {
			if !isLetter(c) && !isDigit(c) && c != '_' {
				return false
			}
		}
	}

	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
