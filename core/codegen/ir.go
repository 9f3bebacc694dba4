package codegen

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/artpar/lowcode/core/errs"
	"github.com/artpar/lowcode/core/schema"
	"github.com/artpar/lowcode/core/storage"
	"github.com/artpar/lowcode/core/validation"
)

// DefaultNamespace is the package generated controllers live in.
const DefaultNamespace = "controllers"

// Methods generated when Input.Methods is empty, in output order.
var DefaultMethods = []string{"List", "Get", "Create", "Update", "Delete"}

// Input names a controller to generate. Only Collection is required.
type Input struct {
	// ClassName defaults to ClassNameOf(CollectionName).
	ClassName string

	// Namespace is a Go package name or import path; its last element
	// names the package.
	Namespace string

	// CollectionName and TableName default to the collection's own.
	CollectionName string
	TableName      string

	Collection *schema.Collection

	// Dialect selects quoting and placeholders. Defaults to SQLite.
	Dialect storage.Dialect

	// Methods restricts the generated methods to a subset of DefaultMethods.
	Methods []string

	// Rules are embedded when set.
	Rules validation.RuleSet
}

// Column is a fillable column with its quoted form.
type Column struct {
	Name   string
	Quoted string
}

// RuleChain is one field's rules, kept in field order.
type RuleChain struct {
	Field string
	Chain []string
}

// Controller is the intermediate representation rendered into Go source.
type Controller struct {
	Package    string
	ClassName  string
	Collection string
	Table      string

	// Fillable lists field names in collection order.
	Fillable []string
	Columns  []Column
	Methods  []string
	Imports  []string

	// Placeholder is "?" or "$" (numbered).
	Placeholder string

	QuotedTable string
	QuotedKey   string

	// Returning reads the new id with RETURNING instead of LastInsertId.
	Returning bool

	// TouchColumn is set on every update when non-empty.
	TouchColumn string

	Rules []RuleChain
}

// Build resolves an Input into a Controller.
func Build(in Input) (Controller, error) {
	if in.Collection == nil {
		return Controller{}, fmt.Errorf("codegen: collection is required")
	}

	d := in.Dialect
	if d == nil {
		d = storage.SQLite{}
	}

	ctrl := Controller{
		Collection: in.CollectionName,
		Table:      in.TableName,
		Methods:    in.Methods,
		QuotedKey:  d.Quote(storage.ColumnID),
		Returning:  d.Name() == "pgx",
	}

	if ctrl.Collection == "" {
		ctrl.Collection = in.Collection.Name()
	}
	if ctrl.Table == "" {
		ctrl.Table = in.Collection.Table()
	}
	if !schema.IsValidIdentifier(ctrl.Collection) {
		return Controller{}, errs.New(errs.KindInvalidIdentifier, ctrl.Collection, "collection name is not a valid identifier")
	}
	if !schema.IsValidIdentifier(ctrl.Table) {
		return Controller{}, errs.New(errs.KindInvalidIdentifier, ctrl.Table, "table name is not a valid identifier")
	}
	ctrl.QuotedTable = d.Quote(ctrl.Table)

	ctrl.ClassName = in.ClassName
	if ctrl.ClassName == "" {
		ctrl.ClassName = ctrl.Collection
	}
	ctrl.ClassName = ClassNameOf(ctrl.ClassName)

	pkg, err := packageName(in.Namespace)
	if err != nil {
		return Controller{}, err
	}
	ctrl.Package = pkg

	if d.Placeholder(2) == "?" {
		ctrl.Placeholder = "?"
	} else {
		ctrl.Placeholder = "$"
	}

	ctrl.Fillable = in.Collection.FieldNames()
	for _, name := range ctrl.Fillable {
		ctrl.Columns = append(ctrl.Columns, Column{Name: name, Quoted: d.Quote(name)})
	}
	if _, ok := in.Collection.Field(storage.ColumnUpdatedAt); !ok {
		ctrl.TouchColumn = d.Quote(storage.ColumnUpdatedAt)
	}

	if len(ctrl.Methods) == 0 {
		ctrl.Methods = DefaultMethods
	}
	ctrl.Methods, err = orderMethods(ctrl.Methods)
	if err != nil {
		return Controller{}, err
	}
	ctrl.Imports = imports(ctrl.Methods)

	for _, name := range ctrl.Fillable {
		if chain, ok := in.Rules[name]; ok {
			ctrl.Rules = append(ctrl.Rules, RuleChain{Field: name, Chain: chain})
		}
	}
	// rules for names that are not fields (e.g. required-only entries)
	for _, name := range in.Rules.Fields() {
		if _, ok := in.Collection.Field(name); !ok {
			ctrl.Rules = append(ctrl.Rules, RuleChain{Field: name, Chain: in.Rules[name]})
		}
	}

	return ctrl, nil
}

// packageName takes the last element of a namespace as the package name.
func packageName(namespace string) (string, error) {
	if namespace == "" {
		return DefaultNamespace, nil
	}
	ns := strings.ReplaceAll(namespace, `\`, "/")
	pkg := strings.ToLower(path.Base(strings.TrimRight(ns, "/")))
	if !schema.IsValidIdentifier(pkg) {
		return "", errs.New(errs.KindInvalidIdentifier, namespace, "namespace does not end in a valid package name")
	}
	return pkg, nil
}

// orderMethods validates a method subset and puts it in DefaultMethods order.
func orderMethods(methods []string) ([]string, error) {
	want := make(map[string]bool, len(methods))
	for _, m := range methods {
		want[m] = true
	}

	var out []string
	for _, m := range DefaultMethods {
		if want[m] {
			out = append(out, m)
			delete(want, m)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for m := range want {
			unknown = append(unknown, m)
		}
		sort.Strings(unknown)
		return nil, errs.New(errs.KindMalformedSchema, strings.Join(unknown, ", "), "unknown controller method")
	}
	return out, nil
}

func imports(methods []string) []string {
	out := []string{"context", "database/sql", "fmt"}
	for _, m := range methods {
		if m == "Create" || m == "Update" {
			return append(out, "strings")
		}
	}
	return out
}
