// Package codegen generates CRUD controllers from collections.
//
// Generation has two steps: Build resolves naming inputs and a collection
// into a Controller (the intermediate representation), and Render executes
// the controller template and gofmt's the result. Both are deterministic:
// the same input always yields byte-identical output.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"
)

// Observer is told about every generated artifact.
type Observer interface {
	ObserveGenerated(kind string)
}

// Config configures a Generator.
type Config struct {
	Observer Observer
}

// Generator renders controllers.
type Generator struct {
	tmpl     *template.Template
	observer Observer
}

// NewGenerator creates a generator.
func NewGenerator(cfg Config) *Generator {
	tmpl := template.Must(template.New("controller").Funcs(template.FuncMap{
		"fillable": RenderFillable,
		"quote":    func(s string) string { return fmt.Sprintf("%q", s) },
	}).Parse(controllerTemplate))

	return &Generator{
		tmpl:     tmpl,
		observer: cfg.Observer,
	}
}

// Generate builds and renders a controller.
func (g *Generator) Generate(in Input) ([]byte, error) {
	ctrl, err := Build(in)
	if err != nil {
		return nil, err
	}
	return g.Render(ctrl)
}

// Render executes the template for a controller and formats the result.
func (g *Generator) Render(ctrl Controller) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, ctrl); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting %s: %w", ctrl.ClassName, err)
	}

	if g.observer != nil {
		g.observer.ObserveGenerated("controller")
	}
	return formatted, nil
}
