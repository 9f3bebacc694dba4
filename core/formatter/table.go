package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/artpar/lowcode/core/field"
	"github.com/artpar/lowcode/core/schema"
	"github.com/artpar/lowcode/core/validation"
)

// TableFormatter formats output as aligned text tables.
type TableFormatter struct {
	// NoHeader disables the header row.
	NoHeader bool

	// MaxWidth truncates long values (0 = no limit).
	MaxWidth int
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Name returns the formatter name.
func (f *TableFormatter) Name() string {
	return "table"
}

// Description returns the formatter description.
func (f *TableFormatter) Description() string {
	return "Aligned text table output"
}

// FormatCollection prints the table name, one row per field and one row per
// relationship.
func (f *TableFormatter) FormatCollection(w io.Writer, d schema.Descriptor) error {
	fmt.Fprintf(w, "Collection: %s\n", d.Name)
	fmt.Fprintf(w, "Table:      %s\n\n", d.Table)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !f.NoHeader {
		fmt.Fprintln(tw, "FIELD\tTYPE\tNULL\tDEFAULT\tCONSTRAINTS")
	}
	for _, fd := range d.Fields {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			fd.Name,
			fd.Type,
			f.formatValue(fd.Nullable),
			f.formatValue(fd.Default),
			f.truncate(constraints(fd)),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(d.Relationships) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !f.NoHeader {
		fmt.Fprintln(tw, "RELATIONSHIP\tKIND\tTARGET\tFOREIGN KEY\tJOIN TABLE")
	}
	for _, r := range d.Relationships {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.Name, r.Kind, r.Target,
			f.formatValue(r.ForeignKey), f.formatValue(r.JoinTable))
	}
	return tw.Flush()
}

// FormatRules prints one row per field with its rule chain.
func (f *TableFormatter) FormatRules(w io.Writer, collection string, rules validation.RuleSet, order []string) error {
	if len(rules) == 0 {
		fmt.Fprintf(w, "No rules for %s.\n", collection)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !f.NoHeader {
		fmt.Fprintln(tw, "FIELD\tRULES")
	}
	for _, name := range orderedFields(rules, order) {
		fmt.Fprintf(tw, "%s\t%s\n", name, f.truncate(strings.Join(rules[name], " | ")))
	}
	return tw.Flush()
}

// FormatError formats an error message.
func (f *TableFormatter) FormatError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "Error: %s\n", err.Error())
	return werr
}

// constraints summarizes the options that are not shown in their own column.
func constraints(d field.Descriptor) string {
	var parts []string
	if d.Length > 0 {
		parts = append(parts, "length="+strconv.Itoa(d.Length))
	}
	if d.Precision > 0 {
		parts = append(parts, fmt.Sprintf("decimal(%d,%d)", d.Precision, d.Scale))
	}
	if d.Minimum != nil {
		parts = append(parts, "min="+strconv.FormatFloat(*d.Minimum, 'f', -1, 64))
	}
	if d.Maximum != nil {
		parts = append(parts, "max="+strconv.FormatFloat(*d.Maximum, 'f', -1, 64))
	}
	if d.Pattern != "" {
		parts = append(parts, "pattern="+d.Pattern)
	}
	if len(d.Values) > 0 {
		parts = append(parts, "values="+strings.Join(d.Values, ","))
	}
	if d.Unique {
		parts = append(parts, "unique")
	}
	if d.Index {
		parts = append(parts, "index")
	}
	return strings.Join(parts, " ")
}

// formatValue formats a value for display.
func (f *TableFormatter) formatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return "-"
	case string:
		if v == "" {
			return "-"
		}
		return f.truncate(v)
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return f.truncate(string(b))
	}
}

func (f *TableFormatter) truncate(s string) string {
	if s == "" {
		return "-"
	}
	if f.MaxWidth > 3 && len(s) > f.MaxWidth {
		return s[:f.MaxWidth-3] + "..."
	}
	return s
}
