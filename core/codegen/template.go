package codegen

const controllerTemplate = `// Code generated by lowcode generate. DO NOT EDIT.
// Collection: {{.Collection}}

package {{.Package}}

import (
{{- range .Imports}}
	{{quote .}}
{{- end}}
)

// {{.ClassName}} implements CRUD for the {{.Table}} table.
type {{.ClassName}} struct {
	db      *sql.DB
	columns map[string]string
}

// New{{.ClassName}} binds a {{.ClassName}} to db.
func New{{.ClassName}}(db *sql.DB) *{{.ClassName}} {
	return &{{.ClassName}}{
		db: db,
		columns: map[string]string{
		{{- range .Columns}}
			{{quote .Name}}: {{quote .Quoted}},
		{{- end}}
		},
	}
}

// Table returns the backing table.
func (*{{.ClassName}}) Table() string {
	return {{quote .Table}}
}

// Fillable returns the fields accepted by Create and Update, in schema order.
func (*{{.ClassName}}) Fillable() []string {
	return []string{ {{- fillable .Fillable -}} }
}
{{- if .Rules}}

// Rules returns the input rules per field.
func (*{{.ClassName}}) Rules() map[string][]string {
	return map[string][]string{
	{{- range .Rules}}
		{{quote .Field}}: { {{- fillable .Chain -}} },
	{{- end}}
	}
}
{{- end}}
{{range .Methods}}
{{- if eq . "List"}}{{template "list" $}}{{end}}
{{- if eq . "Get"}}{{template "get" $}}{{end}}
{{- if eq . "Create"}}{{template "create" $}}{{end}}
{{- if eq . "Update"}}{{template "update" $}}{{end}}
{{- if eq . "Delete"}}{{template "delete" $}}{{end}}
{{- end}}

// bind returns the placeholder for the n-th argument.
func (*{{.ClassName}}) bind(n int) string {
{{- if eq .Placeholder "$"}}
	return fmt.Sprintf("$%d", n)
{{- else}}
	return "?"
{{- end}}
}

// assignments returns the quoted fillable columns present in input, with their values.
func (c *{{.ClassName}}) assignments(input map[string]any) ([]string, []any) {
	var cols []string
	var args []any
	for _, name := range c.Fillable() {
		if v, ok := input[name]; ok {
			cols = append(cols, c.columns[name])
			args = append(args, v)
		}
	}
	return cols, args
}

// affected maps an update or delete that touched no row to sql.ErrNoRows.
func (*{{.ClassName}}) affected(res sql.Result, op string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s {{.Collection}} %d: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s {{.Collection}} %d: %w", op, id, sql.ErrNoRows)
	}
	return nil
}

// scan reads every row into a map keyed by column name.
func (*{{.ClassName}}) scan(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("scan {{.Collection}}: %w", err)
	}

	var records []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan {{.Collection}}: %w", err)
		}

		record := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

{{- define "list"}}

// List returns up to limit records ordered by id, skipping offset.
func (c *{{.ClassName}}) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	query := "SELECT * FROM " + {{quote .QuotedTable}} + " ORDER BY " + {{quote .QuotedKey}} + " LIMIT " + c.bind(1) + " OFFSET " + c.bind(2)
	rows, err := c.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list {{.Collection}}: %w", err)
	}
	defer rows.Close()

	return c.scan(rows)
}
{{- end}}

{{- define "get"}}

// Get returns one record by id, or an error wrapping sql.ErrNoRows.
func (c *{{.ClassName}}) Get(ctx context.Context, id int64) (map[string]any, error) {
	query := "SELECT * FROM " + {{quote .QuotedTable}} + " WHERE " + {{quote .QuotedKey}} + " = " + c.bind(1)
	rows, err := c.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get {{.Collection}} %d: %w", id, err)
	}
	defer rows.Close()

	records, err := c.scan(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("get {{.Collection}} %d: %w", id, sql.ErrNoRows)
	}
	return records[0], nil
}
{{- end}}

{{- define "create"}}

// Create inserts the fillable fields present in input and returns the new id.
func (c *{{.ClassName}}) Create(ctx context.Context, input map[string]any) (int64, error) {
	cols, args := c.assignments(input)
	if len(cols) == 0 {
		return 0, fmt.Errorf("create {{.Collection}}: no fillable fields in input")
	}

	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = c.bind(i + 1)
	}
	query := "INSERT INTO " + {{quote .QuotedTable}} + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
{{- if .Returning}}

	var id int64
	if err := c.db.QueryRowContext(ctx, query+" RETURNING "+{{quote .QuotedKey}}, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("create {{.Collection}}: %w", err)
	}
	return id, nil
{{- else}}

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("create {{.Collection}}: %w", err)
	}
	return res.LastInsertId()
{{- end}}
}
{{- end}}

{{- define "update"}}

// Update sets the fillable fields present in input on the record with id.
func (c *{{.ClassName}}) Update(ctx context.Context, id int64, input map[string]any) error {
	cols, args := c.assignments(input)
	if len(cols) == 0 {
		return fmt.Errorf("update {{.Collection}} %d: no fillable fields in input", id)
	}

	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = col + " = " + c.bind(i+1)
	}
{{- if .TouchColumn}}
	sets = append(sets, {{quote .TouchColumn}}+" = CURRENT_TIMESTAMP")
{{- end}}
	query := "UPDATE " + {{quote .QuotedTable}} + " SET " + strings.Join(sets, ", ") + " WHERE " + {{quote .QuotedKey}} + " = " + c.bind(len(cols)+1)

	res, err := c.db.ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		return fmt.Errorf("update {{.Collection}} %d: %w", id, err)
	}
	return c.affected(res, "update", id)
}
{{- end}}

{{- define "delete"}}

// Delete removes the record with id.
func (c *{{.ClassName}}) Delete(ctx context.Context, id int64) error {
	query := "DELETE FROM " + {{quote .QuotedTable}} + " WHERE " + {{quote .QuotedKey}} + " = " + c.bind(1)
	res, err := c.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete {{.Collection}} %d: %w", id, err)
	}
	return c.affected(res, "delete", id)
}
{{- end}}
`
