package ingest

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Column maps one destination column to a value taken from a record.
type Column struct {
	Name string
	// Path is the dotted source path. Empty means the same as Name.
	Path string
	// Derive, when set, replaces the path lookup.
	Derive func(Record) any
	// Default is used when the source value is missing or null.
	Default any
	// Float casts the value to float64. Everything else passes through.
	Float bool
	// JSON stores the value as JSON text.
	JSON bool
}

// Table describes a destination table. Key is the conflict column and is
// always the first column of a row.
type Table struct {
	Name    string
	Key     string
	Columns []Column
}

// Child expands a list nested in the parent record into rows of a child
// table. Child rows are laid out as Key, ParentColumn, then Table.Columns.
type Child struct {
	Table        Table
	Items        string
	ParentColumn string
	ID           func(parentID string, index int, item Record) string
}

// Row holds column values in table column order.
type Row []any

// ChildRows are the rows one record produced for one child table.
type ChildRows struct {
	Table string
	Rows  []Row
}

// Col is shorthand for a column read from the same-named field.
func Col(name string) Column {
	return Column{Name: name}
}

// From reads column name from a differently named source path.
func From(name, path string) Column {
	return Column{Name: name, Path: path}
}

// Promote lifts fields of a nested object into prefixed sibling columns,
// e.g. Promote("cliente", "cliente", "id", "nome") gives cliente_id and
// cliente_nome. The nested object itself never becomes a column.
func Promote(object, prefix string, fields ...string) []Column {
	cols := make([]Column, len(fields))
	for i, f := range fields {
		cols[i] = Column{Name: prefix + "_" + f, Path: object + "." + f}
	}
	return cols
}

// Columns joins column groups in order.
func Columns(groups ...[]Column) []Column {
	var out []Column
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// ColumnNames returns the destination columns of a primary table.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnNames returns the destination columns of a child table.
func (c Child) ColumnNames() []string {
	return append([]string{c.Table.Key, c.ParentColumn}, c.Table.ColumnNames()...)
}

// Flatten turns one record into the entity's primary row plus one set of
// rows per child table. It never fails: missing data becomes NULL.
func Flatten(r Record, e Entity) (Row, []ChildRows) {
	row := flattenColumns(r, e.Table.Columns)

	if len(e.Children) == 0 {
		return row, nil
	}

	parentID := r.ID()
	children := make([]ChildRows, len(e.Children))
	for i, child := range e.Children {
		items := r.List(child.Items)
		rows := make([]Row, 0, len(items))
		for idx, item := range items {
			childRow := make(Row, 0, len(child.Table.Columns)+2)
			childRow = append(childRow, child.ID(parentID, idx, item), parentID)
			childRow = append(childRow, flattenColumns(item, child.Table.Columns)...)
			rows = append(rows, childRow)
		}
		children[i] = ChildRows{Table: child.Table.Name, Rows: rows}
	}
	return row, children
}

func flattenColumns(r Record, cols []Column) Row {
	row := make(Row, len(cols))
	for i, c := range cols {
		row[i] = c.value(r)
	}
	return row
}

func (c Column) value(r Record) any {
	var v any
	if c.Derive != nil {
		v = c.Derive(r)
	} else {
		path := c.Path
		if path == "" {
			path = c.Name
		}
		v = r.Lookup(path)
	}
	if v == nil {
		v = c.Default
	}
	if v == nil {
		return nil
	}

	switch {
	case c.JSON:
		if obj, ok := asObject(v); ok && len(obj) == 0 {
			return nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(b)
	case c.Float:
		return toFloat(v)
	}
	return normalize(v)
}

// normalize converts decoded JSON values into driver-friendly ones.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	case map[string]any, Record, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		return string(b)
	}
	return v
}

func toFloat(v any) any {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(t), ",", ".", 1), 64)
		if err != nil {
			return nil
		}
		return f
	}
	return nil
}
