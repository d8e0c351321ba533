package table

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is returned when an operation names a column the table
// does not have.
var ErrMissingColumn = errors.New("missing column")

type header struct {
	names []string
	pos   map[string]int
}

func newHeader(names []string) *header {
	h := &header{names: append([]string(nil), names...), pos: make(map[string]int, len(names))}
	for i, n := range h.names {
		h.pos[n] = i
	}
	return h
}

// Row is one record. Index is the 0-based position of the row in the source
// data and survives every filter, so diagnostics can name the original row.
type Row struct {
	Index int
	cells []Value
	h     *header
}

// Get returns the cell in col, or Null when the column does not exist.
func (r Row) Get(col string) Value {
	if i, ok := r.h.pos[col]; ok {
		return r.cells[i]
	}
	return Null()
}

// Set replaces the cell in col. It reports false for an unknown column.
func (r *Row) Set(col string, v Value) bool {
	i, ok := r.h.pos[col]
	if !ok {
		return false
	}
	r.cells[i] = v
	return true
}

// Clear sets every cell of the row to Null.
func (r *Row) Clear() {
	for i := range r.cells {
		r.cells[i] = Null()
	}
}

// Columns returns the names of the row's columns in order.
func (r Row) Columns() []string { return append([]string(nil), r.h.names...) }

// Values returns a copy of the cells in column order.
func (r Row) Values() []Value { return append([]Value(nil), r.cells...) }

// Strings renders the cells in column order.
func (r Row) Strings() []string {
	out := make([]string, len(r.cells))
	for i, v := range r.cells {
		out[i] = v.String()
	}
	return out
}

func (r Row) clone() Row {
	return Row{Index: r.Index, cells: append([]Value(nil), r.cells...), h: r.h}
}

// Table is an ordered set of rows sharing one header. A Table is never
// modified after construction; every transformation returns a new Table.
type Table struct {
	h    *header
	rows []Row
}

// Builder accumulates rows for a new Table.
type Builder struct {
	h    *header
	rows []Row
}

// NewBuilder starts a table with the given column names.
func NewBuilder(columns []string) *Builder {
	return &Builder{h: newHeader(columns)}
}

// Add appends a row. Short rows are padded with Null; long rows are an error.
func (b *Builder) Add(index int, vals ...Value) error {
	if len(vals) > len(b.h.names) {
		return fmt.Errorf("row %d: %d values for %d columns", index, len(vals), len(b.h.names))
	}
	cells := make([]Value, len(b.h.names))
	copy(cells, vals)
	b.rows = append(b.rows, Row{Index: index, cells: cells, h: b.h})
	return nil
}

// Table returns the built table. The builder must not be used afterwards.
func (b *Builder) Table() *Table {
	t := &Table{h: b.h, rows: b.rows}
	b.rows = nil
	return t
}

// FromStrings builds a table from text records, numbering rows from 0.
// Empty strings become Null, matching how the CSV reader treats empty fields.
func FromStrings(columns []string, records [][]string) (*Table, error) {
	b := NewBuilder(columns)
	for i, rec := range records {
		vals := make([]Value, len(rec))
		for j, s := range rec {
			if s != "" {
				vals[j] = Text(s)
			}
		}
		if err := b.Add(i, vals...); err != nil {
			return nil, err
		}
	}
	return b.Table(), nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string { return append([]string(nil), t.h.names...) }

func (t *Table) Len() int { return len(t.rows) }

// Has reports whether col is a column of t.
func (t *Table) Has(col string) bool {
	_, ok := t.h.pos[col]
	return ok
}

// Require returns an error wrapping ErrMissingColumn naming every absent column.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// Index returns the source position of the i-th row.
func (t *Table) Index(i int) int { return t.rows[i].Index }

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) Row { return t.rows[i].clone() }

// Rows returns copies of all rows.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.clone()
	}
	return out
}

// Column returns the cells of col in row order, or nil when col is unknown.
func (t *Table) Column(col string) []Value {
	j, ok := t.h.pos[col]
	if !ok {
		return nil
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.cells[j]
	}
	return out
}

// Strings renders col as text; Null cells render as "".
func (t *Table) Strings(col string) []string {
	vals := t.Column(col)
	if vals == nil {
		return nil
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}

// Filter returns the rows for which keep reports true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{h: t.h, rows: make([]Row, 0, len(t.rows))}
	for _, r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, r.clone())
		}
	}
	return out
}

// Update returns a table in which fn has been applied to a copy of each row.
func (t *Table) Update(fn func(*Row)) *Table {
	out := &Table{h: t.h, rows: make([]Row, len(t.rows))}
	for i, r := range t.rows {
		c := r.clone()
		fn(&c)
		out.rows[i] = c
	}
	return out
}

// WithColumn returns a table where col holds fn(row) for every row. A new
// column is appended after the existing ones; an existing one is replaced.
func (t *Table) WithColumn(col string, fn func(Row) Value) *Table {
	h := t.h
	j, ok := h.pos[col]
	if !ok {
		h = newHeader(append(t.Columns(), col))
		j = len(h.names) - 1
	}
	out := &Table{h: h, rows: make([]Row, len(t.rows))}
	for i, r := range t.rows {
		cells := make([]Value, len(h.names))
		copy(cells, r.cells)
		cells[j] = fn(r)
		out.rows[i] = Row{Index: r.Index, cells: cells, h: h}
	}
	return out
}

// Select projects t onto cols in the given order.
func (t *Table) Select(cols ...string) (*Table, error) {
	if err := t.Require(cols...); err != nil {
		return nil, err
	}
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = t.h.pos[c]
	}
	h := newHeader(cols)
	out := &Table{h: h, rows: make([]Row, len(t.rows))}
	for i, r := range t.rows {
		cells := make([]Value, len(cols))
		for k, j := range idx {
			cells[k] = r.cells[j]
		}
		out.rows[i] = Row{Index: r.Index, cells: cells, h: h}
	}
	return out, nil
}

// Drop returns t without cols. Unknown names are ignored.
func (t *Table) Drop(cols ...string) *Table {
	gone := make(map[string]bool, len(cols))
	for _, c := range cols {
		gone[c] = true
	}
	keep := make([]string, 0, len(t.h.names))
	for _, n := range t.h.names {
		if !gone[n] {
			keep = append(keep, n)
		}
	}
	out, _ := t.Select(keep...)
	return out
}

// Equal reports whether t and o have the same columns and the same rows,
// including source indexes, in the same order.
func (t *Table) Equal(o *Table) bool {
	if len(t.h.names) != len(o.h.names) || len(t.rows) != len(o.rows) {
		return false
	}
	for i, n := range t.h.names {
		if o.h.names[i] != n {
			return false
		}
	}
	for i, r := range t.rows {
		q := o.rows[i]
		if r.Index != q.Index {
			return false
		}
		for j, v := range r.cells {
			if !v.Equal(q.cells[j]) {
				return false
			}
		}
	}
	return true
}
