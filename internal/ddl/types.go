package ddl

// ColumnDef describes one column of a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., TEXT, BIGINT, DATE)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the table name in dotted form (e.g., "dbo.Employees") and
// the ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Keys returns the names of the primary key columns, in column order.
func (t TableDef) Keys() []string {
	var out []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			out = append(out, c.Name)
		}
	}
	return out
}
