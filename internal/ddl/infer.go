package ddl

import (
	"fmt"

	"hretl/internal/table"
)

// Infer derives a table definition for columns of t. A column's logical
// kind is the kind of its first non-null cell; all-null columns are text.
// Key columns are the primary key and NOT NULL, everything else is
// nullable.
func Infer(t *table.Table, fqn string, columns, keys []string, d Dialect) (TableDef, error) {
	if fqn == "" {
		return TableDef{}, fmt.Errorf("%s ddl: missing table", d.Name)
	}
	if err := t.Require(columns...); err != nil {
		return TableDef{}, err
	}
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	defs := make([]ColumnDef, 0, len(columns))
	for _, name := range columns {
		kind := table.KindText
		for _, v := range t.Column(name) {
			if !v.IsNull() {
				kind = v.Kind()
				break
			}
		}
		defs = append(defs, ColumnDef{
			Name:       name,
			SQLType:    d.MapType(kind.String(), isKey[name]),
			Nullable:   !isKey[name],
			PrimaryKey: isKey[name],
		})
	}
	return TableDef{FQN: fqn, Columns: defs}, nil
}
