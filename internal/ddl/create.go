// Package ddl models a destination table and renders CREATE TABLE
// statements for the SQL backends. Each backend contributes a Dialect that
// decides identifier quoting, type mapping and how "create if missing" is
// spelled.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures the differences between SQL backends.
type Dialect struct {
	Name string

	// Quote quotes one identifier segment.
	Quote func(ident string) string

	// MapType maps a logical kind ("text", "int", "number", "date") to a
	// column type. key is true for primary key columns, which some engines
	// cannot index as unbounded text.
	MapType func(kind string, key bool) string

	// Guard wraps a bare CREATE TABLE so it only runs when the table is
	// missing. Nil means the dialect supports CREATE TABLE IF NOT EXISTS.
	Guard func(fqn, quotedFQN, create string) string
}

// QuoteFQN quotes each dotted segment of fqn, dropping empty ones.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.Quote(p))
	}
	return strings.Join(out, ".")
}

// BuildCreateTableSQL renders t for d:
//
//	CREATE TABLE [IF NOT EXISTS] <fqn> (
//	  <col> <type> [NOT NULL],
//	  ...,
//	  PRIMARY KEY (<pk-cols>)
//	);
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, name)
		}

		line := d.Quote(name) + " " + typ
		if !c.Nullable {
			line += " NOT NULL"
		}
		cols = append(cols, line)
		if c.PrimaryKey {
			pks = append(pks, d.Quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	quoted := d.QuoteFQN(fqn)
	body := fmt.Sprintf("%s (\n  %s\n);", quoted, strings.Join(cols, ",\n  "))
	if d.Guard != nil {
		return d.Guard(fqn, quoted, "CREATE TABLE "+body), nil
	}
	return "CREATE TABLE IF NOT EXISTS " + body, nil
}
