// Package builtin contains the cleaning stages of the employee pipeline.
// Every stage is a value type with a Log field; a nil Log discards output.
package builtin

import (
	"go.uber.org/zap"

	"hretl/internal/table"
)

// KeyColumn identifies a record in diagnostics.
const KeyColumn = "EmployeeID"

func orNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// logChanges compares col in two tables of the same rows and logs one info
// line per changed cell. It returns the number of changed cells.
func logChanges(log *zap.Logger, msg, col string, before, after *table.Table) int {
	b := before.Column(col)
	a := after.Column(col)
	n := 0
	for i := range a {
		if a[i].Equal(b[i]) {
			continue
		}
		n++
		if ce := log.Check(zap.InfoLevel, msg); ce != nil {
			r := after.Row(i)
			ce.Write(
				zap.Int("index", r.Index),
				zap.String("employee_id", r.Get(KeyColumn).String()),
				zap.String("column", col),
				zap.Stringer("old", b[i]),
				zap.Stringer("new", a[i]),
			)
		}
	}
	return n
}

// mapText applies fn to every text cell of cols and leaves other kinds alone.
func mapText(in *table.Table, fn func(string) string, cols ...string) *table.Table {
	return in.Update(func(r *table.Row) {
		for _, c := range cols {
			if s, ok := r.Get(c).Text(); ok {
				if t := fn(s); t != s {
					r.Set(c, table.Text(t))
				}
			}
		}
	})
}
