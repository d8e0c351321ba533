package builtin

import (
	"strings"

	"go.uber.org/zap"

	"hretl/internal/table"
)

// Normalize trims leading and trailing Unicode whitespace from every text
// cell, then removes rows in which every cell equals its column name (header
// lines repeated inside the export). Non-text cells are left alone and a Null
// cell never matches a column name.
type Normalize struct {
	Log *zap.Logger
}

func (n Normalize) Apply(in *table.Table) (*table.Table, error) {
	log := orNop(n.Log)
	cols := in.Columns()

	trimmed := 0
	out := in.Update(func(r *table.Row) {
		for _, c := range cols {
			s, ok := r.Get(c).Text()
			if !ok {
				continue
			}
			if t := strings.TrimSpace(s); t != s {
				r.Set(c, table.Text(t))
				trimmed++
			}
		}
	})
	if trimmed > 0 {
		log.Info("stripped leading and trailing whitespace", zap.Int("cells", trimmed))
	}

	out = out.Filter(func(r table.Row) bool {
		if !isHeaderRow(r, cols) {
			return true
		}
		log.Info("removed row repeating the header",
			zap.Int("index", r.Index),
			zap.String("reason", "values equal column names"))
		return false
	})
	return out, nil
}

func isHeaderRow(r table.Row, cols []string) bool {
	if len(cols) == 0 {
		return false
	}
	for _, c := range cols {
		s, ok := r.Get(c).Text()
		if !ok || s != c {
			return false
		}
	}
	return true
}
