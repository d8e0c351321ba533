package builtin

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"hretl/internal/table"
)

// BirthDateColumn is the column the date stages operate on.
const BirthDateColumn = "BirthDate"

var datePrefix = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}).*`)

// TruncateDates cuts anything following a YYYY-MM-DD run in BirthDate, so
// "1995-07-15@1" becomes "1995-07-15".
type TruncateDates struct {
	Log *zap.Logger
}

func (d TruncateDates) Apply(in *table.Table) (*table.Table, error) {
	if err := in.Require(BirthDateColumn); err != nil {
		return nil, err
	}
	out := mapText(in, func(s string) string {
		return datePrefix.ReplaceAllString(s, "$1")
	}, BirthDateColumn)
	logChanges(orNop(d.Log), "truncated birth date suffix", BirthDateColumn, in, out)
	return out, nil
}

// StripDatePunctuation removes every '.' from BirthDate, so "1990-06-1.2"
// becomes "1990-06-12".
type StripDatePunctuation struct {
	Log *zap.Logger
}

func (d StripDatePunctuation) Apply(in *table.Table) (*table.Table, error) {
	if err := in.Require(BirthDateColumn); err != nil {
		return nil, err
	}
	out := mapText(in, func(s string) string {
		return strings.ReplaceAll(s, ".", "")
	}, BirthDateColumn)
	logChanges(orNop(d.Log), "removed periods from birth date", BirthDateColumn, in, out)
	return out, nil
}

// ParseDates converts BirthDate text to a Date cell using the strict layout
// 2006-01-02. Text that does not parse becomes Null. Date cells are kept and
// any other kind becomes Null.
type ParseDates struct {
	Log *zap.Logger
}

func (d ParseDates) Apply(in *table.Table) (*table.Table, error) {
	if err := in.Require(BirthDateColumn); err != nil {
		return nil, err
	}
	log := orNop(d.Log)
	failed := 0
	out := in.Update(func(r *table.Row) {
		v := r.Get(BirthDateColumn)
		switch v.Kind() {
		case table.KindDate:
			return
		case table.KindText:
			s, _ := v.Text()
			if t, err := time.Parse(table.DateLayout, s); err == nil {
				r.Set(BirthDateColumn, table.Date(t))
				return
			}
			log.Debug("birth date does not parse",
				zap.Int("index", r.Index),
				zap.String("employee_id", r.Get(KeyColumn).String()),
				zap.String("old", s))
		}
		if !v.IsNull() {
			failed++
		}
		r.Set(BirthDateColumn, table.Null())
	})
	if failed > 0 {
		log.Info("converted birth dates", zap.Int("unparsable", failed))
	}
	return out, nil
}
