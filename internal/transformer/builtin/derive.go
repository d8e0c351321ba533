package builtin

import (
	"math"
	"time"

	"go.uber.org/zap"

	"hretl/internal/table"
)

// DaysPerYear is the mean Gregorian year length used for Age.
const DaysPerYear = 365.2425

// OutputDateLayout is the day/month/year form BirthDate is written in.
const OutputDateLayout = "02/01/2006"

// DefaultReferenceDate is the "today" Age is computed against.
var DefaultReferenceDate = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// Age returns floor(days between birth and ref / 365.2425). Both times are
// reduced to their calendar date first.
func Age(birth, ref time.Time) int {
	days := dayNumber(ref) - dayNumber(birth)
	return int(math.Floor(float64(days) / DaysPerYear))
}

func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// Derive adds FullName and Age and rewrites BirthDate as DD/MM/YYYY. Rows
// must already have a Date BirthDate; for any other kind Age is Null and
// BirthDate is left as is. FullName is Null when either name is Null.
type Derive struct {
	// Reference is the date Age is measured at. Zero means DefaultReferenceDate.
	Reference time.Time
	Log       *zap.Logger
}

func (d Derive) Apply(in *table.Table) (*table.Table, error) {
	if err := in.Require("FirstName", "LastName", BirthDateColumn); err != nil {
		return nil, err
	}
	ref := d.Reference
	if ref.IsZero() {
		ref = DefaultReferenceDate
	}

	out := in.WithColumn("FullName", func(r table.Row) table.Value {
		first, last := r.Get("FirstName"), r.Get("LastName")
		if first.IsNull() || last.IsNull() {
			return table.Null()
		}
		return table.Text(first.String() + " " + last.String())
	})
	out = out.WithColumn("Age", func(r table.Row) table.Value {
		b, ok := r.Get(BirthDateColumn).Date()
		if !ok {
			return table.Null()
		}
		return table.Int(Age(b, ref))
	})
	out = out.Update(func(r *table.Row) {
		if b, ok := r.Get(BirthDateColumn).Date(); ok {
			r.Set(BirthDateColumn, table.Text(b.Format(OutputDateLayout)))
		}
	})

	orNop(d.Log).Info("derived FullName and Age",
		zap.Int("rows", out.Len()),
		zap.String("reference_date", ref.Format(table.DateLayout)))
	return out, nil
}
