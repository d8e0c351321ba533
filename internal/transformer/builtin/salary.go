package builtin

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"hretl/internal/table"
)

// SalaryColumn is the column the salary stages operate on.
const SalaryColumn = "Salary"

// BucketColumn receives the salary label.
const BucketColumn = "SalaryBucket"

// DefaultSalaryEdges and DefaultSalaryLabels define [0,50000) A,
// [50000,100000) B and [100000,+Inf) C.
var (
	DefaultSalaryEdges  = []float64{0, 50000, 100000, math.Inf(1)}
	DefaultSalaryLabels = []string{"A", "B", "C"}
)

// ErrBins is returned for an unusable edge/label configuration.
var ErrBins = errors.New("invalid salary bins")

// ParseSalary converts text to a number. Surrounding whitespace is ignored.
// NaN and hexadecimal forms are not numbers here; "inf" is and is left to
// the bucketing stage to reject.
func ParseSalary(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "xX") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// CoerceSalary turns Salary into a Number cell. Anything that is not a
// number becomes Null.
type CoerceSalary struct {
	Log *zap.Logger
}

func (c CoerceSalary) Apply(in *table.Table) (*table.Table, error) {
	if err := in.Require(SalaryColumn); err != nil {
		return nil, err
	}
	log := orNop(c.Log)
	failed := 0
	out := in.Update(func(r *table.Row) {
		v := r.Get(SalaryColumn)
		switch v.Kind() {
		case table.KindNumber:
			return
		case table.KindInt:
			n, _ := v.Number()
			r.Set(SalaryColumn, table.Number(n))
			return
		case table.KindText:
			s, _ := v.Text()
			if f, ok := ParseSalary(s); ok {
				r.Set(SalaryColumn, table.Number(f))
				return
			}
			log.Debug("salary is not numeric",
				zap.Int("index", r.Index),
				zap.String("employee_id", r.Get(KeyColumn).String()),
				zap.String("old", s))
		}
		if !v.IsNull() {
			failed++
		}
		r.Set(SalaryColumn, table.Null())
	})
	if failed > 0 {
		log.Info("converted salaries", zap.Int("not_numeric", failed))
	}
	return out, nil
}

// Bins are half-open salary ranges: value v is in bin i when
// Edges[i] <= v < Edges[i+1].
type Bins struct {
	Edges  []float64
	Labels []string
}

// Validate checks that edges ascend strictly and that there is one label per bin.
func (b Bins) Validate() error {
	if len(b.Edges) < 2 {
		return fmt.Errorf("%w: need at least two edges, got %d", ErrBins, len(b.Edges))
	}
	if len(b.Labels) != len(b.Edges)-1 {
		return fmt.Errorf("%w: %d labels for %d bins", ErrBins, len(b.Labels), len(b.Edges)-1)
	}
	for i := 1; i < len(b.Edges); i++ {
		if !(b.Edges[i] > b.Edges[i-1]) {
			return fmt.Errorf("%w: edges not ascending at %d", ErrBins, i)
		}
	}
	return nil
}

// Label returns the label of the bin containing v.
func (b Bins) Label(v float64) (string, bool) {
	for i := 0; i+1 < len(b.Edges); i++ {
		if v >= b.Edges[i] && v < b.Edges[i+1] {
			return b.Labels[i], true
		}
	}
	return "", false
}

// BucketSalary adds SalaryBucket. Rows whose Salary falls in no bin (or is
// not a number) get a Null bucket.
type BucketSalary struct {
	Bins Bins // zero value means the default bins
	Log  *zap.Logger
}

func (s BucketSalary) Apply(in *table.Table) (*table.Table, error) {
	if err := in.Require(SalaryColumn); err != nil {
		return nil, err
	}
	bins := s.Bins
	if len(bins.Edges) == 0 && len(bins.Labels) == 0 {
		bins = Bins{Edges: DefaultSalaryEdges, Labels: DefaultSalaryLabels}
	}
	if err := bins.Validate(); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(bins.Labels))
	out := in.WithColumn(BucketColumn, func(r table.Row) table.Value {
		n, ok := r.Get(SalaryColumn).Number()
		if !ok {
			return table.Null()
		}
		l, ok := bins.Label(n)
		if !ok {
			return table.Null()
		}
		counts[l]++
		return table.Text(l)
	})

	fields := make([]zap.Field, 0, len(bins.Labels))
	for _, l := range bins.Labels {
		fields = append(fields, zap.Int(l, counts[l]))
	}
	orNop(s.Log).Info("assigned salary buckets", zap.Dict("buckets", fields...))
	return out, nil
}
