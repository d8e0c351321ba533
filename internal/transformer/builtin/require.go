package builtin

import (
	"go.uber.org/zap"

	"hretl/internal/table"
	"hretl/internal/transformer"
)

// Rejection reasons used by the pipeline.
const (
	ReasonInvalidBirthDate = "BirthDate is not a valid date"
	ReasonSalaryNotNumeric = "Salary is not numeric"
	ReasonSalaryOutOfRange = "Salary is negative or out of range"
)

// Require removes every row whose Column is Null. Each removed row gets one
// warning naming its index and EmployeeID, and is passed to Rejecter when
// one is set.
type Require struct {
	Column   string
	Reason   string
	Log      *zap.Logger
	Rejecter transformer.Rejecter
}

func (q Require) Apply(in *table.Table) (*table.Table, error) {
	if err := in.Require(q.Column); err != nil {
		return nil, err
	}
	log := orNop(q.Log)
	removed := 0
	out := in.Filter(func(r table.Row) bool {
		if !r.Get(q.Column).IsNull() {
			return true
		}
		removed++
		log.Warn("deleting row",
			zap.Int("index", r.Index),
			zap.String("employee_id", r.Get(KeyColumn).String()),
			zap.String("column", q.Column),
			zap.String("reason", q.Reason))
		if q.Rejecter != nil {
			q.Rejecter.Reject(q.Reason, r)
		}
		return false
	})
	if removed > 0 {
		log.Info("rows rejected", zap.String("reason", q.Reason), zap.Int("rows", removed), zap.Int("remaining", out.Len()))
	}
	return out, nil
}
