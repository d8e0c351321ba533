package builtin

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hretl/internal/table"
)

// ErrDuplicateKey is returned when a key value occurs more than once.
var ErrDuplicateKey = errors.New("duplicate key")

// UniqueKey fails when any non-null value of Column repeats. It never drops
// or merges rows: the pipeline does not decide which duplicate is right, it
// stops before the store's uniqueness constraint would.
type UniqueKey struct {
	Column string // empty means EmployeeID
	Log    *zap.Logger
}

func (u UniqueKey) Apply(in *table.Table) (*table.Table, error) {
	col := u.Column
	if col == "" {
		col = KeyColumn
	}
	if err := in.Require(col); err != nil {
		return nil, err
	}
	dups := in.Duplicates(col)
	if len(dups) == 0 {
		return in, nil
	}
	orNop(u.Log).Warn("duplicate keys in output", zap.String("column", col), zap.Strings("values", dups))
	shown := dups
	if len(shown) > 10 {
		shown = shown[:10]
	}
	return nil, fmt.Errorf("%w: %s has %d repeated values (%s)", ErrDuplicateKey, col, len(dups), strings.Join(shown, ", "))
}
