package builtin

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"hretl/internal/table"
)

var employeeColumns = []string{"EmployeeID", "FirstName", "LastName", "BirthDate", "Department", "Salary"}

// employees builds a table with the export's six columns.
func employees(t *testing.T, rows ...[]string) *table.Table {
	t.Helper()
	tb, err := table.FromStrings(employeeColumns, rows)
	require.NoError(t, err)
	return tb
}

// observed returns a logger that records everything at debug and above.
func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func apply(t *testing.T, s interface {
	Apply(*table.Table) (*table.Table, error)
}, in *table.Table) *table.Table {
	t.Helper()
	out, err := s.Apply(in)
	require.NoError(t, err)
	return out
}
