package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hretl/internal/table"
)

/*
TestNormalize_TrimsTextCells verifies that leading and trailing whitespace,
including Unicode spaces such as NBSP, is removed from text cells while
interior whitespace and non-text cells are untouched.
*/
func TestNormalize_TrimsTextCells(t *testing.T) {
	const nbsp = "\u00a0"
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Alice", "Alice"},
		{"both_ends", "  Charlie\t", "Charlie"},
		{"nbsp_edges", nbsp + "Bob" + nbsp, "Bob"},
		{"interior_kept", " Anne  Marie ", "Anne  Marie"},
		{"all_space", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := employees(t, []string{"E1", tt.in, "X", "1990-01-01", "HR", "1"})
			out := apply(t, Normalize{}, in)
			assert.Equal(t, tt.want, out.Row(0).Get("FirstName").String())
			assert.Equal(t, tt.in, in.Row(0).Get("FirstName").String(), "input must not change")
		})
	}

	b := table.NewBuilder([]string{"n", "s"})
	require.NoError(t, b.Add(0, table.Int(3), table.Null()))
	out := apply(t, Normalize{}, b.Table())
	v, ok := out.Row(0).Get("n").Int()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.True(t, out.Row(0).Get("s").IsNull())
}

func TestNormalize_RemovesRepeatedHeaderRows(t *testing.T) {
	log, logs := observed()
	in := employees(t,
		[]string{"E1", "Alice", "Taylor", "1990-01-01", "HR", "1"},
		[]string{"EmployeeID", "FirstName", "LastName", "BirthDate", "Department", "Salary"},
		[]string{" EmployeeID", "FirstName ", "LastName", "BirthDate", "Department", "Salary"},
		[]string{"EmployeeID", "FirstName", "LastName", "BirthDate", "Department", ""},
		[]string{"E2", "Bob", "Smith", "1991-01-01", "IT", "2"},
	)

	out := apply(t, Normalize{Log: log}, in)

	// Rows 1 and 2 repeat the header (row 2 after trimming); row 3 has a Null.
	assert.Equal(t, []string{"E1", "EmployeeID", "E2"}, out.Strings("EmployeeID"))
	assert.Equal(t, []int{0, 3, 4}, []int{out.Index(0), out.Index(1), out.Index(2)})
	assert.Equal(t, 2, logs.FilterMessage("removed row repeating the header").Len())
	assert.Equal(t, 1, logs.FilterMessage("stripped leading and trailing whitespace").Len())
}

func TestNormalize_QuietOnCleanInput(t *testing.T) {
	log, logs := observed()
	in := employees(t, []string{"E1", "Alice", "Taylor", "1990-01-01", "HR", "1"})
	out := apply(t, Normalize{Log: log}, in)
	assert.True(t, in.Equal(out))
	assert.Equal(t, 0, logs.Len())
}
