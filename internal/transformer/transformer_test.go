package transformer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hretl/internal/table"
)

/*
setColumn writes a constant into col for every row. Used to verify that each
stage sees the output of the previous one.
*/
func setColumn(col, val string) Func {
	return func(in *table.Table) (*table.Table, error) {
		return in.WithColumn(col, func(table.Row) table.Value { return table.Text(val) }), nil
	}
}

/*
keepIf drops rows whose col is Null.
*/
func keepIf(col string) Func {
	return func(in *table.Table) (*table.Table, error) {
		return in.Filter(func(r table.Row) bool { return !r.Get(col).IsNull() }), nil
	}
}

func input(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.FromStrings([]string{"id", "v"}, [][]string{{"1", "a"}, {"2", ""}, {"3", "c"}})
	require.NoError(t, err)
	return tb
}

func TestChain_AppliesInOrder(t *testing.T) {
	in := input(t)
	var seen []string
	c := Chain{
		{Name: "filter", T: keepIf("v")},
		{Name: "tag", T: setColumn("tag", "x")},
		{Name: "retag", T: setColumn("tag", "y")},
	}
	out, err := c.Run(in, func(step string, before, after *table.Table, err error) {
		require.NoError(t, err)
		seen = append(seen, step)
		assert.LessOrEqual(t, after.Len(), before.Len())
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"filter", "tag", "retag"}, seen)
	assert.Equal(t, []string{"y", "y"}, out.Strings("tag"))
	assert.Equal(t, []string{"1", "3"}, out.Strings("id"))

	// The input is untouched.
	assert.Equal(t, 3, in.Len())
	assert.False(t, in.Has("tag"))
}

func TestChain_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	c := Chain{
		{Name: "first", T: Func(func(in *table.Table) (*table.Table, error) { calls++; return in, nil })},
		{Name: "broken", T: Func(func(*table.Table) (*table.Table, error) { return nil, boom })},
		{Name: "never", T: Func(func(in *table.Table) (*table.Table, error) { calls++; return in, nil })},
	}
	out, err := c.Apply(input(t))
	assert.Nil(t, out)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, 1, calls)
}

func TestChain_Empty(t *testing.T) {
	in := input(t)
	out, err := Chain{}.Apply(in)
	require.NoError(t, err)
	assert.Same(t, in, out)
}

func TestRejecterFunc(t *testing.T) {
	var got []string
	r := RejecterFunc(func(reason string, row table.Row) {
		got = append(got, reason+":"+row.Get("id").String())
	})
	r.Reject("bad", input(t).Row(1))
	assert.Equal(t, []string{"bad:2"}, got)
}
