// Package transformer defines the stage contract of the cleaning pipeline.
// A stage receives a table and returns a new one; it never modifies its
// input, so callers can keep the previous table for diffs and reports.
package transformer

import (
	"fmt"

	"hretl/internal/table"
)

// Transformer is one pipeline stage. An error means the table is
// structurally unusable (for example a required column is missing). Bad
// values in individual rows are never errors.
type Transformer interface {
	Apply(*table.Table) (*table.Table, error)
}

// Func adapts a plain function to Transformer.
type Func func(*table.Table) (*table.Table, error)

func (f Func) Apply(in *table.Table) (*table.Table, error) { return f(in) }

// Step is a named stage.
type Step struct {
	Name string
	T    Transformer
}

// Chain is an ordered list of stages.
type Chain []Step

// Apply runs the stages in order. The first error stops the chain and is
// returned wrapped with the stage name.
func (c Chain) Apply(in *table.Table) (*table.Table, error) {
	return c.Run(in, nil)
}

// Run is Apply with a callback after every stage, used for step metrics and
// row-count logging.
func (c Chain) Run(in *table.Table, after func(step string, before, out *table.Table, err error)) (*table.Table, error) {
	out := in
	for _, s := range c {
		next, err := s.T.Apply(out)
		if after != nil {
			after(s.Name, out, next, err)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}
		out = next
	}
	return out, nil
}

// Rejecter receives every row a stage removes, with the reason.
type Rejecter interface {
	Reject(reason string, row table.Row)
}

// RejecterFunc adapts a function to Rejecter.
type RejecterFunc func(reason string, row table.Row)

func (f RejecterFunc) Reject(reason string, row table.Row) { f(reason, row) }
