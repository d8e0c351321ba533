// Package pipeline composes the cleaning and transform stages into the two
// entry points the CLI and tests use: Clean and Transform.
package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"hretl/internal/config"
	"hretl/internal/table"
	"hretl/internal/transformer"
	"hretl/internal/transformer/builtin"
)

// ErrEmptyTable is returned when the input has no rows.
var ErrEmptyTable = errors.New("table has no rows")

// InputColumns must be present in every input table.
var InputColumns = []string{"EmployeeID", "FirstName", "LastName", "BirthDate", "Department", "Salary"}

// Options fixes the parameters of one run.
type Options struct {
	ReferenceDate time.Time      // zero means builtin.DefaultReferenceDate
	DatePattern   *regexp.Regexp // nil means builtin.DefaultDatePattern
	Bins          builtin.Bins   // zero means the default A/B/C bins
	OutputColumns []string       // nil keeps every column

	Log      *zap.Logger
	Rejecter transformer.Rejecter

	// After, when set, is called after every stage.
	After func(step string, before, out *table.Table, err error)
}

// OptionsFrom builds Options from the cleaning section of a pipeline file.
// Log, Rejecter and After are left for the caller.
func OptionsFrom(c config.Cleaning) (Options, error) {
	var opt Options
	if c.ReferenceDate != "" {
		ref, err := time.Parse(table.DateLayout, c.ReferenceDate)
		if err != nil {
			return Options{}, fmt.Errorf("reference_date: %w", err)
		}
		opt.ReferenceDate = ref
	}
	if c.DatePattern != "" {
		re, err := regexp.Compile(c.DatePattern)
		if err != nil {
			return Options{}, fmt.Errorf("date_pattern: %w", err)
		}
		opt.DatePattern = re
	}
	if len(c.SalaryEdges) > 0 || len(c.SalaryLabels) > 0 {
		opt.Bins = builtin.Bins{Edges: config.Floats(c.SalaryEdges), Labels: c.SalaryLabels}
		if err := opt.Bins.Validate(); err != nil {
			return Options{}, err
		}
	}
	opt.OutputColumns = append([]string(nil), c.OutputColumns...)
	return opt, nil
}

func (o Options) logger() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

// CleanSteps returns the cleaning stages in order.
func CleanSteps(o Options) transformer.Chain {
	log := o.logger()
	return transformer.Chain{
		{Name: "normalize", T: builtin.Normalize{Log: log}},
		{Name: "sanitize_first_name", T: builtin.SanitizeNames{Columns: []string{"FirstName"}, Log: log}},
		{Name: "repair_misalignment", T: builtin.RepairMisalignment{DatePattern: o.DatePattern, Log: log}},
		{Name: "sanitize_names", T: builtin.SanitizeNames{Columns: []string{"LastName", "FirstName"}, Log: log}},
		{Name: "truncate_dates", T: builtin.TruncateDates{Log: log}},
		{Name: "strip_date_punctuation", T: builtin.StripDatePunctuation{Log: log}},
	}
}

// TransformSteps returns the stages that follow Clean.
func TransformSteps(o Options) transformer.Chain {
	log := o.logger()
	steps := transformer.Chain{
		{Name: "parse_dates", T: builtin.ParseDates{Log: log}},
		{Name: "require_birth_date", T: builtin.Require{
			Column: builtin.BirthDateColumn, Reason: builtin.ReasonInvalidBirthDate, Log: log, Rejecter: o.Rejecter,
		}},
		{Name: "derive", T: builtin.Derive{Reference: o.ReferenceDate, Log: log}},
		{Name: "coerce_salary", T: builtin.CoerceSalary{Log: log}},
		{Name: "require_salary", T: builtin.Require{
			Column: builtin.SalaryColumn, Reason: builtin.ReasonSalaryNotNumeric, Log: log, Rejecter: o.Rejecter,
		}},
		{Name: "bucket_salary", T: builtin.BucketSalary{Bins: o.Bins, Log: log}},
		{Name: "require_salary_bucket", T: builtin.Require{
			Column: builtin.BucketColumn, Reason: builtin.ReasonSalaryOutOfRange, Log: log, Rejecter: o.Rejecter,
		}},
	}
	if len(o.OutputColumns) > 0 {
		cols := o.OutputColumns
		steps = append(steps, transformer.Step{Name: "select", T: transformer.Func(func(in *table.Table) (*table.Table, error) {
			return in.Select(cols...)
		})})
	}
	return steps
}

// check rejects tables the stages cannot work on. The problem is logged
// before it is returned.
func check(in *table.Table, log *zap.Logger) error {
	if err := in.Require(InputColumns...); err != nil {
		log.Warn("input table is missing required columns", zap.Error(err), zap.Strings("columns", in.Columns()))
		return err
	}
	if in.Len() == 0 {
		log.Warn("input table is empty")
		return ErrEmptyTable
	}
	return nil
}

// Clean repairs misaligned rows and normalizes names and dates. Rows that
// cannot be repaired are kept with every cell Null; Transform drops them.
func Clean(in *table.Table, o Options) (*table.Table, error) {
	if err := check(in, o.logger()); err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	return CleanSteps(o).Run(in, o.After)
}

// Transform runs Clean, then parses and derives fields, buckets Salary and
// drops every row that failed a stage. Rejected rows go to o.Rejecter.
func Transform(in *table.Table, o Options) (*table.Table, error) {
	log := o.logger()
	if err := check(in, log); err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	steps := append(CleanSteps(o), TransformSteps(o)...)
	out, err := steps.Run(in, o.After)
	if err != nil {
		return nil, err
	}
	log.Info("transform done", zap.Int("rows_in", in.Len()), zap.Int("rows_out", out.Len()))
	return out, nil
}
