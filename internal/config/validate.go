// Package config provides configuration models and helpers for the cleaning job.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding worth surfacing that does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "transform.salary_edges[2]"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// InputColumns are the columns the cleaning stages read.
var InputColumns = []string{"EmployeeID", "FirstName", "LastName", "BirthDate", "Department", "Salary"}

// DerivedColumns are the columns the transform adds.
var DerivedColumns = []string{"FullName", "Age", "SalaryBucket"}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateCleaning(p.Transform)...)
	issues = append(issues, validateStorage(p.Storage, p.Transform.OutputColumns)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateLogging(p.Logging)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
	}

	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "http":
		u := strings.TrimSpace(s.HTTP.URL)
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  fmt.Sprintf("http source requires an http(s) URL, got %q", s.HTTP.URL),
			})
		}
		if s.HTTP.MaxRetries < 0 || s.HTTP.TimeoutSeconds < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http",
				Message:  "max_retries and timeout_seconds must not be negative",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unsupported source kind %q", s.Kind),
		})
	}

	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Kind) == "" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  "parser.kind must not be empty",
		})
	}
	if p.Kind != "csv" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unsupported parser kind %q", p.Kind),
		})
	}

	if comma := p.Options.String("comma", ","); len([]rune(comma)) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", comma),
		})
	}
	if !p.Options.Bool("has_header", true) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.has_header",
			Message:  "the employee export must carry a header row",
		})
	}

	return issues
}

func validateCleaning(c Cleaning) []Issue {
	var issues []Issue

	if _, err := time.Parse("2006-01-02", c.ReferenceDate); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.reference_date",
			Message:  fmt.Sprintf("reference_date %q is not YYYY-MM-DD", c.ReferenceDate),
		})
	}
	if _, err := regexp.Compile(c.DatePattern); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.date_pattern",
			Message:  fmt.Sprintf("date_pattern does not compile: %v", err),
		})
	}

	issues = append(issues, validateBins(c.SalaryEdges, c.SalaryLabels)...)

	known := make(map[string]bool, len(InputColumns)+len(DerivedColumns))
	for _, col := range InputColumns {
		known[col] = true
	}
	for _, col := range DerivedColumns {
		known[col] = true
	}
	seen := map[string]bool{}
	for i, col := range c.OutputColumns {
		path := fmt.Sprintf("transform.output_columns[%d]", i)
		switch {
		case !known[col]:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("unknown column %q", col),
			})
		case seen[col]:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("column %q listed twice", col),
			})
		}
		seen[col] = true
	}
	if len(c.OutputColumns) > 0 && !seen["EmployeeID"] {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "transform.output_columns",
			Message:  "EmployeeID is not in the output; persisted rows cannot be keyed",
		})
	}

	return issues
}

func validateBins(edges []Edge, labels []string) []Issue {
	var issues []Issue

	if len(edges) < 2 {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.salary_edges",
			Message:  "at least two salary edges are required",
		})
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("transform.salary_edges[%d]", i),
				Message:  "salary edges must be strictly ascending",
			})
		}
	}
	if edges[0] > 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "transform.salary_edges[0]",
			Message:  fmt.Sprintf("first edge %v is positive; salaries below it will be rejected", float64(edges[0])),
		})
	}
	if !math.IsInf(float64(edges[len(edges)-1]), 1) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     fmt.Sprintf("transform.salary_edges[%d]", len(edges)-1),
			Message:  "last edge is finite; salaries at or above it will be rejected",
		})
	}
	if len(labels) != len(edges)-1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.salary_labels",
			Message:  fmt.Sprintf("%d labels for %d bins", len(labels), len(edges)-1),
		})
	}
	for i, l := range labels {
		if strings.TrimSpace(l) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("transform.salary_labels[%d]", i),
				Message:  "salary label must not be empty",
			})
		}
	}

	return issues
}

func validateStorage(s Storage, output []string) []Issue {
	var issues []Issue

	switch strings.TrimSpace(s.Kind) {
	case "":
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty; use \"none\" to skip persistence",
		})
	case "none":
		return issues
	case "mongo", "postgres", "mysql", "mssql", "sqlite":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	db := s.DB
	if strings.TrimSpace(db.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	if strings.TrimSpace(db.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "storage.db.table must not be empty",
		})
	}
	if s.Kind == "mongo" && strings.TrimSpace(db.Database) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.database",
			Message:  "mongo storage requires a database name",
		})
	}

	cols := db.Columns
	if len(cols) == 0 {
		cols = output
	} else if len(output) > 0 {
		out := make(map[string]bool, len(output))
		for _, c := range output {
			out[c] = true
		}
		for i, c := range db.Columns {
			if !out[c] {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("storage.db.columns[%d]", i),
					Message:  fmt.Sprintf("column %q is not produced by the transform", c),
				})
			}
		}
	}
	switch db.DuplicatePolicy {
	case "", "fail", "keep-first", "keep-last", "most-complete":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.duplicate_policy",
			Message:  fmt.Sprintf("unknown duplicate policy %q; use fail, keep-first, keep-last or most-complete", db.DuplicatePolicy),
		})
	}

	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	for i, k := range db.KeyColumns {
		if !have[k] {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("storage.db.key_columns[%d]", i),
				Message:  fmt.Sprintf("key column %q is not written", k),
			})
		}
	}

	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; all rows will be written in one batch", r.BatchSize),
		})
	}
	if r.LoaderWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.loader_workers",
			Message:  "loader_workers must not be negative",
		})
	}
	if r.TimeoutSeconds < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.timeout_seconds",
			Message:  "timeout_seconds must not be negative",
		})
	}

	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend without a URL; http://localhost:9091 is assumed",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires datadog_addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics disabled", m.Backend),
		})
	}

	return issues
}

func validateLogging(l Logging) []Issue {
	if l.Level == "" {
		return nil
	}
	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		return []Issue{{
			Severity: SeverityError,
			Path:     "logging.level",
			Message:  fmt.Sprintf("unknown log level %q", l.Level),
		}}
	}
	return nil
}
