package config

import (
	"math"
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validPipeline() Pipeline {
	p := Default()
	p.Source.File.Path = "employees.csv"
	p.Storage = Storage{
		Kind: "mongo",
		DB: DBConfig{
			DSN:        "mongodb://localhost:27017",
			Database:   DefaultDatabase,
			Table:      DefaultCollection,
			KeyColumns: []string{"EmployeeID"},
		},
	}
	return p
}

/*
TestValidatePipeline_ValidMinimal verifies that the defaults plus a source
path and a sink produce no issues at all.
*/
func TestValidatePipeline_ValidMinimal(t *testing.T) {
	issues := ValidatePipeline(validPipeline())
	if len(issues) != 0 {
		t.Fatalf("expected no issues for valid pipeline; got: %+v", issues)
	}
}

func TestValidatePipeline_MissingJob(t *testing.T) {
	p := validPipeline()
	p.Job = "  "

	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
	if !HasErrors(issues) {
		t.Fatalf("HasErrors = false; want true")
	}
}

func TestValidateSource_Cases(t *testing.T) {
	t.Run("missing_kind", func(t *testing.T) {
		if !hasIssue(t, validateSource(Source{}), SeverityError, "source.kind", "must not be empty") {
			t.Fatal("expected source.kind error")
		}
	})
	t.Run("file_without_path", func(t *testing.T) {
		if !hasIssue(t, validateSource(Source{Kind: "file"}), SeverityError, "source.file.path", "non-empty path") {
			t.Fatal("expected source.file.path error")
		}
	})
	t.Run("http_needs_url", func(t *testing.T) {
		if !hasIssue(t, validateSource(Source{Kind: "http", HTTP: SourceHTTP{URL: "ftp://x"}}), SeverityError, "source.http.url", "http(s) URL") {
			t.Fatal("expected source.http.url error")
		}
		if issues := validateSource(Source{Kind: "http", HTTP: SourceHTTP{URL: "https://hr.example.com/export.csv"}}); len(issues) != 0 {
			t.Fatalf("expected no issues; got %+v", issues)
		}
	})
	t.Run("unsupported_kind", func(t *testing.T) {
		if !hasIssue(t, validateSource(Source{Kind: "s3"}), SeverityError, "source.kind", "unsupported") {
			t.Fatal("expected unsupported kind error")
		}
	})
}

func TestValidateParser_Cases(t *testing.T) {
	tests := []struct {
		name string
		p    Parser
		path string
		msg  string
	}{
		{"empty_kind", Parser{}, "parser.kind", "must not be empty"},
		{"xml_not_supported", Parser{Kind: "xml"}, "parser.kind", "unsupported"},
		{"multi_char_comma", Parser{Kind: "csv", Options: Options{"comma": ";;"}}, "parser.options.comma", "single character"},
		{"headerless", Parser{Kind: "csv", Options: Options{"has_header": false}}, "parser.options.has_header", "header row"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := validateParser(tt.p)
			if !hasIssue(t, issues, SeverityError, tt.path, tt.msg) {
				t.Fatalf("expected %s error containing %q; got %+v", tt.path, tt.msg, issues)
			}
		})
	}
}

func TestValidateCleaning_Cases(t *testing.T) {
	inf := Edge(math.Inf(1))
	tests := []struct {
		name string
		mod  func(*Cleaning)
		sev  IssueSeverity
		path string
		msg  string
	}{
		{"bad_reference_date", func(c *Cleaning) { c.ReferenceDate = "01/01/2023" }, SeverityError, "transform.reference_date", "YYYY-MM-DD"},
		{"bad_pattern", func(c *Cleaning) { c.DatePattern = "(" }, SeverityError, "transform.date_pattern", "does not compile"},
		{"descending_edges", func(c *Cleaning) { c.SalaryEdges = []Edge{0, 100000, 50000, inf} }, SeverityError, "transform.salary_edges[2]", "strictly ascending"},
		{"one_edge", func(c *Cleaning) { c.SalaryEdges = []Edge{0} }, SeverityError, "transform.salary_edges", "at least two"},
		{"label_count", func(c *Cleaning) { c.SalaryLabels = []string{"A", "B"} }, SeverityError, "transform.salary_labels", "2 labels for 3 bins"},
		{"empty_label", func(c *Cleaning) { c.SalaryLabels = []string{"A", " ", "C"} }, SeverityError, "transform.salary_labels[1]", "must not be empty"},
		{"positive_first_edge", func(c *Cleaning) { c.SalaryEdges = []Edge{10, 50000, 100000, inf} }, SeverityWarning, "transform.salary_edges[0]", "positive"},
		{"finite_last_edge", func(c *Cleaning) { c.SalaryEdges = []Edge{0, 50000, 100000, 200000} }, SeverityWarning, "transform.salary_edges[3]", "finite"},
		{"unknown_output", func(c *Cleaning) { c.OutputColumns = []string{"EmployeeID", "Bonus"} }, SeverityError, "transform.output_columns[1]", "unknown column"},
		{"duplicate_output", func(c *Cleaning) { c.OutputColumns = []string{"EmployeeID", "Age", "Age"} }, SeverityError, "transform.output_columns[2]", "twice"},
		{"no_key_in_output", func(c *Cleaning) { c.OutputColumns = []string{"FullName"} }, SeverityWarning, "transform.output_columns", "EmployeeID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultCleaning()
			tt.mod(&c)
			issues := validateCleaning(c)
			if !hasIssue(t, issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tt.sev, tt.path, tt.msg, issues)
			}
		})
	}
}

func TestValidateStorage_Cases(t *testing.T) {
	out := DefaultOutputColumns

	t.Run("none_skips_checks", func(t *testing.T) {
		if issues := validateStorage(Storage{Kind: "none"}, out); len(issues) != 0 {
			t.Fatalf("expected no issues; got %+v", issues)
		}
	})
	t.Run("empty_kind", func(t *testing.T) {
		if !hasIssue(t, validateStorage(Storage{}, out), SeverityError, "storage.kind", "must not be empty") {
			t.Fatal("expected storage.kind error")
		}
	})
	t.Run("missing_dsn_and_table", func(t *testing.T) {
		issues := validateStorage(Storage{Kind: "postgres"}, out)
		if !hasIssue(t, issues, SeverityError, "storage.db.dsn", "must not be empty") {
			t.Fatalf("expected dsn error; got %+v", issues)
		}
		if !hasIssue(t, issues, SeverityError, "storage.db.table", "must not be empty") {
			t.Fatalf("expected table error; got %+v", issues)
		}
	})
	t.Run("mongo_needs_database", func(t *testing.T) {
		s := Storage{Kind: "mongo", DB: DBConfig{DSN: "mongodb://x", Table: "Employees"}}
		if !hasIssue(t, validateStorage(s, out), SeverityError, "storage.db.database", "database") {
			t.Fatal("expected database error")
		}
	})
	t.Run("column_not_produced", func(t *testing.T) {
		s := Storage{Kind: "sqlite", DB: DBConfig{DSN: ":memory:", Table: "employees", Columns: []string{"EmployeeID", "LastName"}}}
		if !hasIssue(t, validateStorage(s, out), SeverityError, "storage.db.columns[1]", "not produced") {
			t.Fatal("expected column error")
		}
	})
	t.Run("key_not_written", func(t *testing.T) {
		s := Storage{Kind: "sqlite", DB: DBConfig{DSN: ":memory:", Table: "employees", Columns: []string{"FullName"}, KeyColumns: []string{"EmployeeID"}}}
		if !hasIssue(t, validateStorage(s, out), SeverityError, "storage.db.key_columns[0]", "not written") {
			t.Fatal("expected key column error")
		}
	})
	t.Run("unknown_duplicate_policy", func(t *testing.T) {
		s := Storage{Kind: "sqlite", DB: DBConfig{DSN: ":memory:", Table: "employees", DuplicatePolicy: "keep-any"}}
		if !hasIssue(t, validateStorage(s, out), SeverityError, "storage.db.duplicate_policy", "unknown duplicate policy") {
			t.Fatal("expected duplicate policy error")
		}
	})
	t.Run("unknown_kind_warns", func(t *testing.T) {
		s := Storage{Kind: "oracle", DB: DBConfig{DSN: "x", Table: "t"}}
		if !hasIssue(t, validateStorage(s, out), SeverityWarning, "storage.kind", "unknown storage kind") {
			t.Fatal("expected unknown kind warning")
		}
	})
}

func TestValidateRuntimeMetricsLogging(t *testing.T) {
	if !hasIssue(t, validateRuntime(RuntimeConfig{LoaderWorkers: -1, BatchSize: 10}), SeverityError, "runtime.loader_workers", "negative") {
		t.Fatal("expected loader_workers error")
	}
	if !hasIssue(t, validateRuntime(RuntimeConfig{}), SeverityWarning, "runtime.batch_size", "one batch") {
		t.Fatal("expected batch_size warning")
	}
	if !hasIssue(t, validateRuntime(RuntimeConfig{BatchSize: 1, TimeoutSeconds: -5}), SeverityError, "runtime.timeout_seconds", "negative") {
		t.Fatal("expected timeout error")
	}
	if !hasIssue(t, validateMetrics(Metrics{Backend: "datadog"}), SeverityError, "metrics.datadog_addr", "requires") {
		t.Fatal("expected datadog error")
	}
	if !hasIssue(t, validateMetrics(Metrics{Backend: "pushgateway"}), SeverityWarning, "metrics.pushgateway_url", "assumed") {
		t.Fatal("expected pushgateway warning")
	}
	if !hasIssue(t, validateMetrics(Metrics{Backend: "graphite"}), SeverityWarning, "metrics.backend", "unknown") {
		t.Fatal("expected unknown backend warning")
	}
	if !hasIssue(t, validateLogging(Logging{Level: "loud"}), SeverityError, "logging.level", "unknown log level") {
		t.Fatal("expected log level error")
	}
	if issues := validateLogging(Logging{Level: "debug"}); len(issues) != 0 {
		t.Fatalf("debug level rejected: %+v", issues)
	}
}
