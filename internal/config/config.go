// Package config defines the configuration model for the employee cleaning
// job. A pipeline file is JSON or YAML and mirrors the Pipeline struct graph.
//
// Example (trimmed):
//
//	{
//	  "job":       "employees",
//	  "source":    { "kind": "file", "file": { "path": "data/employees.csv" } },
//	  "parser":    { "kind": "csv", "options": { "has_header": true } },
//	  "transform": { "reference_date": "2023-01-01", "salary_edges": [0, 50000, 100000, "+inf"] },
//	  "storage":   { "kind": "mongo", "db": { "dsn": "mongodb://localhost:27017", "table": "Employees" } }
//	}
package config

import "encoding/json"

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `json:"job" yaml:"job"`

	Source Source `json:"source" yaml:"source"`
	Parser Parser `json:"parser" yaml:"parser"`

	// Transform holds the cleaning parameters. The stage order is fixed; only
	// the parameters are configurable.
	Transform Cleaning `json:"transform" yaml:"transform"`

	Storage Storage       `json:"storage" yaml:"storage"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
	Metrics Metrics       `json:"metrics" yaml:"metrics"`
	Logging Logging       `json:"logging" yaml:"logging"`
	Report  Report        `json:"report" yaml:"report"`
}

// RuntimeConfig controls batching and parallelism of the load step.
type RuntimeConfig struct {
	LoaderWorkers int `json:"loader_workers" yaml:"loader_workers"`
	BatchSize     int `json:"batch_size" yaml:"batch_size"`

	// TimeoutSeconds bounds connect and load; 0 means no deadline.
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string     `json:"kind" yaml:"kind"`
	File SourceFile `json:"file" yaml:"file"`
	HTTP SourceHTTP `json:"http" yaml:"http"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL            string            `json:"url" yaml:"url"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int               `json:"max_retries" yaml:"max_retries"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path" yaml:"path"`
}

// Parser selects how to parse the raw source into rows and columns.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind" yaml:"kind"`

	// Options is interpreted by the parser. For CSV:
	//   has_header (bool), comma (string), lazy_quotes (bool)
	Options Options `json:"options" yaml:"options"`
}

// Cleaning parameterises the cleaning and transform stages.
type Cleaning struct {
	// ReferenceDate is the "today" used for Age, as YYYY-MM-DD.
	ReferenceDate string `json:"reference_date" yaml:"reference_date"`

	// DatePattern is the regular expression a shifted BirthDate candidate must
	// match during misalignment repair.
	DatePattern string `json:"date_pattern" yaml:"date_pattern"`

	// SalaryEdges are the ascending bin edges; bin i is [edge[i], edge[i+1]).
	SalaryEdges []Edge `json:"salary_edges" yaml:"salary_edges"`

	// SalaryLabels name the bins; len(SalaryLabels) == len(SalaryEdges)-1.
	SalaryLabels []string `json:"salary_labels" yaml:"salary_labels"`

	// OutputColumns is the projection applied to the final table.
	OutputColumns []string `json:"output_columns" yaml:"output_columns"`
}

// Storage selects the sink used to persist transformed records.
type Storage struct {
	// Kind selects the backend: "mongo", "postgres", "mysql", "mssql" or
	// "sqlite". "none" skips persistence.
	Kind string   `json:"kind" yaml:"kind"`
	DB   DBConfig `json:"db" yaml:"db"`
}

// DBConfig configures the sink.
type DBConfig struct {
	// DSN is the connection string (a mongodb:// URI for Mongo).
	DSN string `json:"dsn" yaml:"dsn"`

	// Database names the MongoDB database. SQL backends take it from the DSN.
	Database string `json:"database" yaml:"database"`

	// Table is the destination table, or the collection for Mongo.
	Table string `json:"table" yaml:"table"`

	// Columns enumerates the destination columns in write order. Empty means
	// the output columns of the transform.
	Columns []string `json:"columns" yaml:"columns"`

	// KeyColumns identify a record. They get a unique index (Mongo) or the
	// primary key (SQL, when the table is created by the job).
	KeyColumns []string `json:"key_columns" yaml:"key_columns"`

	// AutoCreateTable creates the SQL table when it does not exist.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table"`

	// DuplicatePolicy decides what happens when KeyColumns repeat in the
	// output: "fail" (default) stops before writing; "keep-first",
	// "keep-last" and "most-complete" keep one row per key and report the
	// others as rejected.
	DuplicatePolicy string `json:"duplicate_policy" yaml:"duplicate_policy"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "pushgateway" or "datadog".
	Backend        string `json:"backend" yaml:"backend"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr" yaml:"datadog_addr"`
}

// Logging controls the process logger.
type Logging struct {
	// Level is a zap level name; empty means info.
	Level string `json:"level" yaml:"level"`
	// File, when set, receives a copy of every log line.
	File string `json:"file" yaml:"file"`
}

// Report configures the rejected-row report.
type Report struct {
	// RejectsPath, when set, is a CSV file listing every rejected row.
	RejectsPath string `json:"rejects_path" yaml:"rejects_path"`
}

// Options is a small helper to fetch typed values from a decoded map. It
// performs minimal coercion and returns the default when a key is absent or
// of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64
// and YAML integers as int; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// UnmarshalJSON decodes a missing or null object to an empty, non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
