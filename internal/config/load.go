package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values for the cleaning stages and the Mongo sink.
const (
	DefaultReferenceDate = "2023-01-01"
	DefaultDatePattern   = `^\d{4}-\d{2}-\d{2}`
	DefaultDatabase      = "EmployeeManagement"
	DefaultCollection    = "Employees"
	DefaultKeyColumn     = "EmployeeID"
)

// DefaultOutputColumns is the projection of the final table.
var DefaultOutputColumns = []string{
	"EmployeeID", "FullName", "BirthDate", "Department", "Salary", "Age", "SalaryBucket",
}

// DefaultCleaning returns the cleaning parameters used when a pipeline file
// leaves them unset.
func DefaultCleaning() Cleaning {
	return Cleaning{
		ReferenceDate: DefaultReferenceDate,
		DatePattern:   DefaultDatePattern,
		SalaryEdges:   []Edge{0, 50000, 100000, Edge(math.Inf(1))},
		SalaryLabels:  []string{"A", "B", "C"},
		OutputColumns: append([]string(nil), DefaultOutputColumns...),
	}
}

// Default returns a pipeline with every optional field populated.
func Default() Pipeline {
	return Pipeline{
		Job:       "employees",
		Source:    Source{Kind: "file"},
		Parser:    Parser{Kind: "csv", Options: Options{}},
		Transform: DefaultCleaning(),
		Storage:   Storage{Kind: "none"},
		Runtime:   RuntimeConfig{LoaderWorkers: 1, BatchSize: 1000},
		Metrics:   Metrics{Backend: "none"},
		Logging:   Logging{Level: "info"},
	}
}

// Load reads a pipeline file. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON. Unknown JSON fields are rejected. Defaults
// fill unset fields and environment overrides are applied last.
func Load(path string) (Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config: %w", err)
	}
	p, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return Pipeline{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	p.applyEnvOverrides()
	p.fillDefaults()
	return p, nil
}

// Parse decodes a pipeline from data. ext selects the format as in Load.
func Parse(data []byte, ext string) (Pipeline, error) {
	p := Default()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Pipeline{}, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, err
		}
	}
	p.fillDefaults()
	return p, nil
}

// fillDefaults restores defaults for fields a file explicitly blanked and
// supplies the Mongo names used when none are configured.
func (p *Pipeline) fillDefaults() {
	d := DefaultCleaning()
	c := &p.Transform
	if c.ReferenceDate == "" {
		c.ReferenceDate = d.ReferenceDate
	}
	if c.DatePattern == "" {
		c.DatePattern = d.DatePattern
	}
	if len(c.SalaryEdges) == 0 && len(c.SalaryLabels) == 0 {
		c.SalaryEdges, c.SalaryLabels = d.SalaryEdges, d.SalaryLabels
	}
	if len(c.OutputColumns) == 0 {
		c.OutputColumns = d.OutputColumns
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
	if p.Storage.Kind == "mongo" {
		if p.Storage.DB.Database == "" {
			p.Storage.DB.Database = DefaultDatabase
		}
		if p.Storage.DB.Table == "" {
			p.Storage.DB.Table = DefaultCollection
		}
	}
	if p.Storage.Kind != "none" && len(p.Storage.DB.KeyColumns) == 0 {
		p.Storage.DB.KeyColumns = []string{DefaultKeyColumn}
	}
}

// applyEnvOverrides applies environment variable overrides.
func (p *Pipeline) applyEnvOverrides() {
	if kind := os.Getenv("ETL_STORAGE_KIND"); kind != "" {
		p.Storage.Kind = kind
	}
	if dsn := os.Getenv("ETL_STORAGE_DSN"); dsn != "" {
		p.Storage.DB.DSN = dsn
	}
	if ref := os.Getenv("ETL_REFERENCE_DATE"); ref != "" {
		p.Transform.ReferenceDate = ref
	}
	if b := os.Getenv("METRICS_BACKEND"); b != "" {
		p.Metrics.Backend = b
	}
	if u := os.Getenv("PUSHGATEWAY_URL"); u != "" {
		p.Metrics.PushgatewayURL = u
	}
}
