package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"hretl/internal/config"
	"hretl/internal/storage"
	"hretl/internal/transformer/builtin"
)

const exportCSV = `EmployeeID, FirstName ,LastName,BirthDate,Department,Salary
E001,12@Alice,Smith,1990-06-1.2,Finance,50000
E002,Bob,Taylor  ,1988-01-03,HR,100000
E003,  Charlie,Cooper23_3,1995-07-15@1,IT,47000
E004,X Smith,1990-06-12,Finance,55000,
E005,Dana,Lee,not a date,Ops,abc
`

// stubSource replaces openSourceFn with an in-memory export.
func stubSource(t *testing.T, body string) {
	t.Helper()
	orig := openSourceFn
	openSourceFn = func(ctx context.Context, _ config.Source, _ *zap.Logger) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(body)), ctx.Err()
	}
	t.Cleanup(func() { openSourceFn = orig })
}

// memRepo records CopyFrom calls.
type memRepo struct {
	mu        sync.Mutex
	columns   []string
	rows      [][]any
	execs     []string
	finalized bool
	closed    bool
}

func (m *memRepo) CopyFrom(_ context.Context, columns []string, rows [][]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.columns = columns
	m.rows = append(m.rows, rows...)
	return int64(len(rows)), nil
}

func (m *memRepo) Exec(_ context.Context, stmt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execs = append(m.execs, stmt)
	return nil
}

func (m *memRepo) Finalize(context.Context) error { m.finalized = true; return nil }
func (m *memRepo) Close()                         { m.closed = true }

func stubRepo(t *testing.T, repo storage.Repository, gotCfg *storage.Config) {
	t.Helper()
	orig := newRepositoryFn
	newRepositoryFn = func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		if gotCfg != nil {
			*gotCfg = cfg
		}
		return repo, nil
	}
	t.Cleanup(func() { newRepositoryFn = orig })
}

func testPipeline() config.Pipeline {
	p := config.Default()
	p.Source.File.Path = "employees.csv"
	return p
}

func TestExecute_DryRun(t *testing.T) {
	stubSource(t, exportCSV)
	orig := newRepositoryFn
	newRepositoryFn = func(context.Context, storage.Config) (storage.Repository, error) {
		t.Fatal("dry run must not open storage")
		return nil, nil
	}
	t.Cleanup(func() { newRepositoryFn = orig })

	p := testPipeline()
	p.Storage.Kind = "mongo"
	out, sum, err := execute(context.Background(), p, zap.NewNop(), "run-1", false)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultOutputColumns, out.Columns())
	assert.Equal(t, []string{"E001", "E002", "E003", "E004"}, out.Strings("EmployeeID"))
	assert.Equal(t, []string{"Alice Smith", "Bob Taylor", "Charlie Cooper", "Smith X"}, out.Strings("FullName"))
	assert.Equal(t, []string{"B", "C", "A", "B"}, out.Strings("SalaryBucket"))

	assert.Equal(t, "run-1", sum.RunID)
	assert.Equal(t, 5, sum.RowsRead)
	assert.Equal(t, 4, sum.RowsOut)
	assert.Zero(t, sum.Persisted)
	assert.Equal(t, map[string]int{builtin.ReasonInvalidBirthDate: 1}, sum.Rejects)
	assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 1}, sum.Buckets)
	assert.Equal(t, out.Fingerprint(), sum.Fingerprint)
}

func TestExecute_PersistsWithFinalize(t *testing.T) {
	stubSource(t, exportCSV)
	repo := &memRepo{}
	var cfg storage.Config
	stubRepo(t, repo, &cfg)

	p := testPipeline()
	p.Storage = config.Storage{Kind: "mongo", DB: config.DBConfig{
		DSN: "mongodb://localhost:27017", Database: "EmployeeManagement", Table: "Employees",
		KeyColumns: []string{"EmployeeID"}, AutoCreateTable: true,
	}}
	p.Runtime.BatchSize = 2

	_, sum, err := execute(context.Background(), p, zap.NewNop(), "run-2", true)
	require.NoError(t, err)

	assert.Equal(t, int64(4), sum.Persisted)
	assert.Equal(t, "Employees", cfg.Table)
	assert.Equal(t, config.DefaultOutputColumns, cfg.Columns)
	assert.Equal(t, config.DefaultOutputColumns, repo.columns)
	assert.Len(t, repo.rows, 4)
	assert.Equal(t, []string{`{"create": "Employees"}`}, repo.execs)
	assert.True(t, repo.finalized)
	assert.True(t, repo.closed)
}

func TestExecute_DuplicateKeysFailBeforeWrite(t *testing.T) {
	stubSource(t, exportCSV+"E001,Eve,Stone,1970-01-01,Ops,10\n")
	newRepoCalled := false
	orig := newRepositoryFn
	newRepositoryFn = func(context.Context, storage.Config) (storage.Repository, error) {
		newRepoCalled = true
		return &memRepo{}, nil
	}
	t.Cleanup(func() { newRepositoryFn = orig })

	core, logs := observer.New(zapcore.WarnLevel)
	p := testPipeline()
	p.Storage = config.Storage{Kind: "sqlite", DB: config.DBConfig{
		DSN: "x.db", Table: "Employees", KeyColumns: []string{"EmployeeID"},
	}}

	_, _, err := execute(context.Background(), p, zap.New(core), "run-3", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, builtin.ErrDuplicateKey), "err = %v", err)
	assert.False(t, newRepoCalled)
	assert.Equal(t, 1, logs.FilterMessage("duplicate keys in output").Len())
}

func TestExecute_WritesRejectsReport(t *testing.T) {
	stubSource(t, exportCSV)
	path := filepath.Join(t.TempDir(), "report", "rejects.csv")

	p := testPipeline()
	p.Report.RejectsPath = path
	_, _, err := execute(context.Background(), p, zap.NewNop(), "run-4", false)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "reason,index,employee_id,raw", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], builtin.ReasonInvalidBirthDate+",4,E005,"), lines[1])
}

func TestExecute_Errors(t *testing.T) {
	t.Run("source", func(t *testing.T) {
		orig := openSourceFn
		openSourceFn = func(context.Context, config.Source, *zap.Logger) (io.ReadCloser, error) {
			return nil, os.ErrNotExist
		}
		t.Cleanup(func() { openSourceFn = orig })

		_, _, err := execute(context.Background(), testPipeline(), zap.NewNop(), "r", false)
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("parser kind", func(t *testing.T) {
		p := testPipeline()
		p.Parser.Kind = "xml"
		_, _, err := execute(context.Background(), p, zap.NewNop(), "r", false)
		require.ErrorContains(t, err, "unsupported parser.kind=xml")
	})

	t.Run("missing column", func(t *testing.T) {
		stubSource(t, "EmployeeID,FirstName\nE001,Ann\n")
		_, _, err := execute(context.Background(), testPipeline(), zap.NewNop(), "r", false)
		require.Error(t, err)
	})

	t.Run("storage open", func(t *testing.T) {
		stubSource(t, exportCSV)
		orig := newRepositoryFn
		newRepositoryFn = func(context.Context, storage.Config) (storage.Repository, error) {
			return nil, errors.New("connection refused")
		}
		t.Cleanup(func() { newRepositoryFn = orig })

		p := testPipeline()
		p.Storage = config.Storage{Kind: "postgres", DB: config.DBConfig{DSN: "postgres://x", Table: "Employees"}}
		_, _, err := execute(context.Background(), p, zap.NewNop(), "r", true)
		require.ErrorContains(t, err, "open storage: connection refused")
	})
}

func TestRunSummaryFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sum := runSummary{
		RunID:    "abc",
		RowsRead: 5,
		RowsOut:  4,
		Rejects:  map[string]int{builtin.ReasonSalaryNotNumeric: 2, builtin.ReasonInvalidBirthDate: 1},
	}
	zap.New(core).Info("run summary", sum.fields()...)

	entry := logs.All()[0]
	ctx := entry.ContextMap()
	assert.Equal(t, "abc", ctx["run_id"])
	assert.Equal(t, int64(5), ctx["rows_in"])
	assert.Equal(t, map[string]any{
		builtin.ReasonInvalidBirthDate: int64(1),
		builtin.ReasonSalaryNotNumeric: int64(2),
	}, ctx["rejects"])
}

func TestBatches(t *testing.T) {
	cases := []struct{ rows, size, want int }{
		{0, 10, 0}, {1, 10, 1}, {10, 10, 1}, {11, 10, 2}, {5, 0, 1},
	}
	for _, c := range cases {
		assert.Equal(t, int64(c.want), batches(c.rows, c.size), "batches(%d,%d)", c.rows, c.size)
	}
}

func TestExecute_DuplicatePolicyKeepsOneRow(t *testing.T) {
	stubSource(t, exportCSV+"E001,Eve,Stone,1970-01-01,Ops,10\n")
	repo := &memRepo{}
	stubRepo(t, repo, nil)

	p := testPipeline()
	p.Storage = config.Storage{Kind: "sqlite", DB: config.DBConfig{
		DSN: "x.db", Table: "Employees", KeyColumns: []string{"EmployeeID"},
		DuplicatePolicy: builtin.PolicyKeepLast,
	}}

	out, sum, err := execute(context.Background(), p, zap.NewNop(), "run-5", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"E002", "E003", "E004", "E001"}, out.Strings("EmployeeID"))
	assert.Equal(t, "Eve Stone", out.Row(3).Get("FullName").String())
	assert.Equal(t, int64(4), sum.Persisted)
	assert.Equal(t, 1, sum.Rejects[builtin.ReasonDuplicateKey])
}
