package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"hretl/internal/config"
	"hretl/internal/ddl"
	"hretl/internal/table"
)

// memRepo records everything it is given.
type memRepo struct {
	mu        sync.Mutex
	rows      [][]any
	stmts     []string
	finalized bool
	closed    bool
}

func (m *memRepo) CopyFrom(_ context.Context, _ []string, rows [][]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rows...)
	return int64(len(rows)), nil
}

func (m *memRepo) Exec(_ context.Context, stmt string) error {
	m.stmts = append(m.stmts, stmt)
	return nil
}

func (m *memRepo) Finalize(context.Context) error {
	m.finalized = true
	return nil
}

func (m *memRepo) Close() { m.closed = true }

func TestRegisterAndNew(t *testing.T) {
	t.Parallel()

	var got Config
	Register("mem-new", func(_ context.Context, cfg Config) (Repository, error) {
		got = cfg
		return &memRepo{}, nil
	})

	repo, err := New(context.Background(), Config{Kind: "mem-new", Table: "Employees"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if repo == nil {
		t.Fatal("New returned nil repo")
	}
	if got.Table != "Employees" {
		t.Fatalf("factory saw table %q, want Employees", got.Table)
	}

	found := false
	for _, k := range ListKinds() {
		if k == "mem-new" {
			found = true
		}
	}
	if !found {
		t.Fatalf("mem-new not in ListKinds: %v", ListKinds())
	}
}

func TestNew_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Kind: "does-not-exist"})
	if err == nil {
		t.Fatal("expected error for unsupported kind")
	}
	if got, want := err.Error(), "unsupported storage.kind=does-not-exist"; got != want {
		t.Fatalf("error = %q, want %q", got, want)
	}
}

func TestNew_FactoryError(t *testing.T) {
	t.Parallel()

	want := errors.New("boom")
	Register("mem-err", func(context.Context, Config) (Repository, error) { return nil, want })

	if _, err := New(context.Background(), Config{Kind: "mem-err"}); !errors.Is(err, want) {
		t.Fatalf("want %v, got %v", want, err)
	}
}

func TestConfigFrom(t *testing.T) {
	t.Parallel()

	s := config.Storage{Kind: "mongo", DB: config.DBConfig{
		DSN: "mongodb://db:27017", Database: "EmployeeManagement", Table: "Employees",
		KeyColumns: []string{"EmployeeID"},
	}}
	cfg := ConfigFrom(s, []string{"EmployeeID", "FullName"})
	if cfg.Kind != "mongo" || cfg.Database != "EmployeeManagement" || cfg.Table != "Employees" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if strings.Join(cfg.Columns, ",") != "EmployeeID,FullName" {
		t.Fatalf("columns = %v, want the fallback columns", cfg.Columns)
	}

	s.DB.Columns = []string{"EmployeeID"}
	if cfg := ConfigFrom(s, []string{"x"}); len(cfg.Columns) != 1 || cfg.Columns[0] != "EmployeeID" {
		t.Fatalf("explicit columns not kept: %v", cfg.Columns)
	}
}

func TestEnsureTable(t *testing.T) {
	t.Parallel()

	RegisterDDL("mem-ddl", func(ctx context.Context, repo Repository, def ddl.TableDef) error {
		return repo.Exec(ctx, "CREATE "+def.FQN)
	})
	repo := &memRepo{}
	if err := EnsureTable(context.Background(), "mem-ddl", repo, ddl.TableDef{FQN: "Employees"}); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if len(repo.stmts) != 1 || repo.stmts[0] != "CREATE Employees" {
		t.Fatalf("stmts = %v", repo.stmts)
	}

	if err := EnsureTable(context.Background(), "mem-missing", repo, ddl.TableDef{}); err == nil {
		t.Fatal("expected error for kind without bootstrapper")
	}
}

func TestPersist(t *testing.T) {
	t.Parallel()

	b := table.NewBuilder([]string{"EmployeeID", "FullName", "Age", "Salary"})
	if err := b.Add(0, table.Text("E001"), table.Text("Alice Smith"), table.Int(32), table.Number(50000)); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(1, table.Text("E002"), table.Null(), table.Int(34), table.Number(100000)); err != nil {
		t.Fatal(err)
	}
	repo := &memRepo{}

	n, err := Persist(context.Background(), repo, b.Table(), []string{"EmployeeID", "Age", "FullName"}, LoadOptions{BatchSize: 1})
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted %d, want 2", n)
	}
	if !repo.finalized {
		t.Fatal("Finalize was not called")
	}
	if repo.rows[0][0] != "E001" || repo.rows[0][1] != 32 || repo.rows[1][2] != nil {
		t.Fatalf("unexpected rows: %v", repo.rows)
	}

	if _, err := Persist(context.Background(), repo, b.Table(), []string{"Nope"}, LoadOptions{}); !errors.Is(err, table.ErrMissingColumn) {
		t.Fatalf("want ErrMissingColumn, got %v", err)
	}
}
