// Package storage holds the backend-agnostic persistence contract and the
// batched loader. Backends register themselves from init; importing
// hretl/internal/storage/all enables every built-in one.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hretl/internal/config"
)

// Config is the backend-neutral connection and target description.
type Config struct {
	Kind       string
	DSN        string
	Database   string // Mongo only
	Table      string // table, or collection for Mongo
	Columns    []string
	KeyColumns []string
}

// ConfigFrom builds a Config from the storage section of a pipeline file.
// When the file lists no columns, columns are used.
func ConfigFrom(s config.Storage, columns []string) Config {
	cols := s.DB.Columns
	if len(cols) == 0 {
		cols = columns
	}
	return Config{
		Kind:       s.Kind,
		DSN:        s.DB.DSN,
		Database:   s.DB.Database,
		Table:      s.DB.Table,
		Columns:    append([]string(nil), cols...),
		KeyColumns: append([]string(nil), s.DB.KeyColumns...),
	}
}

// Repository is what the loader needs from a backend.
type Repository interface {
	// CopyFrom inserts rows aligned to columns and returns how many were
	// written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs one backend statement, typically DDL.
	Exec(ctx context.Context, stmt string) error
	Close()
}

// Finalizer is implemented by backends that have work to do once every
// batch is written, such as building a unique index.
type Finalizer interface {
	Finalize(ctx context.Context) error
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
