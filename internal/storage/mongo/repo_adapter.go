package mongo

import (
	"context"
	"fmt"
	"strings"

	"hretl/internal/ddl"
	"hretl/internal/storage"
)

// newRepository is a test hook.
var newRepository = NewRepository

type wrappedRepo struct {
	*Repository
	closeFn func()
}

var (
	_ storage.Repository = (*wrappedRepo)(nil)
	_ storage.Finalizer  = (*wrappedRepo)(nil)
)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("mongo", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			URI:        cfg.DSN,
			Database:   cfg.Database,
			Collection: cfg.Table,
			KeyColumns: cfg.KeyColumns,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	// Collections are created on first insert; the bootstrapper only
	// creates it up front so the run fails early on permission problems.
	storage.RegisterDDL("mongo", func(ctx context.Context, repo storage.Repository, def ddl.TableDef) error {
		name := def.FQN
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		err := repo.Exec(ctx, fmt.Sprintf(`{"create": %q}`, name))
		if err != nil && strings.Contains(err.Error(), "NamespaceExists") {
			return nil
		}
		return err
	})
}
