package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"hretl/internal/table"
)

// Persist writes every row of t to repo under columns, then finalizes the
// backend if it implements Finalizer.
func Persist(ctx context.Context, repo Repository, t *table.Table, columns []string, opt LoadOptions) (int64, error) {
	rows, err := Rows(t, columns)
	if err != nil {
		return 0, fmt.Errorf("persist: %w", err)
	}
	n, err := LoadBatches(ctx, columns, rows, opt, repo.CopyFrom)
	if err != nil {
		return n, fmt.Errorf("persist: %w", err)
	}
	if f, ok := repo.(Finalizer); ok {
		if err := f.Finalize(ctx); err != nil {
			return n, fmt.Errorf("persist: finalize: %w", err)
		}
	}
	if opt.Log != nil {
		opt.Log.Info("persisted rows", zap.Int64("rows", n), zap.Int("columns", len(columns)))
	}
	return n, nil
}
