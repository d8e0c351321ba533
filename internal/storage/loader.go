package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"hretl/internal/table"
)

// CopyFn is a backend's bulk insert. It must be safe for concurrent calls
// when LoadBatches runs more than one worker.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadOptions tunes LoadBatches.
type LoadOptions struct {
	BatchSize int // rows per CopyFn call; <= 0 means 1000
	Workers   int // concurrent CopyFn calls; <= 0 means 1
	Log       *zap.Logger
}

// Rows converts the cells of t under columns to driver values: Null is nil,
// Text is string, Number is float64, Int is int and Date is time.Time.
func Rows(t *table.Table, columns []string) ([][]any, error) {
	sel, err := t.Select(columns...)
	if err != nil {
		return nil, err
	}
	out := make([][]any, 0, sel.Len())
	for _, r := range sel.Rows() {
		vals := r.Values()
		row := make([]any, len(vals))
		for i, v := range vals {
			row[i] = v.Any()
		}
		out = append(out, row)
	}
	return out, nil
}

// LoadBatches splits rows into batches and hands each one to copyFn, with
// at most opt.Workers calls in flight. It returns the number of rows copyFn
// reported and the first error. Batches not yet started when an error
// occurs are skipped.
func LoadBatches(ctx context.Context, columns []string, rows [][]any, opt LoadOptions, copyFn CopyFn) (int64, error) {
	if copyFn == nil {
		return 0, errors.New("copyFn must not be nil")
	}
	size := opt.BatchSize
	if size <= 0 {
		size = 1000
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = 1
	}
	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}

	var (
		mu      sync.Mutex
		total   int64
		batches int
		start   = time.Now()
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(rows); lo += size {
		hi := min(lo+size, len(rows))
		batch := rows[lo:hi]
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t0 := time.Now()
			n, err := copyFn(gctx, columns, batch)

			mu.Lock()
			total += n
			batches++
			seq, sum := batches, total
			mu.Unlock()

			if err != nil {
				log.Error("batch insert failed", zap.Int("batch", seq), zap.Int64("inserted", n), zap.Error(err))
				return fmt.Errorf("batch at row %d: %w", lo, err)
			}
			took := time.Since(t0)
			rps := 0.0
			if took > 0 {
				rps = float64(n) / took.Seconds()
			}
			log.Info("batch inserted",
				zap.Int("batch", seq),
				zap.Int64("inserted", n),
				zap.Int64("total_inserted", sum),
				zap.Float64("rps", rps),
				zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return total, err
}
