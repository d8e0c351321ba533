// Package main wires the employee cleaning job end to end: read the export,
// run the cleaning and transform stages, report rejected rows and load the
// result into the configured store. This file keeps the CLI layer thin: it
// depends only on storage-agnostic interfaces and never imports database
// drivers directly.
package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"hretl/internal/config"
	"hretl/internal/datasource"
	"hretl/internal/ddl"
	"hretl/internal/metrics"
	csvparser "hretl/internal/parser/csv"
	"hretl/internal/pipeline"
	"hretl/internal/skiplog"
	"hretl/internal/storage"
	"hretl/internal/table"
	"hretl/internal/transformer/builtin"
)

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	newRepositoryFn = storage.New

	openSourceFn = func(ctx context.Context, cfg config.Source, log *zap.Logger) (io.ReadCloser, error) {
		src, err := datasource.New(cfg, log)
		if err != nil {
			return nil, err
		}
		return src.Open(ctx)
	}

	nowFn = time.Now
)

// runSummary is what one run reports at the end.
type runSummary struct {
	RunID       string
	Job         string
	RowsRead    int
	RowsSkipped int // unreadable or over-long CSV lines
	RowsOut     int
	Persisted   int64
	Rejects     map[string]int
	Buckets     map[string]int
	Fingerprint uint64
	Duration    time.Duration
}

func (s runSummary) fields() []zap.Field {
	reasons := make([]string, 0, len(s.Rejects))
	for r := range s.Rejects {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	rejects := make([]zap.Field, 0, len(reasons))
	for _, r := range reasons {
		rejects = append(rejects, zap.Int(r, s.Rejects[r]))
	}
	return []zap.Field{
		zap.String("run_id", s.RunID),
		zap.Int("rows_in", s.RowsRead),
		zap.Int("rows_skipped", s.RowsSkipped),
		zap.Int("rows_out", s.RowsOut),
		zap.Int64("rows_persisted", s.Persisted),
		zap.Dict("rejects", rejects...),
		zap.Any("buckets", s.Buckets),
		zap.String("fingerprint", fmt.Sprintf("%016x", s.Fingerprint)),
		zap.Duration("duration", s.Duration),
	}
}

// execute runs one job. With persist false it stops after the transform,
// which is what the clean command uses for a dry run.
func execute(ctx context.Context, p config.Pipeline, log *zap.Logger, runID string, persist bool) (out *table.Table, sum runSummary, err error) {
	start := nowFn()
	sum = runSummary{RunID: runID, Job: p.Job}
	defer func() {
		sum.Duration = nowFn().Sub(start)
		metrics.RecordRun(p.Job, err, sum.Duration)
	}()

	if p.Runtime.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.Runtime.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	in, skipped, err := readSource(ctx, p, log)
	if err != nil {
		return nil, sum, err
	}
	sum.RowsRead, sum.RowsSkipped = in.Len(), skipped
	metrics.RecordRows(p.Job, "read", int64(in.Len()))
	metrics.RecordRows(p.Job, "skipped", int64(skipped))

	ledger, err := openLedger(p.Report)
	if err != nil {
		return nil, sum, err
	}
	defer func() {
		if cerr := ledger.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close rejects report: %w", cerr)
		}
	}()

	out, err = transform(in, p, ledger, log)
	if err == nil && persist && persisting(p.Storage) {
		out, err = resolveDuplicates(out, p.Storage.DB, ledger, log)
	}
	sum.Rejects = ledger.Counts()
	for reason, n := range sum.Rejects {
		metrics.RecordRejects(p.Job, reason, int64(n))
	}
	if err != nil {
		return nil, sum, err
	}

	sum.RowsOut = out.Len()
	sum.Fingerprint = out.Fingerprint()
	sum.Buckets = bucketCounts(out)
	metrics.RecordRows(p.Job, "output", int64(out.Len()))
	for b, n := range sum.Buckets {
		metrics.RecordBucket(p.Job, b, int64(n))
	}

	if !persist || !persisting(p.Storage) {
		return out, sum, nil
	}
	sum.Persisted, err = persistTable(ctx, p, out, log)
	if err != nil {
		return out, sum, err
	}
	metrics.RecordRows(p.Job, "persisted", sum.Persisted)
	return out, sum, nil
}

// readSource opens the configured export and parses it into a table.
func readSource(ctx context.Context, p config.Pipeline, log *zap.Logger) (*table.Table, int, error) {
	if p.Parser.Kind != "" && p.Parser.Kind != "csv" {
		return nil, 0, fmt.Errorf("unsupported parser.kind=%s", p.Parser.Kind)
	}
	rc, err := openSourceFn(ctx, p.Source, log)
	if err != nil {
		return nil, 0, fmt.Errorf("open source: %w", err)
	}
	defer rc.Close()

	t, skipped, err := csvparser.NewParser(csvparser.OptionsFrom(p.Parser.Options), log).Parse(rc)
	if err != nil {
		return nil, 0, fmt.Errorf("parse source: %w", err)
	}
	log.Info("source parsed", zap.Int("rows", t.Len()), zap.Int("skipped", skipped), zap.Strings("columns", t.Columns()))
	return t, skipped, nil
}

func openLedger(r config.Report) (*skiplog.Ledger, error) {
	if r.RejectsPath == "" {
		return skiplog.New(), nil
	}
	return skiplog.Create(r.RejectsPath)
}

// transform runs the cleaning and transform stages, timing each one into
// the step metrics.
func transform(in *table.Table, p config.Pipeline, ledger *skiplog.Ledger, log *zap.Logger) (*table.Table, error) {
	opts, err := pipeline.OptionsFrom(p.Transform)
	if err != nil {
		return nil, err
	}
	opts.Log = log
	opts.Rejecter = ledger

	last := nowFn()
	opts.After = func(step string, before, out *table.Table, err error) {
		now := nowFn()
		metrics.RecordStep(p.Job, step, err, now.Sub(last))
		last = now
		if out != nil && before.Len() != out.Len() {
			log.Debug("step changed row count", zap.String("step", step),
				zap.Int("before", before.Len()), zap.Int("after", out.Len()))
		}
	}
	return pipeline.Transform(in, opts)
}

func bucketCounts(t *table.Table) map[string]int {
	if !t.Has(builtin.BucketColumn) {
		return nil
	}
	out := make(map[string]int)
	for _, v := range t.Column(builtin.BucketColumn) {
		if s, ok := v.Text(); ok {
			out[s]++
		}
	}
	return out
}

// resolveDuplicates applies the configured duplicate policy to the key
// columns. With the default "fail" policy a repeated single-column key
// stops the run before the first write; composite keys are left to the
// store's constraint.
func resolveDuplicates(out *table.Table, db config.DBConfig, ledger *skiplog.Ledger, log *zap.Logger) (*table.Table, error) {
	switch db.DuplicatePolicy {
	case "", builtin.PolicyFail:
		if len(db.KeyColumns) != 1 {
			return out, nil
		}
		if _, err := (builtin.UniqueKey{Column: db.KeyColumns[0], Log: log}).Apply(out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return builtin.DeDup{
			Keys:     db.KeyColumns,
			Policy:   db.DuplicatePolicy,
			Log:      log,
			Rejecter: ledger,
		}.Apply(out)
	}
}

// persistTable loads out into the configured store.
func persistTable(ctx context.Context, p config.Pipeline, out *table.Table, log *zap.Logger) (int64, error) {
	cfg := storage.ConfigFrom(p.Storage, out.Columns())

	log.Info("connecting to storage", zap.String("kind", cfg.Kind), zap.String("table", cfg.Table))
	repo, err := newRepositoryFn(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("open storage: %w", err)
	}
	defer repo.Close()

	if p.Storage.DB.AutoCreateTable {
		d, ok := ddl.DialectFor(cfg.Kind)
		if !ok {
			return 0, fmt.Errorf("auto_create_table: no dialect for storage.kind=%s", cfg.Kind)
		}
		def, err := ddl.Infer(out, cfg.Table, cfg.Columns, cfg.KeyColumns, d)
		if err != nil {
			return 0, fmt.Errorf("infer table: %w", err)
		}
		if err := storage.EnsureTable(ctx, cfg.Kind, repo, def); err != nil {
			return 0, fmt.Errorf("apply DDL: %w", err)
		}
	}

	opt := storage.LoadOptions{
		BatchSize: p.Runtime.BatchSize,
		Workers:   p.Runtime.LoaderWorkers,
		Log:       log,
	}
	n, err := storage.Persist(ctx, repo, out, cfg.Columns, opt)
	if err != nil {
		return n, err
	}
	metrics.RecordBatches(p.Job, batches(out.Len(), opt.BatchSize))
	return n, nil
}

func persisting(s config.Storage) bool {
	return s.Kind != "" && s.Kind != "none"
}

func batches(rows, size int) int64 {
	if size <= 0 {
		size = 1000
	}
	return int64((rows + size - 1) / size)
}
