package main

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hretl/internal/config"
	"hretl/internal/metrics"
	"hretl/internal/metrics/datadog"
	"hretl/internal/metrics/prompush"
)

const defaultPushgatewayURL = "http://localhost:9091"

// newLoggerFn is a test seam for the process logger.
var newLoggerFn = newLogger

// newLogger builds a JSON production logger. verbose forces debug level;
// otherwise the configured level applies. A configured file receives every
// line in addition to stderr.
func newLogger(l config.Logging, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl := zapcore.InfoLevel
	if l.Level != "" {
		parsed, err := zapcore.ParseLevel(l.Level)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if l.File != "" {
		if err := os.MkdirAll(filepath.Dir(l.File), 0o755); err != nil {
			return nil, err
		}
		cfg.OutputPaths = append(cfg.OutputPaths, l.File)
	}
	return cfg.Build()
}

// setupMetrics installs the backend picked by flag, then config (which
// already carries env overrides). It returns the flush to run at exit. A
// backend that fails to initialise leaves the no-op backend in place.
func setupMetrics(p config.Pipeline, o *rootOptions, log *zap.Logger) func() {
	name := o.metricsBackend
	if name == "" {
		name = p.Metrics.Backend
	}

	var (
		b   metrics.Backend
		err error
	)
	switch name {
	case "pushgateway":
		url := o.pushgatewayURL
		if url == "" {
			url = p.Metrics.PushgatewayURL
		}
		if url == "" {
			url = defaultPushgatewayURL
		}
		b, err = prompush.NewBackend(p.Job, url)
		log.Info("metrics: pushgateway", zap.String("url", url))
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.DatadogAddr,
			GlobalTags: []string{"job:" + p.Job},
		})
		log.Info("metrics: datadog", zap.String("addr", p.Metrics.DatadogAddr))
	case "", "none":
		log.Debug("metrics: disabled")
		return func() {}
	default:
		log.Warn("metrics: unknown backend; metrics disabled", zap.String("backend", name))
		return func() {}
	}
	if err != nil {
		log.Warn("metrics: backend init failed; using nop", zap.String("backend", name), zap.Error(err))
		return func() {}
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics: flush failed", zap.Error(err))
		}
	}
}
