// Package datasource resolves the configured input into something that can be
// opened for reading.
package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"hretl/internal/config"
	"hretl/internal/datasource/file"
	"hretl/internal/datasource/httpds"
)

// Source yields the raw bytes of one export.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// New builds the Source selected by cfg.Kind. log may be nil.
func New(cfg config.Source, log *zap.Logger) (Source, error) {
	switch cfg.Kind {
	case "file":
		if cfg.File.Path == "" {
			return nil, fmt.Errorf("datasource: file source without a path")
		}
		return file.NewLocal(cfg.File.Path), nil
	case "http":
		h := make(http.Header, len(cfg.HTTP.Headers))
		for k, v := range cfg.HTTP.Headers {
			h.Set(k, v)
		}
		src, err := httpds.New(httpds.Config{
			URL:        cfg.HTTP.URL,
			Timeout:    time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
			MaxRetries: cfg.HTTP.MaxRetries,
			Headers:    h,
			Log:        log,
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("datasource: unsupported kind %q", cfg.Kind)
	}
}
