package datasource

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hretl/internal/config"
	"hretl/internal/datasource/file"
	"hretl/internal/datasource/httpds"
)

func TestNew(t *testing.T) {
	src, err := New(config.Source{Kind: "file", File: config.SourceFile{Path: "a.csv"}}, nil)
	require.NoError(t, err)
	l, ok := src.(*file.Local)
	require.True(t, ok)
	assert.Equal(t, "a.csv", l.Path())

	_, err = New(config.Source{Kind: "file"}, nil)
	assert.Error(t, err)

	_, err = New(config.Source{Kind: "http"}, nil)
	assert.ErrorContains(t, err, "url must not be empty")

	_, err = New(config.Source{Kind: "s3"}, nil)
	assert.ErrorContains(t, err, "unsupported kind")
}

func TestNew_HTTPSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Header.Get("X-Api-Key"))
	}))
	defer srv.Close()

	src, err := New(config.Source{Kind: "http", HTTP: config.SourceHTTP{
		URL:     srv.URL,
		Headers: map[string]string{"X-Api-Key": "secret"},
	}}, nil)
	require.NoError(t, err)
	_, ok := src.(*httpds.Source)
	require.True(t, ok)

	rc, err := src.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(b))
}
