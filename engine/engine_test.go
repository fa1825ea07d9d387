package engine

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdEngineDecodesBrotli(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept-Language"), "en-US")

		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		_, _ = bw.Write([]byte("<html><title>Plans</title></html>"))
		_ = bw.Close()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	eng, err := NewStdEngine(Options{})
	require.NoError(t, err)

	res, err := eng.Fetch(context.Background(), &FetchRequest{URL: srv.URL, UserAgent: "test-agent"})
	require.NoError(t, err)
	assert.Equal(t, "<html><title>Plans</title></html>", res.HTML)
	assert.Equal(t, "http", res.EngineName)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestChromeTLSEngineStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	eng, err := NewChromeTLSEngine(Options{})
	require.NoError(t, err)

	_, err = eng.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/missing"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCodeOf(err))
	assert.True(t, IsDefinitive(err))
}

func TestEngineRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF"))
	}))
	defer srv.Close()

	eng, err := NewStdEngine(Options{})
	require.NoError(t, err)

	_, err = eng.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	require.ErrorIs(t, err, ErrNotHTML)
}

func TestBuildUnknownEngine(t *testing.T) {
	_, err := Build([]string{"http", "headless"}, Options{})
	require.Error(t, err)

	engines, err := Build([]string{"chrome-tls", "http"}, Options{})
	require.NoError(t, err)
	require.Len(t, engines, 2)
	assert.Equal(t, "chrome-tls", engines[0].Name())
}
