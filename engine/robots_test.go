package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRobotsCheckerDisallow(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			hits.Add(1)
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	rc := NewRobotsChecker("rivalscope", nil, time.Hour)
	ctx := context.Background()

	assert.True(t, rc.Allowed(ctx, srv.URL+"/pricing"))
	assert.False(t, rc.Allowed(ctx, srv.URL+"/private/offers"))
	assert.Equal(t, int32(1), hits.Load(), "rules are cached per host")
}

func TestRobotsCheckerFailsOpen(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rc := NewRobotsChecker("rivalscope", nil, time.Hour)
	assert.True(t, rc.Allowed(context.Background(), srv.URL+"/pricing"))
	assert.True(t, rc.Allowed(context.Background(), srv.URL+"/plans"))
	assert.True(t, rc.Allowed(context.Background(), srv.URL+"/offers"))
	assert.Equal(t, int32(1), hits.Load(), "failed lookups are cached per host")
}

func TestRobotsCheckerCancelledLookupNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	}))
	defer srv.Close()

	rc := NewRobotsChecker("rivalscope", nil, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, rc.Allowed(ctx, srv.URL+"/private/deals"))

	assert.False(t, rc.Allowed(context.Background(), srv.URL+"/private/deals"))
	assert.Equal(t, int32(1), hits.Load())
}

func TestRobotsCheckerMissingFileAllows(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	rc := NewRobotsChecker("rivalscope", nil, time.Hour)
	assert.True(t, rc.Allowed(context.Background(), srv.URL+"/deals"))
}
