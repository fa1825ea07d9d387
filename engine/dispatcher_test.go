package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	name string
	err  error

	mu    sync.Mutex
	calls int
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) Fetch(_ context.Context, req *FetchRequest) (*FetchResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &FetchResult{HTML: "<p>" + s.name + "</p>", StatusCode: 200, FinalURL: req.URL, EngineName: s.name}, nil
}

func (s *stubEngine) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type countingPacer struct {
	mu    sync.Mutex
	hosts []string
}

func (p *countingPacer) Wait(_ context.Context, host string) error {
	p.mu.Lock()
	p.hosts = append(p.hosts, host)
	p.mu.Unlock()
	return nil
}

func TestDispatcherEscalatesAndRemembers(t *testing.T) {
	blocked := &stubEngine{name: "chrome-tls", err: &StatusError{StatusCode: http.StatusForbidden}}
	fallback := &stubEngine{name: "http"}
	mem := NewDomainMemory(time.Hour)
	pacer := &countingPacer{}
	d := NewDispatcher([]Engine{blocked, fallback}, mem, pacer)

	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://shop.test/pricing"})
	require.NoError(t, err)
	assert.Equal(t, "http", res.EngineName)
	assert.Equal(t, "http", mem.Get("shop.test"))
	assert.Equal(t, []string{"shop.test", "shop.test"}, pacer.hosts, "every engine attempt is paced")

	// Second fetch starts with the remembered engine.
	_, err = d.Dispatch(context.Background(), &FetchRequest{URL: "https://shop.test/plans"})
	require.NoError(t, err)
	assert.Equal(t, 1, blocked.Calls())
	assert.Equal(t, 2, fallback.Calls())
}

func TestDispatcherStopsOnDefinitiveStatus(t *testing.T) {
	missing := &stubEngine{name: "chrome-tls", err: &StatusError{StatusCode: http.StatusNotFound}}
	other := &stubEngine{name: "http"}
	d := NewDispatcher([]Engine{missing, other}, NewDomainMemory(time.Hour), nil)

	_, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://shop.test/gone"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCodeOf(err))
	assert.Equal(t, 0, other.Calls())
}

func TestDispatcherReturnsLastError(t *testing.T) {
	first := &stubEngine{name: "chrome-tls", err: errors.New("tls reset")}
	second := &stubEngine{name: "http", err: errors.New("connection refused")}
	d := NewDispatcher([]Engine{first, second}, nil, nil)

	_, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://down.test/"})
	require.EqualError(t, err, "connection refused")
	assert.Equal(t, []string{"chrome-tls", "http"}, d.Engines())
}

func TestDispatcherDoesNotEscalateSiteErrors(t *testing.T) {
	for name, err := range map[string]error{
		"unavailable": &StatusError{StatusCode: http.StatusServiceUnavailable},
		"server":      &StatusError{StatusCode: http.StatusInternalServerError},
		"not html":    ErrNotHTML,
	} {
		t.Run(name, func(t *testing.T) {
			first := &stubEngine{name: "chrome-tls", err: err}
			second := &stubEngine{name: "http"}
			mem := NewDomainMemory(time.Hour)
			mem.Set("shop.test", "chrome-tls")
			d := NewDispatcher([]Engine{first, second}, mem, nil)

			_, got := d.Dispatch(context.Background(), &FetchRequest{URL: "https://shop.test/"})
			require.ErrorIs(t, got, err)
			assert.Equal(t, 1, first.Calls())
			assert.Equal(t, 0, second.Calls())
			assert.Equal(t, "chrome-tls", mem.Get("shop.test"))
		})
	}
}

func TestEscalates(t *testing.T) {
	assert.True(t, Escalates(errors.New("tls: handshake failure")))
	assert.True(t, Escalates(&StatusError{StatusCode: http.StatusForbidden}))
	assert.True(t, Escalates(&StatusError{StatusCode: http.StatusTooManyRequests}))
	assert.False(t, Escalates(&StatusError{StatusCode: http.StatusBadGateway}))
	assert.False(t, Escalates(fmt.Errorf("%w (content-type: application/json)", ErrNotHTML)))
}
