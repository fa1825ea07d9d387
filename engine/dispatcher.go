package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

// Dispatcher tries engines one after another until one returns a page.
// The engine that last succeeded for a host is tried first. Every engine
// attempt is paced by the host's limiter.
type Dispatcher struct {
	engines []Engine
	memory  *DomainMemory
	pacer   Pacer
}

// NewDispatcher creates a Dispatcher. engines are tried in order; pacer
// may be nil to disable pacing.
func NewDispatcher(engines []Engine, memory *DomainMemory, pacer Pacer) *Dispatcher {
	return &Dispatcher{engines: engines, memory: memory, pacer: pacer}
}

// Engines returns the configured engine names in escalation order.
func (d *Dispatcher) Engines() []string {
	names := make([]string, len(d.engines))
	for i, e := range d.engines {
		names[i] = e.Name()
	}
	return names
}

// Dispatch fetches req with the first engine that succeeds. Only
// transport failures and blocking statuses (403, 429...) move on to the
// next engine; any other status is returned as is, so one call costs the
// site a single request unless it is turning the client away.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if len(d.engines) == 0 {
		return nil, errors.New("dispatcher: no engines configured")
	}
	host := extractDomain(req.URL)

	var lastErr error
	for _, eng := range d.order(host) {
		if d.pacer != nil {
			if err := d.pacer.Wait(ctx, host); err != nil {
				return nil, fmt.Errorf("dispatcher: pacing %s: %w", host, err)
			}
		}

		result, err := eng.Fetch(ctx, req)
		if err == nil {
			if d.memory != nil {
				d.memory.Set(host, eng.Name())
			}
			slog.Debug("engine succeeded", "engine", eng.Name(), "url", req.URL, "status", result.StatusCode)
			return result, nil
		}

		lastErr = err
		slog.Debug("engine failed", "engine", eng.Name(), "url", req.URL, "error", err)
		if ctx.Err() != nil || !Escalates(err) {
			break
		}
		if d.memory != nil {
			d.memory.Forget(host, eng.Name())
		}
	}
	return nil, lastErr
}

// order puts the remembered engine for host first.
func (d *Dispatcher) order(host string) []Engine {
	if d.memory == nil {
		return d.engines
	}
	remembered := d.memory.Get(host)
	if remembered == "" || d.engines[0].Name() == remembered {
		return d.engines
	}
	ordered := make([]Engine, 0, len(d.engines))
	for _, e := range d.engines {
		if e.Name() == remembered {
			ordered = append(ordered, e)
		}
	}
	for _, e := range d.engines {
		if e.Name() != remembered {
			ordered = append(ordered, e)
		}
	}
	return ordered
}

// extractDomain parses the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
