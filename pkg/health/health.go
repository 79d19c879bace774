// Package health provides Kubernetes-style liveness and readiness probes.
// Readiness checks run on demand when the probe endpoint is hit, each under
// its own timeout; an explicit ready flag additionally gates traffic during
// startup and graceful shutdown.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc reports whether a dependency is usable. A nil return means
// healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Health serves the /livez and /readyz probe endpoints.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks []check
}

// New creates a Health in the not-ready state. Call SetReady(true) once
// initialization finishes.
func New() *Health {
	return &Health{}
}

// AddReadinessCheck registers a dependency check run on every readiness
// probe.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the readiness gate. Set false at the start of graceful
// shutdown so load balancers drain the instance before the listener closes.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// LiveEndpoint answers liveness probes. Reaching the handler at all proves
// the process is serving.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, "ok", nil)
}

// ReadyEndpoint answers readiness probes: 503 while the gate is closed or
// any dependency check fails, 200 otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		writeStatus(w, http.StatusServiceUnavailable, "starting", nil)
		return
	}

	h.mu.RLock()
	checks := append([]check(nil), h.checks...)
	h.mu.RUnlock()

	results := make(map[string]string, len(checks))
	failed := false
	for _, c := range checks {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		err := c.fn(ctx)
		cancel()

		if err != nil {
			failed = true
			results[c.name] = err.Error()
		} else {
			results[c.name] = "ok"
		}
	}

	if failed {
		writeStatus(w, http.StatusServiceUnavailable, "unhealthy", results)
		return
	}
	writeStatus(w, http.StatusOK, "ok", results)
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(status) })
		if len(checks) > 0 {
			e.Field("checks", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					for name, result := range checks {
						e.Field(name, func(e *jx.Encoder) { e.Str(result) })
					}
				})
			})
		}
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
