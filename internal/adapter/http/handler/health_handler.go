package handler

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 5 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc lets a plain function serve as a Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves /health and /ready.
type HealthHandler struct {
	deps []namedPinger
}

type namedPinger struct {
	name string
	p    Pinger
}

func NewHealthHandler(postgres, redis Pinger) *HealthHandler {
	return &HealthHandler{deps: []namedPinger{
		{name: "postgres", p: postgres},
		{name: "redis", p: redis},
	}}
}

// Liveness only says the process is serving.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness pings every dependency concurrently and answers 503 if any fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	results := make([]error, len(h.deps))
	var g errgroup.Group
	for i, dep := range h.deps {
		i, dep := i, dep
		g.Go(func() error {
			results[i] = dep.p.Ping(ctx)
			return nil
		})
	}
	_ = g.Wait()

	body := map[string]string{"status": "ready"}
	status := http.StatusOK
	for i, dep := range h.deps {
		if results[i] != nil {
			body[dep.name] = results[i].Error()
			body["status"] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		body[dep.name] = "ok"
	}
	writeJSON(w, status, body)
}
