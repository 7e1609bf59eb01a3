package health

import (
	"context"
	"net/http"
	"time"

	"github.com/quoteotter/lead-engine/internal/api/respond"
)

// CheckFunc probes one dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// Handler serves liveness and readiness endpoints.
type Handler struct {
	version string
	started time.Time
	checks  map[string]CheckFunc
}

func NewHandler(version string) *Handler {
	return &Handler{
		version: version,
		started: time.Now(),
		checks:  map[string]CheckFunc{},
	}
}

// AddCheck registers a named readiness probe.
func (h *Handler) AddCheck(name string, fn CheckFunc) {
	h.checks[name] = fn
}

// Live reports process liveness.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"service":        "lead-engine",
		"version":        h.version,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	})
}

// Ready runs all registered probes; any failure yields 503.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	results := map[string]string{}
	healthy := true
	for name, fn := range h.checks {
		if err := fn(ctx); err != nil {
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	if !healthy {
		respond.Error(w, http.StatusServiceUnavailable, readinessMessage(results))
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"healthy": true,
		"checks":  results,
	})
}

func readinessMessage(results map[string]string) string {
	msg := "not ready:"
	for name, state := range results {
		if state != "ok" {
			msg += " " + name
		}
	}
	return msg
}
