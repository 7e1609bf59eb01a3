package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quoteotter/lead-engine/internal/api/respond"
	"github.com/quoteotter/lead-engine/pkg/logging"
)

const defaultWindowDays = 30

// Handler serves the reporting endpoints.
type Handler struct {
	repo   Repository
	logger *logging.Logger
	now    func() time.Time
}

func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.New("info")
	}
	return &Handler{repo: repo, logger: logger, now: time.Now}
}

// Routes mounts the analytics endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/leads", h.LeadMetrics)
	r.Get("/conversions", h.ConversionMetrics)
	r.Get("/categories", h.CategoryBreakdown)
}

func (h *Handler) window(r *http.Request) (time.Time, int, bool) {
	days := defaultWindowDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			return time.Time{}, 0, false
		}
		days = n
	}
	return h.now().UTC().AddDate(0, 0, -days), days, true
}

func (h *Handler) LeadMetrics(w http.ResponseWriter, r *http.Request) {
	since, days, ok := h.window(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "days must be 1-365")
		return
	}

	m, err := h.repo.LeadMetrics(r.Context(), since, days)
	if err != nil {
		h.logger.Error("lead metrics failed", "error", err.Error())
		respond.Error(w, http.StatusInternalServerError, "failed to compute lead metrics")
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

func (h *Handler) ConversionMetrics(w http.ResponseWriter, r *http.Request) {
	since, days, ok := h.window(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "days must be 1-365")
		return
	}

	m, err := h.repo.ConversionMetrics(r.Context(), since, days)
	if err != nil {
		h.logger.Error("conversion metrics failed", "error", err.Error())
		respond.Error(w, http.StatusInternalServerError, "failed to compute conversion metrics")
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

func (h *Handler) CategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	since, _, ok := h.window(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "days must be 1-365")
		return
	}

	breakdown, err := h.repo.CategoryBreakdown(r.Context(), since)
	if err != nil {
		h.logger.Error("category breakdown failed", "error", err.Error())
		respond.Error(w, http.StatusInternalServerError, "failed to compute category breakdown")
		return
	}
	if breakdown == nil {
		breakdown = []CategoryMetric{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"categories": breakdown})
}
