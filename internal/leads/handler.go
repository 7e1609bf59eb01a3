package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quoteotter/lead-engine/internal/api/respond"
	"github.com/quoteotter/lead-engine/pkg/logging"
)

// Handler serves the lead endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.New("info")
	}
	return &Handler{service: service, logger: logger}
}

// Routes mounts the lead endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.CreateLead)
	r.Get("/", h.ListLeads)
	r.Get("/{id}", h.GetLead)
	r.Patch("/{id}/status", h.UpdateStatus)
}

func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	lead, err := h.service.CreateLead(r.Context(), &req)
	if errors.Is(err, ErrInvalidLead) {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("create lead failed", "error", err.Error())
		if lead != nil {
			// Persisted but distribution could not be finalized.
			respond.JSON(w, http.StatusCreated, lead)
			return
		}
		respond.Error(w, http.StatusInternalServerError, "failed to create lead")
		return
	}

	respond.JSON(w, http.StatusCreated, lead)
}

func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lead, assignments, err := h.service.GetLead(r.Context(), id)
	if errors.Is(err, ErrLeadNotFound) {
		respond.Error(w, http.StatusNotFound, "lead not found")
		return
	}
	if err != nil {
		h.logger.Error("get lead failed", "lead_id", id, "error", err.Error())
		respond.Error(w, http.StatusInternalServerError, "failed to fetch lead")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"lead":        lead,
		"assignments": assignments,
	})
}

func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	f, err := parseListFilter(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.service.ListLeads(r.Context(), f)
	if err != nil {
		h.logger.Error("list leads failed", "error", err.Error())
		respond.Error(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	if items == nil {
		items = []*Lead{}
	}

	pages := 0
	if f.Limit > 0 {
		pages = (total + f.Limit - 1) / f.Limit
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"leads": items,
		"pagination": map[string]int{
			"page":  f.Page,
			"limit": f.Limit,
			"total": total,
			"pages": pages,
		},
	})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	lead, err := h.service.UpdateStatus(r.Context(), id, &req)
	switch {
	case errors.Is(err, ErrInvalidLead):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrLeadNotFound):
		respond.Error(w, http.StatusNotFound, "lead not found")
	case err != nil:
		h.logger.Error("update lead status failed", "lead_id", id, "error", err.Error())
		respond.Error(w, http.StatusInternalServerError, "failed to update lead")
	default:
		respond.JSON(w, http.StatusOK, lead)
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	f := ListFilter{
		Status:          Status(q.Get("status")),
		ServiceCategory: q.Get("serviceCategory"),
		Intent:          Intent(q.Get("intent")),
		SortBy:          q.Get("sortBy"),
		SortDesc:        q.Get("sortOrder") != "asc",
		Page:            1,
		Limit:           20,
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, errors.New("unknown status filter")
	}
	switch f.SortBy {
	case "", "createdAt", "score", "status", "updatedAt":
	default:
		return f, errors.New("sortBy must be one of createdAt, score, status, updatedAt")
	}

	var err error
	if v := q.Get("page"); v != "" {
		if f.Page, err = strconv.Atoi(v); err != nil || f.Page < 1 {
			return f, errors.New("page must be a positive integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit < 1 || f.Limit > 100 {
			return f, errors.New("limit must be 1-100")
		}
	}
	if v := q.Get("minScore"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.New("minScore must be an integer")
		}
		f.MinScore = &n
	}
	if v := q.Get("maxScore"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.New("maxScore must be an integer")
		}
		f.MaxScore = &n
	}
	if v := q.Get("startDate"); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			return f, errors.New("startDate must be RFC3339 or YYYY-MM-DD")
		}
		f.CreatedAfter = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			return f, errors.New("endDate must be RFC3339 or YYYY-MM-DD")
		}
		f.CreatedBefore = &t
	}
	return f, nil
}

func parseDateParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
