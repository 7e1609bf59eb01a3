package providers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quoteotter/lead-engine/internal/api/respond"
	"github.com/quoteotter/lead-engine/pkg/logging"
)

// Handler serves the provider endpoints.
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

// Routes mounts the provider endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.CreateProvider)
	r.Get("/", h.ListProviders)
	r.Get("/{id}", h.GetProvider)
	r.Patch("/{id}", h.UpdateProvider)
	r.Delete("/{id}", h.DeleteProvider)
	r.Get("/{id}/stats", h.ProviderStats)
}

func (h *Handler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	var req CreateProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := h.service.CreateProvider(r.Context(), &req)
	if errors.Is(err, ErrInvalidProvider) {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("create provider failed", "error", err.Error())
		respond.Error(w, http.StatusInternalServerError, "failed to create provider")
		return
	}
	respond.JSON(w, http.StatusCreated, p)
}

func (h *Handler) GetProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.service.GetProvider(r.Context(), id)
	if errors.Is(err, ErrProviderNotFound) {
		respond.Error(w, http.StatusNotFound, "provider not found")
		return
	}
	if err != nil {
		h.logger.Error("get provider failed", "provider_id", id, "error", err.Error())
		respond.Error(w, http.StatusInternalServerError, "failed to fetch provider")
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ListFilter{
		Status:          ProviderStatus(q.Get("status")),
		ServiceCategory: q.Get("serviceCategory"),
		Page:            1,
		Limit:           20,
	}
	if f.Status != "" && !f.Status.Valid() {
		respond.Error(w, http.StatusBadRequest, "unknown status filter")
		return
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respond.Error(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		f.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			respond.Error(w, http.StatusBadRequest, "limit must be 1-100")
			return
		}
		f.Limit = n
	}

	items, total, err := h.service.ListProviders(r.Context(), f)
	if err != nil {
		h.logger.Error("list providers failed", "error", err.Error())
		respond.Error(w, http.StatusInternalServerError, "failed to list providers")
		return
	}
	if items == nil {
		items = []*Provider{}
	}

	pages := (total + f.Limit - 1) / f.Limit
	respond.JSON(w, http.StatusOK, map[string]any{
		"providers": items,
		"pagination": map[string]int{
			"page":  f.Page,
			"limit": f.Limit,
			"total": total,
			"pages": pages,
		},
	})
}

func (h *Handler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := h.service.UpdateProvider(r.Context(), id, &req)
	switch {
	case errors.Is(err, ErrNoFieldsToUpdate), errors.Is(err, ErrInvalidProvider):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrProviderNotFound):
		respond.Error(w, http.StatusNotFound, "provider not found")
	case err != nil:
		h.logger.Error("update provider failed", "provider_id", id, "error", err.Error())
		respond.Error(w, http.StatusInternalServerError, "failed to update provider")
	default:
		respond.JSON(w, http.StatusOK, p)
	}
}

func (h *Handler) DeleteProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.service.DeleteProvider(r.Context(), id)
	if errors.Is(err, ErrProviderNotFound) {
		respond.Error(w, http.StatusNotFound, "provider not found")
		return
	}
	if err != nil {
		h.logger.Error("delete provider failed", "provider_id", id, "error", err.Error())
		respond.Error(w, http.StatusInternalServerError, "failed to delete provider")
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *Handler) ProviderStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stats, err := h.service.ProviderStats(r.Context(), id)
	if errors.Is(err, ErrProviderNotFound) {
		respond.Error(w, http.StatusNotFound, "provider not found")
		return
	}
	if err != nil {
		h.logger.Error("provider stats failed", "provider_id", id, "error", err.Error())
		respond.Error(w, http.StatusInternalServerError, "failed to fetch provider stats")
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}
