package phonerisk

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quoteotter/lead-engine/internal/api/respond"
	"github.com/quoteotter/lead-engine/pkg/logging"
)

// Handler exposes phone validation endpoints.
type Handler struct {
	assessor *Assessor
	logger   *logging.Logger
}

// NewHandler creates a phone validation handler.
func NewHandler(assessor *Assessor, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.New("info")
	}
	return &Handler{assessor: assessor, logger: logger}
}

type validateRequest struct {
	Phone string `json:"phone"`
}

type validateResponse struct {
	Phone      string      `json:"phone"`
	Validation *Assessment `json:"validation"`
}

// ValidatePhone handles POST /api/phone/validate.
func (h *Handler) ValidatePhone(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assessment, err := h.assessor.Assess(r.Context(), req.Phone)
	if err != nil {
		if errors.Is(err, ErrEmptyNumber) {
			respond.Error(w, http.StatusBadRequest, "phone is required")
			return
		}
		h.logger.Error("phone assessment failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "phone validation failed")
		return
	}

	respond.JSON(w, http.StatusOK, validateResponse{Phone: req.Phone, Validation: assessment})
}

type batchRequest struct {
	Phones []string `json:"phones"`
}

type batchEntry struct {
	Phone string `json:"phone"`
	*Assessment
}

type batchResponse struct {
	Count   int          `json:"count"`
	Results []batchEntry `json:"results"`
}

// ValidateBatch handles POST /api/phone/validate/batch.
func (h *Handler) ValidateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := h.assessor.AssessBatch(r.Context(), req.Phones)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyBatch):
			respond.Error(w, http.StatusBadRequest, "phones array is required and must not be empty")
		case errors.Is(err, ErrBatchTooLarge):
			respond.Error(w, http.StatusBadRequest, "maximum 100 phone numbers per batch")
		default:
			h.logger.Error("batch assessment failed", "error", err)
			respond.Error(w, http.StatusInternalServerError, "batch validation failed")
		}
		return
	}

	resp := batchResponse{Count: len(req.Phones), Results: make([]batchEntry, 0, len(results))}
	// Preserve request order in the response body.
	for _, phone := range req.Phones {
		if assessment, ok := results[phone]; ok {
			resp.Results = append(resp.Results, batchEntry{Phone: phone, Assessment: assessment})
		}
	}
	respond.JSON(w, http.StatusOK, resp)
}

// CacheStats handles GET /api/phone/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.assessor.CacheStats(r.Context())
	if err != nil {
		h.logger.Error("cache stats failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to read cache stats")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]CacheStats{"stats": stats})
}

// ClearCache handles DELETE /api/phone/cache.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.assessor.ClearCache(r.Context()); err != nil {
		h.logger.Error("cache clear failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "cache cleared"})
}
