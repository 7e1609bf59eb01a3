package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiveReportsUptime(t *testing.T) {
	h := NewHandler("1.2.3")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Live(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"1.2.3"`)
	assert.Contains(t, rec.Body.String(), "lead-engine")
}

func TestReadyAllChecksPass(t *testing.T) {
	h := NewHandler("test")
	h.AddCheck("postgres", func(context.Context) error { return nil })
	h.AddCheck("redis", func(context.Context) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"postgres":"ok"`)
}

func TestReadyFailingCheckIs503(t *testing.T) {
	h := NewHandler("test")
	h.AddCheck("postgres", func(context.Context) error { return nil })
	h.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")
}
