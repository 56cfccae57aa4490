package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthHandler(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("dial tcp: refused") })

	tests := []struct {
		name     string
		postgres Pinger
		redis    Pinger
		status   int
		contains string
	}{
		{"ready", ok, ok, http.StatusOK, `"status":"ready"`},
		{"postgres down", down, ok, http.StatusServiceUnavailable, "postgres unhealthy"},
		{"redis down", ok, down, http.StatusServiceUnavailable, "redis unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.postgres, tt.redis)
			rr := httptest.NewRecorder()
			h.Readiness(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.contains)
		})
	}

	t.Run("liveness ignores dependencies", func(t *testing.T) {
		h := NewHealthHandler(down, down)
		rr := httptest.NewRecorder()
		h.Liveness(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
