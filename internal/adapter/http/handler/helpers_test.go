package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/pocketledger/internal/adapter/http/dto"
	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/transactions?limit=50", nil)
	assert.Equal(t, 50, parseIntQuery(req, "limit", 10))

	req = httptest.NewRequest(http.MethodGet, "/transactions?limit=invalid", nil)
	assert.Equal(t, 10, parseIntQuery(req, "limit", 10))

	req.URL = &url.URL{RawQuery: ""}
	assert.Equal(t, 25, parseIntQuery(req, "limit", 25))
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", domain.ErrTransactionNotFound), http.StatusNotFound},
		{"validation", domain.ErrInvalidAccountName, http.StatusBadRequest},
		{"unbalanced", &domain.DomainError{Kind: domain.ErrUnbalancedEntry, Entity: "entry"}, http.StatusUnprocessableEntity},
		{"system account", domain.ErrSystemAccount, http.StatusUnprocessableEntity},
		{"missing account reference", domain.ErrForeignKeyConstraint, http.StatusUnprocessableEntity},
		{"deleted", domain.ErrDeletedEntity, http.StatusConflict},
		{"duplicate", domain.ErrRecordAlreadyExists, http.StatusConflict},
		{"email taken", usecase.ErrEmailTaken, http.StatusConflict},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mapDomainError(tt.err))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusBadRequest, "bad request", "detail")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrorResponse{Error: "bad request", Message: "detail"}, resp)
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rr := httptest.NewRecorder()
	respondError(rr, req, "failed", errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection refused")

	rr = httptest.NewRecorder()
	respondError(rr, req, "failed", domain.ErrAccountNotFound)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "account not found")
}

func TestDecodeJSON(t *testing.T) {
	var v dto.LoginRequest

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"email":"a@b.co","extra":1}`))
	assert.ErrorIs(t, decodeJSON(httptest.NewRecorder(), req, &v), domain.ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	assert.ErrorContains(t, decodeJSON(httptest.NewRecorder(), req, &v), "empty")

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"email":"a@b.co","password":"x"}`))
	require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &v))
	assert.Equal(t, "a@b.co", v.Email)
}
