package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studentserving/backend/libs/auth/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHealthHandler_Health(t *testing.T) {
	ok := PingerFunc(func(ctx context.Context) error { return nil })
	down := PingerFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name           string
		checks         map[string]Pinger
		expectedStatus int
		expectedBody   healthResponse
	}{
		{
			name:           "all dependencies up",
			checks:         map[string]Pinger{"database": ok, "redis": ok},
			expectedStatus: http.StatusOK,
			expectedBody:   healthResponse{Status: "ok", Checks: map[string]string{"database": "ok", "redis": "ok"}},
		},
		{
			name:           "redis down",
			checks:         map[string]Pinger{"database": ok, "redis": down},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   healthResponse{Status: "fail", Checks: map[string]string{"database": "ok", "redis": "fail"}},
		},
		{
			name:           "no checks",
			checks:         map[string]Pinger{},
			expectedStatus: http.StatusOK,
			expectedBody:   healthResponse{Status: "ok", Checks: map[string]string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(NewHealthHandler(tt.checks, zap.NewNop(), nil))

			w := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, tt.expectedStatus, w.Code)
			resp := decodeBody[healthResponse](t, w)
			assert.Equal(t, tt.expectedBody.Status, resp.Status)
			assert.Equal(t, tt.expectedBody.Checks, resp.Checks)
			assert.NotEmpty(t, resp.Timestamp)
		})
	}
}

func TestHealthHandler_LogsFailedCheck(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	checks := map[string]Pinger{"database": PingerFunc(func(ctx context.Context) error { return errors.New("timeout") })}
	router := newTestRouter(NewHealthHandler(checks, zap.New(core), nil))

	serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.FilterMessage("health check failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "database", entries[0].ContextMap()["dependency"])
}

func TestHealthHandler_Metrics(t *testing.T) {
	router := newTestRouter(NewHealthHandler(nil, zap.NewNop(), nil))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestHealthHandler_MetricsAPIKey(t *testing.T) {
	router := newTestRouter(NewHealthHandler(nil, zap.NewNop(), middleware.APIKeyMiddleware("scrape-key")))

	tests := []struct {
		name           string
		key            string
		expectedStatus int
	}{
		{name: "missing key", expectedStatus: http.StatusUnauthorized},
		{name: "wrong key", key: "nope", expectedStatus: http.StatusUnauthorized},
		{name: "valid key", key: "scrape-key", expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}

			w := serve(router, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	t.Run("health stays open", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
