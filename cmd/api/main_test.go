package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/imrishuroy/merch-order-admin/internal/app"
	"github.com/imrishuroy/merch-order-admin/internal/config"
)

func testConfig(authEnabled bool) config.Config {
	return config.Config{
		Blob:             config.BlobConfig{Backend: config.BackendMemory, FetchConcurrency: 4},
		Email:            config.EmailConfig{MaxRetryAttempts: 5},
		MetricsNamespace: "test",
		IdempotencyTTL:   time.Hour,
		Auth: config.AuthConfig{
			Enabled:       authEnabled,
			AdminEmail:    "admin@example.com",
			AdminPassword: "pw",
			JWTSecret:     "secret",
		},
	}
}

func newRouter(t *testing.T, cfg config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	deps, err := app.Build(cfg, nil, logger)
	require.NoError(t, err)
	return setupRouter(handlerConfig(cfg, deps, logger))
}

func TestHealthIsPublic(t *testing.T) {
	r := newRouter(t, testConfig(true))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthDisabled(t *testing.T) {
	r := newRouter(t, testConfig(false))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"orders":[],"total":0}`, w.Body.String())
}
