package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mb-events/server/internal/auth"
	"github.com/mb-events/server/internal/config"
)

func newTestRouter() http.Handler {
	cfg := config.Config{
		CORS:      config.CORSConfig{AllowAllOrigins: true},
		RateLimit: config.RateLimitConfig{PublicPerMinute: 1000, LoginPerMinute: 1000},
	}
	return NewRouter(Deps{
		Config: cfg,
		Logger: zerolog.Nop(),
		Tokens: auth.NewManager("router-test-secret", time.Hour, 15*time.Minute, "mb-events"),
	})
}

func TestHealthzAlwaysUp(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/v1/register", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "POST", rec.Header().Get("Allow"))
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	router := newTestRouter()

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/events/hosted"},
		{"GET", "/api/v1/events/previous"},
		{"GET", "/api/v1/events/attending"},
		{"POST", "/api/v1/events/pay/01J8ZG2Q9W7X5V4T3S2R1Q0P9N"},
		{"POST", "/api/v1/events"},
	}
	for _, tc := range paths {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("OPTIONS", "/api/v1/events", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
