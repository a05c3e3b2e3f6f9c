package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"utkal-mart/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubDatabase struct {
	status string
}

func (s stubDatabase) DB() *sql.DB { return nil }

func (s stubDatabase) Health(ctx context.Context) map[string]string {
	return map[string]string{"status": s.status}
}

func (s stubDatabase) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Env: "development"},
		JWT:       config.JWTConfig{Secret: "test-secret", Expiry: time.Hour},
		RateLimit: config.RateLimitConfig{Requests: 2, Window: time.Minute},
		Cart:      config.CartConfig{ResnapshotOnMutation: true},
	}
}

func TestHealth(t *testing.T) {
	for status, want := range map[string]int{
		"up":   http.StatusOK,
		"down": http.StatusServiceUnavailable,
	} {
		t.Run(status, func(t *testing.T) {
			srv := NewServer(testConfig(), zap.NewNop(), stubDatabase{status: status}, nil)

			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, want, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body, "database")
			assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
		})
	}
}

func TestCartRoutesRequireToken(t *testing.T) {
	srv := NewServer(testConfig(), zap.NewNop(), stubDatabase{status: "up"}, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/buyer/cart"},
		{http.MethodPost, "/api/buyer/cart"},
		{http.MethodDelete, "/api/buyer/cart"},
		{http.MethodPut, "/api/buyer/cart/3f0c1a52-5d1e-4a8e-9d55-0c8f7a1c2b3d"},
		{http.MethodPost, "/api/buyer/cart/refresh-prices"},
		{http.MethodGet, "/api/auth/me"},
	} {
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	srv := NewServer(testConfig(), zap.NewNop(), stubDatabase{status: "up"}, redisClient)
	defer srv.Close()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.7:4000"
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestCORSPreflight(t *testing.T) {
	srv := NewServer(testConfig(), zap.NewNop(), stubDatabase{status: "up"}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/buyer/cart", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
