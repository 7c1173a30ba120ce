package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/zkvault/internal/server/handlers"
	"github.com/iudanet/zkvault/pkg/api"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func testJWTConfig() handlers.JWTConfig {
	return handlers.JWTConfig{
		Secret:          []byte("test-secret-key"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	}
}

func TestAuthMiddleware_Success(t *testing.T) {
	cfg := testJWTConfig()
	token, _, err := handlers.GenerateAccessToken(cfg, "user123", "alice@example.com")
	require.NoError(t, err)

	var gotUserID, gotEmail string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = handlers.GetUserIDFromContext(r.Context())
		gotEmail, _ = handlers.GetEmailFromContext(r.Context())
		okHandler(w, r)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	AuthMiddleware(setupTestLogger(), cfg)(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user123", gotUserID)
	assert.Equal(t, "alice@example.com", gotEmail)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	cfg := testJWTConfig()

	wrongSecret := cfg
	wrongSecret.Secret = []byte("other-secret")
	forged, _, err := handlers.GenerateAccessToken(wrongSecret, "user123", "a@example.com")
	require.NoError(t, err)

	expiredCfg := cfg
	expiredCfg.AccessTokenTTL = -time.Minute
	expired, _, err := handlers.GenerateAccessToken(expiredCfg, "user123", "a@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"bearer without token", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + forged},
		{"expired", "Bearer " + expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

			req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			AuthMiddleware(setupTestLogger(), cfg)(next).ServeHTTP(w, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp api.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, "Unauthorized", resp.Error)
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusOK, "INFO"},
		{"client error", http.StatusNotFound, "WARN"},
		{"server error", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(`{"secret":"x"}`))
			req.Header.Set("Authorization", "Bearer top-secret-token")
			w := httptest.NewRecorder()

			LoggingMiddleware(bufferLogger(&buf))(next).ServeHTTP(w, req)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "POST", entry["method"])
			assert.Equal(t, "/api/v1/items", entry["path"])
			assert.EqualValues(t, tt.status, entry["status"])
			assert.EqualValues(t, 4, entry["bytes_written"])
			assert.NotContains(t, buf.String(), "top-secret-token")
			assert.NotContains(t, buf.String(), `"secret"`)
		})
	}
}

func TestLoggingMiddleware_SkipPaths(t *testing.T) {
	var buf bytes.Buffer
	h := LoggingMiddleware(bufferLogger(&buf), "/api/v1/health")(http.HandlerFunc(okHandler))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Empty(t, buf.String())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/items", nil))
	assert.Contains(t, buf.String(), "HTTP request")
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "/api/v1/auth/salt/***", sanitizePath("/api/v1/auth/salt/alice@example.com"))
	assert.Equal(t, "/api/v1/auth/salt/", sanitizePath("/api/v1/auth/salt/"))
	assert.Equal(t, "/api/v1/items/42", sanitizePath("/api/v1/items/42"))
}

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := wrapResponseWriter(rec)

	_, _ = rw.Write([]byte("abc"))
	rw.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusOK, rw.statusCode)
	assert.EqualValues(t, 3, rw.written)
	assert.Same(t, rw, wrapResponseWriter(rw))
	assert.Equal(t, rec, rw.Unwrap())
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	h := RecoveryMiddleware(bufferLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("something went wrong")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/items", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "something went wrong")
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "something went wrong")
	assert.Contains(t, buf.String(), "stack")
}

func TestRecoveryMiddleware_PassThrough(t *testing.T) {
	w := httptest.NewRecorder()
	RecoveryMiddleware(setupTestLogger())(http.HandlerFunc(okHandler)).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRecoveryMiddleware_RepanicsOnAbort(t *testing.T) {
	h := RecoveryMiddleware(setupTestLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithError(t, http.ErrAbortHandler.Error(), func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
