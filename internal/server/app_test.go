package server

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/zkvault/internal/server/config"
	"github.com/iudanet/zkvault/internal/server/handlers"
	"github.com/iudanet/zkvault/internal/server/storage/sqlite"
	"github.com/iudanet/zkvault/pkg/api"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.JWTSecret = strings.Repeat("j", 32)
	cfg.SaltSecret = strings.Repeat("s", 32)
	cfg.BcryptCost = 4
	return cfg
}

func setupTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := NewApp(cfg, logger, store, "test")
	t.Cleanup(func() {
		if app.limiter != nil {
			app.limiter.Stop()
		}
		store.Close()
	})
	return app
}

func call(t *testing.T, h http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, r)
	req.RemoteAddr = "192.0.2.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func authSecret() string {
	return hex.EncodeToString(bytes.Repeat([]byte{0xab}, 32))
}

func TestApp_EndToEnd(t *testing.T) {
	h := setupTestApp(t, testConfig()).Handler()

	rec := call(t, h, http.MethodPost, "/api/v1/auth/register", "", api.RegisterRequest{
		Email:      "Alice@Example.com",
		AuthSecret: authSecret(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tokens := decode[api.TokenResponse](t, rec)
	assert.Equal(t, "alice@example.com", tokens.Email)

	salt := bytes.Repeat([]byte{7}, 16)
	rec = call(t, h, http.MethodPost, "/api/v1/profile", tokens.AccessToken, api.Profile{
		KDFSalt:               salt,
		VerifierHash:          "verifier",
		AutoLockMinutes:       15,
		ClearClipboardSeconds: 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/api/v1/auth/salt/alice@example.com", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, salt, decode[api.SaltResponse](t, rec).KDFSalt)

	item := api.Item{
		ID:         uuid.NewString(),
		Title:      "GitHub",
		Ciphertext: []byte("opaque"),
		IV:         make([]byte, 12),
		AuthTag:    make([]byte, 16),
	}
	rec = call(t, h, http.MethodPost, "/api/v1/items", tokens.AccessToken, item)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/api/v1/items", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[api.ItemsResponse](t, rec)
	require.Len(t, items.Items, 1)
	assert.Equal(t, []byte("opaque"), items.Items[0].Ciphertext)

	rec = call(t, h, http.MethodDelete, "/api/v1/items/"+item.ID, tokens.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{
		Email:      "alice@example.com",
		AuthSecret: authSecret(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/v1/auth/logout", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, h, http.MethodDelete, "/api/v1/account", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{
		Email:      "alice@example.com",
		AuthSecret: authSecret(),
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApp_ProtectedRoutesRequireToken(t *testing.T) {
	h := setupTestApp(t, testConfig()).Handler()

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodDelete, "/api/v1/account"},
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodPut, "/api/v1/profile"},
		{http.MethodGet, "/api/v1/items"},
		{http.MethodPut, "/api/v1/items/" + uuid.NewString()},
		{http.MethodGet, "/api/v1/categories"},
		{http.MethodDelete, "/api/v1/categories/" + uuid.NewString()},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := call(t, h, rt.method, rt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestApp_OwnershipFromToken(t *testing.T) {
	cfg := testConfig()
	h := setupTestApp(t, cfg).Handler()

	// токен чужого пользователя, которого нет в базе
	token, _, err := handlers.GenerateAccessToken(handlers.JWTConfig{
		Secret:         []byte(cfg.JWTSecret),
		AccessTokenTTL: time.Minute,
	}, uuid.NewString(), "mallory@example.com")
	require.NoError(t, err)

	rec := call(t, h, http.MethodGet, "/api/v1/items", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[api.ItemsResponse](t, rec).Items)
}

func TestApp_Health(t *testing.T) {
	h := setupTestApp(t, testConfig()).Handler()

	rec := call(t, h, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[handlers.HealthResponse](t, rec)
	assert.Equal(t, "test", resp.Version)
}

func TestApp_Metrics(t *testing.T) {
	h := setupTestApp(t, testConfig()).Handler()

	call(t, h, http.MethodGet, "/api/v1/health", "", nil)

	rec := call(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="GET /api/v1/health"`)

	cfg := testConfig()
	cfg.MetricsEnabled = false
	h = setupTestApp(t, cfg).Handler()
	rec = call(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApp_AuthRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRateLimit = 2
	h := setupTestApp(t, cfg).Handler()

	for i := 0; i < 2; i++ {
		rec := call(t, h, http.MethodGet, "/api/v1/auth/salt/bob@example.com", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := call(t, h, http.MethodGet, "/api/v1/auth/salt/bob@example.com", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// health не ограничивается
	rec = call(t, h, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.TokenCleanupInterval = time.Millisecond

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	app := NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), store, "test")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestOpenStorage_Unknown(t *testing.T) {
	cfg := testConfig()
	cfg.Storage = "mongo"
	_, err := OpenStorage(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
