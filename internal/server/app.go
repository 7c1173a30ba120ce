// Package server собирает HTTP сервер zkvault: хранилище, handlers,
// middleware, фоновую очистку refresh tokens и graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/iudanet/zkvault/internal/server/config"
	"github.com/iudanet/zkvault/internal/server/handlers"
	"github.com/iudanet/zkvault/internal/server/middleware"
	"github.com/iudanet/zkvault/internal/server/storage"
	"github.com/iudanet/zkvault/internal/server/storage/postgres"
	"github.com/iudanet/zkvault/internal/server/storage/sqlite"
)

const (
	healthPath  = "/api/v1/health"
	metricsPath = "/metrics"
)

// App - собранный сервер
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   storage.Storage
	limiter *middleware.RateLimiter
	handler http.Handler
}

// OpenStorage открывает хранилище, выбранное в конфигурации
func OpenStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		return sqlite.New(ctx, cfg.DatabaseDSN)
	case config.StoragePostgres:
		return postgres.New(ctx, cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("%w: unknown storage %q", config.ErrInvalidConfig, cfg.Storage)
	}
}

// NewApp собирает сервер поверх открытого хранилища.
// Хранилище закрывается в Run.
func NewApp(cfg *config.Config, logger *slog.Logger, store storage.Storage, version string) *App {
	app := &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
	if cfg.AuthRateLimit > 0 {
		app.limiter = middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, logger)
	}
	app.handler = app.routes(version)
	return app
}

// Handler возвращает корневой handler со всеми middleware
func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) routes(version string) http.Handler {
	jwtCfg := handlers.JWTConfig{
		Secret:          []byte(a.cfg.JWTSecret),
		AccessTokenTTL:  a.cfg.AccessTokenTTL,
		RefreshTokenTTL: a.cfg.RefreshTokenTTL,
	}

	authHandler := handlers.NewAuthHandler(a.logger, a.store, a.store, a.store, handlers.AuthConfig{
		JWT:        jwtCfg,
		SaltSecret: []byte(a.cfg.SaltSecret),
		BcryptCost: a.cfg.BcryptCost,
	})
	accountHandler := handlers.NewAccountHandler(a.logger, a.store)
	vaultHandler := handlers.NewVaultHandler(a.logger, a.store, a.store, a.store)
	healthHandler := handlers.NewHealthHandler(a.logger, a.store, version)

	authMW := middleware.AuthMiddleware(a.logger, jwtCfg)
	protected := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	limited := func(h http.Handler) http.Handler {
		if a.limiter == nil {
			return h
		}
		return middleware.RateLimitMiddleware(a.limiter, a.logger)(h)
	}

	mux := http.NewServeMux()

	// Public
	mux.Handle("POST /api/v1/auth/register", limited(http.HandlerFunc(authHandler.Register)))
	mux.Handle("GET /api/v1/auth/salt/{email}", limited(http.HandlerFunc(authHandler.GetSalt)))
	mux.Handle("POST /api/v1/auth/login", limited(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/v1/auth/refresh", limited(http.HandlerFunc(authHandler.Refresh)))
	mux.HandleFunc("GET "+healthPath, healthHandler.Health)

	// Protected
	mux.Handle("POST /api/v1/auth/logout", protected(authHandler.Logout))
	mux.Handle("DELETE /api/v1/account", protected(accountHandler.Delete))

	mux.Handle("GET /api/v1/profile", protected(vaultHandler.GetProfile))
	mux.Handle("POST /api/v1/profile", protected(vaultHandler.CreateProfile))
	mux.Handle("PUT /api/v1/profile", protected(vaultHandler.UpdateProfile))

	mux.Handle("GET /api/v1/items", protected(vaultHandler.ListItems))
	mux.Handle("POST /api/v1/items", protected(vaultHandler.CreateItem))
	mux.Handle("PUT /api/v1/items/{id}", protected(vaultHandler.UpdateItem))
	mux.Handle("DELETE /api/v1/items/{id}", protected(vaultHandler.DeleteItem))

	mux.Handle("GET /api/v1/categories", protected(vaultHandler.ListCategories))
	mux.Handle("POST /api/v1/categories", protected(vaultHandler.CreateCategory))
	mux.Handle("DELETE /api/v1/categories/{id}", protected(vaultHandler.DeleteCategory))

	var h http.Handler = mux
	h = middleware.RecoveryMiddleware(a.logger)(h)
	h = middleware.LoggingMiddleware(a.logger, healthPath, metricsPath)(h)

	if a.cfg.MetricsEnabled {
		metrics := middleware.NewMetrics()
		mux.Handle("GET "+metricsPath, metrics.Handler())
		h = metrics.Middleware(h)
	}

	return h
}

// Run запускает HTTP сервер и блокируется до отмены ctx.
// После отмены дожидается текущих запросов не дольше ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if a.limiter != nil {
			a.limiter.Stop()
		}
		if err := a.store.Close(); err != nil {
			a.logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	var wg sync.WaitGroup
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer func() {
		stopCleanup()
		wg.Wait()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.cleanupTokens(cleanupCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening",
			slog.String("addr", a.cfg.Addr),
			slog.String("storage", a.cfg.Storage),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.logger.Info("server stopped")
	return nil
}

// cleanupTokens периодически удаляет просроченные refresh tokens
func (a *App) cleanupTokens(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.TokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.deleteExpiredTokens(ctx)
		}
	}
}

func (a *App) deleteExpiredTokens(ctx context.Context) {
	n, err := a.store.PurgeExpiredTokens(ctx, time.Now())
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to delete expired tokens", slog.Any("error", err))
		return
	}
	if n > 0 {
		a.logger.InfoContext(ctx, "expired refresh tokens deleted", slog.Int("count", n))
	}
}
