// Package auth содержит identity provider'ы клиента: удаленный (HTTP API
// сервера) и offline (локальный bbolt файл). Оба получают только auth secret,
// выведенный из мастер-пароля, и сохраняют личность между запусками CLI.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/zkvault/internal/client/api"
	"github.com/iudanet/zkvault/internal/client/storage"
	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/vault"
	pkgapi "github.com/iudanet/zkvault/pkg/api"
)

// Remote - identity provider поверх HTTP API сервера
type Remote struct {
	client   *api.Client
	sessions storage.AuthStorage
	logger   *slog.Logger
}

var _ vault.IdentityProvider = (*Remote)(nil)

// NewRemote создает удаленный identity provider
func NewRemote(client *api.Client, sessions storage.AuthStorage, logger *slog.Logger) *Remote {
	return &Remote{client: client, sessions: sessions, logger: logger}
}

// PersistTokens возвращает наблюдатель токенов, сохраняющий сессию на диск
// после входа и каждого refresh
func PersistTokens(sessions storage.AuthStorage, logger *slog.Logger) api.TokenObserver {
	return func(ctx context.Context, identity *models.Identity) {
		if err := sessions.SaveAuth(ctx, identity); err != nil {
			logger.WarnContext(ctx, "failed to persist session", slog.Any("error", err))
		}
	}
}

// GetSalt returns the KDF salt published by the server
func (r *Remote) GetSalt(ctx context.Context, email string) ([]byte, error) {
	return r.client.GetSalt(ctx, email)
}

// SignUp registers the account on the server
func (r *Remote) SignUp(ctx context.Context, email, authSecret string) (*models.Identity, error) {
	return r.client.Register(ctx, pkgapi.RegisterRequest{Email: email, AuthSecret: authSecret})
}

// SignIn authenticates on the server
func (r *Remote) SignIn(ctx context.Context, email, authSecret string) (*models.Identity, error) {
	identity, err := r.client.Login(ctx, pkgapi.LoginRequest{Email: email, AuthSecret: authSecret})
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return nil, err
	}
	return identity, nil
}

// SignOut revokes the server session. Локальная сессия удаляется в любом случае.
func (r *Remote) SignOut(ctx context.Context) error {
	logoutErr := r.client.Logout(ctx)
	if err := r.sessions.DeleteAuth(ctx); err != nil {
		return fmt.Errorf("failed to delete local session: %w", err)
	}
	return logoutErr
}

// DeleteAccount deletes the account on the server and forgets the local session
func (r *Remote) DeleteAccount(ctx context.Context) error {
	if err := r.client.DeleteAccount(ctx); err != nil {
		return err
	}
	if err := r.sessions.DeleteAuth(ctx); err != nil {
		r.logger.WarnContext(ctx, "failed to delete local session", slog.Any("error", err))
	}
	return nil
}

// Restore загружает сохраненную сессию в API клиент.
// Возвращает storage.ErrAuthNotFound, если входа не было.
func (r *Remote) Restore(ctx context.Context) (*models.Identity, error) {
	identity, err := r.sessions.GetAuth(ctx)
	if err != nil {
		return nil, err
	}
	r.client.SetIdentity(identity)
	return identity, nil
}
