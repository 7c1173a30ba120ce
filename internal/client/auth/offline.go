package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/zkvault/internal/client/storage"
	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/vault"
)

// SaltSource отдает соль KDF по email (профиль в том же файле)
type SaltSource interface {
	GetSaltByEmail(ctx context.Context, email string) ([]byte, error)
}

// Offline - identity provider поверх локального файла.
// Аккаунты хранятся с bcrypt хешем auth secret, как на сервере.
type Offline struct {
	accounts storage.AccountStorage
	salts    SaltSource
	sessions storage.AuthStorage
	logger   *slog.Logger
	now      func() time.Time
	cost     int

	dummyOnce sync.Once
	dummyHash []byte
}

var _ vault.IdentityProvider = (*Offline)(nil)

// NewOffline создает offline identity provider.
// cost 0 означает bcrypt.DefaultCost.
func NewOffline(
	accounts storage.AccountStorage,
	salts SaltSource,
	sessions storage.AuthStorage,
	logger *slog.Logger,
	cost int,
) *Offline {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Offline{
		accounts: accounts,
		salts:    salts,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
		cost:     cost,
	}
}

// GetSalt returns the KDF salt of the local profile
func (o *Offline) GetSalt(ctx context.Context, email string) ([]byte, error) {
	salt, err := o.salts.GetSaltByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrProfileNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return salt, nil
}

// SignUp creates the local account and signs it in
func (o *Offline) SignUp(ctx context.Context, email, authSecret string) (*models.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(authSecret), o.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash auth secret: %w", err)
	}

	account := &models.Account{
		CreatedAt:      o.now().UTC(),
		ID:             uuid.NewString(),
		Email:          email,
		AuthSecretHash: string(hash),
	}
	if err := o.accounts.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	return o.signIn(ctx, account)
}

// SignIn checks the auth secret against the local account
func (o *Offline) SignIn(ctx context.Context, email, authSecret string) (*models.Identity, error) {
	account, err := o.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			// выравниваем время ответа с существующим аккаунтом
			_ = bcrypt.CompareHashAndPassword(o.dummy(), []byte(authSecret))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.AuthSecretHash), []byte(authSecret)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return o.signIn(ctx, account)
}

func (o *Offline) signIn(ctx context.Context, account *models.Account) (*models.Identity, error) {
	identity := &models.Identity{UserID: account.ID, Email: account.Email}
	if err := o.sessions.SaveAuth(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return identity, nil
}

// SignOut forgets the local session
func (o *Offline) SignOut(ctx context.Context) error {
	return o.sessions.DeleteAuth(ctx)
}

// DeleteAccount removes the signed-in account with all of its records
func (o *Offline) DeleteAccount(ctx context.Context) error {
	identity, err := o.sessions.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return ErrNotSignedIn
		}
		return err
	}

	if err := o.accounts.DeleteAccount(ctx, identity.UserID); err != nil {
		return err
	}

	if err := o.sessions.DeleteAuth(ctx); err != nil {
		o.logger.WarnContext(ctx, "failed to delete local session", slog.Any("error", err))
	}
	return nil
}

// Restore возвращает сохраненную локальную сессию
func (o *Offline) Restore(ctx context.Context) (*models.Identity, error) {
	return o.sessions.GetAuth(ctx)
}

func (o *Offline) dummy() []byte {
	o.dummyOnce.Do(func() {
		o.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("zkvault-dummy-secret"), o.cost)
	})
	return o.dummyHash
}
