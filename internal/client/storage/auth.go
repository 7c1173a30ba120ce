package storage

import (
	"context"

	"github.com/iudanet/zkvault/internal/models"
)

// AuthStorage хранит личность и токены между запусками клиента.
// Это нижний слой: ключей хранилища и мастер-пароля здесь нет.
type AuthStorage interface {
	// SaveAuth stores the current identity with its tokens
	SaveAuth(ctx context.Context, identity *models.Identity) error

	// GetAuth retrieves the stored identity
	// Returns ErrAuthNotFound if no session was saved
	GetAuth(ctx context.Context) (*models.Identity, error)

	// DeleteAuth removes the stored identity (logout)
	DeleteAuth(ctx context.Context) error
}

// AccountStorage хранит учетные записи offline identity provider
type AccountStorage interface {
	// CreateAccount stores a new account
	// Returns ErrAccountAlreadyExists if email is taken
	CreateAccount(ctx context.Context, account *models.Account) error

	// GetAccountByEmail retrieves account by normalized email
	// Returns ErrAccountNotFound if account doesn't exist
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)

	// DeleteAccount deletes account with its profile, items and categories
	// Returns ErrAccountNotFound if account doesn't exist
	DeleteAccount(ctx context.Context, userID string) error
}
