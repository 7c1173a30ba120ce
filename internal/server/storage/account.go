package storage

import (
	"context"
	"time"

	"github.com/iudanet/zkvault/internal/models"
)

// AccountStorage defines interface for identity provider accounts
type AccountStorage interface {
	// CreateAccount creates a new account
	// Returns ErrAccountAlreadyExists if email is taken
	CreateAccount(ctx context.Context, account *models.Account) error

	// GetAccountByEmail retrieves account by normalized email
	// Returns ErrAccountNotFound if account doesn't exist
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetAccountByID retrieves account by ID
	// Returns ErrAccountNotFound if account doesn't exist
	GetAccountByID(ctx context.Context, userID string) (*models.Account, error)

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error

	// DeleteAccount deletes account with its profile, items, categories and tokens
	// Returns ErrAccountNotFound if account doesn't exist
	DeleteAccount(ctx context.Context, userID string) error
}
