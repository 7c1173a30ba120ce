package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/server/storage"
)

const selectAccount = `SELECT id, email, auth_secret_hash, created_at, last_login FROM accounts`

// CreateAccount creates a new account
func (s *Storage) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, email, auth_secret_hash, created_at, last_login)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		account.ID, account.Email, account.AuthSecretHash, account.CreatedAt, account.LastLogin)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAccountAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// GetAccountByEmail retrieves account by email
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getAccount(ctx, selectAccount+` WHERE email = $1`, email)
}

// GetAccountByID retrieves account by ID
func (s *Storage) GetAccountByID(ctx context.Context, userID string) (*models.Account, error) {
	return s.getAccount(ctx, selectAccount+` WHERE id = $1`, userID)
}

func (s *Storage) getAccount(ctx context.Context, query string, arg any) (*models.Account, error) {
	account := &models.Account{}
	var lastLogin sql.NullTime

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.Email, &account.AuthSecretHash, &account.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrAccountNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lastLogin.Valid {
		account.LastLogin = &lastLogin.Time
	}

	return account, nil
}

// UpdateLastLogin updates the last login timestamp
func (s *Storage) UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error {
	result, err := s.db.ExecContext(ctx, `UPDATE accounts SET last_login = $1 WHERE id = $2`, lastLogin, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectAffected(result, storage.ErrAccountNotFound)
}

// DeleteAccount deletes account; dependent rows go by cascade
func (s *Storage) DeleteAccount(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectAffected(result, storage.ErrAccountNotFound)
}
