package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/server/storage"
)

// CreateAccount creates a new account
func (s *Storage) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, email, auth_secret_hash, created_at, last_login)
		VALUES (?, ?, ?, ?, ?)
	`

	var lastLogin any
	if account.LastLogin != nil {
		lastLogin = account.LastLogin.UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.AuthSecretHash,
		account.CreatedAt.UTC(),
		lastLogin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}

	return nil
}

// GetAccountByEmail retrieves account by email
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getAccount(ctx, `
		SELECT id, email, auth_secret_hash, created_at, last_login
		FROM accounts
		WHERE email = ?
	`, email)
}

// GetAccountByID retrieves account by ID
func (s *Storage) GetAccountByID(ctx context.Context, userID string) (*models.Account, error) {
	return s.getAccount(ctx, `
		SELECT id, email, auth_secret_hash, created_at, last_login
		FROM accounts
		WHERE id = ?
	`, userID)
}

func (s *Storage) getAccount(ctx context.Context, query string, arg any) (*models.Account, error) {
	account := &models.Account{}
	var lastLogin sql.NullTime

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID,
		&account.Email,
		&account.AuthSecretHash,
		&account.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if lastLogin.Valid {
		account.LastLogin = &lastLogin.Time
	}

	return account, nil
}

// UpdateLastLogin updates the last login timestamp
func (s *Storage) UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error {
	query := `UPDATE accounts SET last_login = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, lastLogin.UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return expectAffected(result, storage.ErrAccountNotFound)
}

// DeleteAccount deletes account; profile, items, categories and tokens go by cascade
func (s *Storage) DeleteAccount(ctx context.Context, userID string) error {
	query := `DELETE FROM accounts WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	return expectAffected(result, storage.ErrAccountNotFound)
}

// expectAffected возвращает notFound, если запрос не затронул ни одной строки
func expectAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return notFound
	}

	return nil
}
