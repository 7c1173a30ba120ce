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

// StoreRefreshToken сохраняет хеш выданного refresh token
func (s *Storage) StoreRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`

	// время хранится в UTC, чтобы строки сравнивались как время
	if _, err := s.db.ExecContext(ctx, query,
		token.Token,
		token.UserID,
		token.ExpiresAt.UTC(),
		token.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

// ConsumeRefreshToken удаляет токен одним DELETE ... RETURNING
func (s *Storage) ConsumeRefreshToken(ctx context.Context, hash string, now time.Time) (*models.RefreshToken, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = ?
		RETURNING token, user_id, expires_at, created_at
	`

	token := &models.RefreshToken{}
	err := s.db.QueryRowContext(ctx, query, hash).Scan(
		&token.Token,
		&token.UserID,
		&token.ExpiresAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	if !now.Before(token.ExpiresAt) {
		return nil, storage.ErrTokenExpired
	}
	return token, nil
}

// RevokeUserTokens удаляет все refresh tokens пользователя
func (s *Storage) RevokeUserTokens(ctx context.Context, userID string) (int, error) {
	return s.deleteCount(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID)
}

// PurgeExpiredTokens удаляет токены, истекшие до before
func (s *Storage) PurgeExpiredTokens(ctx context.Context, before time.Time) (int, error) {
	return s.deleteCount(ctx, `DELETE FROM refresh_tokens WHERE expires_at < ?`, before.UTC())
}

func (s *Storage) deleteCount(ctx context.Context, query string, args ...any) (int, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete refresh tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
