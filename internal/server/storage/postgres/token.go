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

// StoreRefreshToken saves the hash of an issued refresh token
func (s *Storage) StoreRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`

	if _, err := s.db.ExecContext(ctx, query, token.Token, token.UserID, token.ExpiresAt, token.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// ConsumeRefreshToken deletes the token and returns what was stored
func (s *Storage) ConsumeRefreshToken(ctx context.Context, hash string, now time.Time) (*models.RefreshToken, error) {
	query := `DELETE FROM refresh_tokens WHERE token = $1 RETURNING token, user_id, expires_at, created_at`

	t := &models.RefreshToken{}
	if err := s.db.QueryRowContext(ctx, query, hash).Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if !now.Before(t.ExpiresAt) {
		return nil, storage.ErrTokenExpired
	}
	return t, nil
}

// RevokeUserTokens deletes all refresh tokens of the user
func (s *Storage) RevokeUserTokens(ctx context.Context, userID string) (int, error) {
	return s.deleteCount(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
}

// PurgeExpiredTokens deletes tokens that expired before the given time
func (s *Storage) PurgeExpiredTokens(ctx context.Context, before time.Time) (int, error) {
	return s.deleteCount(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
}

func (s *Storage) deleteCount(ctx context.Context, query string, args ...any) (int, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
