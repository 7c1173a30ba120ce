package storage

import (
	"context"
	"time"

	"github.com/iudanet/zkvault/internal/models"
)

// TokenStorage хранит refresh tokens. Token в models.RefreshToken - это
// SHA-256 хеш, сам токен сервер не сохраняет.
type TokenStorage interface {
	// StoreRefreshToken сохраняет выданный токен.
	StoreRefreshToken(ctx context.Context, token *models.RefreshToken) error

	// ConsumeRefreshToken атомарно удаляет токен и возвращает его запись.
	// Повторный вызов с тем же хешем получает ErrTokenNotFound, поэтому
	// два параллельных refresh не получат две пары токенов.
	// Просроченный токен тоже удаляется, но возвращается ErrTokenExpired.
	ConsumeRefreshToken(ctx context.Context, hash string, now time.Time) (*models.RefreshToken, error)

	// RevokeUserTokens удаляет все токены пользователя (logout).
	RevokeUserTokens(ctx context.Context, userID string) (int, error)

	// PurgeExpiredTokens удаляет токены, истекшие до before.
	PurgeExpiredTokens(ctx context.Context, before time.Time) (int, error)
}
