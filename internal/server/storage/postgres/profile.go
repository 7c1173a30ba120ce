package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/server/storage"
)

// CreateProfile сохраняет профиль хранилища
func (s *Storage) CreateProfile(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, email, verifier_hash, kdf_salt,
			failed_unlock_attempts, failed_unlock_locked_until,
			auto_lock_minutes, clear_clipboard_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		profile.ID,
		profile.Email,
		profile.VerifierHash,
		profile.KDFSalt,
		profile.FailedUnlockAttempts,
		profile.FailedUnlockLockedUntil,
		profile.AutoLockMinutes,
		profile.ClearClipboardSeconds,
		profile.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrProfileAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// GetProfile возвращает профиль пользователя
func (s *Storage) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT id, email, verifier_hash, kdf_salt,
			failed_unlock_attempts, failed_unlock_locked_until,
			auto_lock_minutes, clear_clipboard_seconds, created_at
		FROM profiles
		WHERE id = $1
	`

	p := &models.Profile{}
	var lockedUntil sql.NullTime

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID, &p.Email, &p.VerifierHash, &p.KDFSalt,
		&p.FailedUnlockAttempts, &lockedUntil,
		&p.AutoLockMinutes, &p.ClearClipboardSeconds, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrProfileNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lockedUntil.Valid {
		p.FailedUnlockLockedUntil = &lockedUntil.Time
	}

	return p, nil
}

// GetSaltByEmail возвращает соль KDF по email
func (s *Storage) GetSaltByEmail(ctx context.Context, email string) ([]byte, error) {
	var salt []byte
	err := s.db.QueryRowContext(ctx, `SELECT kdf_salt FROM profiles WHERE email = $1`, email).Scan(&salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrProfileNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return salt, nil
}

// UpdateProfile обновляет изменяемые поля профиля
func (s *Storage) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	query := `
		UPDATE profiles
		SET failed_unlock_attempts = $1, failed_unlock_locked_until = $2,
			auto_lock_minutes = $3, clear_clipboard_seconds = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(ctx, query,
		profile.FailedUnlockAttempts,
		profile.FailedUnlockLockedUntil,
		profile.AutoLockMinutes,
		profile.ClearClipboardSeconds,
		profile.ID,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectAffected(result, storage.ErrProfileNotFound)
}
