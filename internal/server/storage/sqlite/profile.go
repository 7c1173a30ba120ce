package sqlite

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
		INSERT INTO profiles (
			id, email, verifier_hash, kdf_salt,
			failed_unlock_attempts, failed_unlock_locked_until,
			auto_lock_minutes, clear_clipboard_seconds, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		profile.ID,
		profile.Email,
		profile.VerifierHash,
		profile.KDFSalt,
		profile.FailedUnlockAttempts,
		nullableTime(profile.FailedUnlockLockedUntil),
		profile.AutoLockMinutes,
		profile.ClearClipboardSeconds,
		profile.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrProfileAlreadyExists
		}
		return fmt.Errorf("failed to insert profile: %w", err)
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
		WHERE id = ?
	`

	profile := &models.Profile{}
	var lockedUntil sql.NullTime

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID,
		&profile.Email,
		&profile.VerifierHash,
		&profile.KDFSalt,
		&profile.FailedUnlockAttempts,
		&lockedUntil,
		&profile.AutoLockMinutes,
		&profile.ClearClipboardSeconds,
		&profile.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if lockedUntil.Valid {
		profile.FailedUnlockLockedUntil = &lockedUntil.Time
	}

	return profile, nil
}

// GetSaltByEmail возвращает соль KDF по email
func (s *Storage) GetSaltByEmail(ctx context.Context, email string) ([]byte, error) {
	query := `SELECT kdf_salt FROM profiles WHERE email = ?`

	var salt []byte
	if err := s.db.QueryRowContext(ctx, query, email).Scan(&salt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get salt: %w", err)
	}

	return salt, nil
}

// UpdateProfile обновляет изменяемые поля профиля.
// Соль и verifier_hash не меняются никогда.
func (s *Storage) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	query := `
		UPDATE profiles
		SET failed_unlock_attempts = ?, failed_unlock_locked_until = ?,
			auto_lock_minutes = ?, clear_clipboard_seconds = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		profile.FailedUnlockAttempts,
		nullableTime(profile.FailedUnlockLockedUntil),
		profile.AutoLockMinutes,
		profile.ClearClipboardSeconds,
		profile.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return expectAffected(result, storage.ErrProfileNotFound)
}
