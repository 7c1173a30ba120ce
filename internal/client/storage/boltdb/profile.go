package boltdb

import (
	"context"

	"go.etcd.io/bbolt"

	"github.com/iudanet/zkvault/internal/client/storage"
	"github.com/iudanet/zkvault/internal/models"
)

// CreateProfile stores the profile written at registration
func (s *Storage) CreateProfile(_ context.Context, profile *models.Profile) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketProfiles)
		if bucket.Get([]byte(profile.ID)) != nil {
			return storage.ErrProfileAlreadyExists
		}
		return putJSON(bucket, profile.ID, profile)
	})
}

// GetProfile returns the user's profile
func (s *Storage) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	var profile *models.Profile
	err := s.db.View(func(tx *bbolt.Tx) error {
		p, ok, err := getJSON[models.Profile](tx.Bucket(bucketProfiles), userID)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrProfileNotFound
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// GetSaltByEmail returns the KDF salt of the profile owned by email
func (s *Storage) GetSaltByEmail(_ context.Context, email string) ([]byte, error) {
	var salt []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		profiles, err := listJSON[models.Profile](tx.Bucket(bucketProfiles))
		if err != nil {
			return err
		}
		for _, p := range profiles {
			if p.Email == email {
				salt = p.KDFSalt
				return nil
			}
		}
		return storage.ErrProfileNotFound
	})
	if err != nil {
		return nil, err
	}
	return salt, nil
}

// UpdateProfile updates only the mutable fields: lockout state and settings
func (s *Storage) UpdateProfile(_ context.Context, profile *models.Profile) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketProfiles)
		existing, ok, err := getJSON[models.Profile](bucket, profile.ID)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrProfileNotFound
		}

		existing.FailedUnlockAttempts = profile.FailedUnlockAttempts
		existing.FailedUnlockLockedUntil = profile.FailedUnlockLockedUntil
		existing.AutoLockMinutes = profile.AutoLockMinutes
		existing.ClearClipboardSeconds = profile.ClearClipboardSeconds

		return putJSON(bucket, profile.ID, existing)
	})
}

// categoryExists проверяет принадлежность категории пользователю
func categoryExists(tx *bbolt.Tx, userID string, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	b := userBucket(tx, bucketCategories, userID)
	if b == nil || b.Get([]byte(*categoryID)) == nil {
		return storage.ErrCategoryNotFound
	}
	return nil
}
