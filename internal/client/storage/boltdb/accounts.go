package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/zkvault/internal/client/storage"
	"github.com/iudanet/zkvault/internal/models"
)

// accountRecord - аккаунт offline identity provider на диске.
// models.Account не сериализует хеш, поэтому отдельная структура.
type accountRecord struct {
	CreatedAt      time.Time `json:"created_at"`
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	AuthSecretHash string    `json:"auth_secret_hash"`
}

// CreateAccount stores a new offline account keyed by email
func (s *Storage) CreateAccount(_ context.Context, account *models.Account) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAccounts)
		if bucket.Get([]byte(account.Email)) != nil {
			return storage.ErrAccountAlreadyExists
		}
		return putJSON(bucket, account.Email, accountRecord{
			CreatedAt:      account.CreatedAt,
			ID:             account.ID,
			Email:          account.Email,
			AuthSecretHash: account.AuthSecretHash,
		})
	})
}

// GetAccountByEmail retrieves an offline account
func (s *Storage) GetAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	var account *models.Account
	err := s.db.View(func(tx *bbolt.Tx) error {
		rec, ok, err := getJSON[accountRecord](tx.Bucket(bucketAccounts), email)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrAccountNotFound
		}
		account = &models.Account{
			CreatedAt:      rec.CreatedAt,
			ID:             rec.ID,
			Email:          rec.Email,
			AuthSecretHash: rec.AuthSecretHash,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount deletes the account with its profile, items and categories
// в одной транзакции
func (s *Storage) DeleteAccount(_ context.Context, userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		accounts := tx.Bucket(bucketAccounts)

		var email []byte
		err := accounts.ForEach(func(k, v []byte) error {
			var rec accountRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal account: %w", err)
			}
			if rec.ID == userID {
				email = append([]byte(nil), k...)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if email == nil {
			return storage.ErrAccountNotFound
		}

		if err := accounts.Delete(email); err != nil {
			return err
		}
		if err := tx.Bucket(bucketProfiles).Delete([]byte(userID)); err != nil {
			return err
		}
		for _, root := range [][]byte{bucketItems, bucketCategories} {
			if userBucket(tx, root, userID) == nil {
				continue
			}
			if err := tx.Bucket(root).DeleteBucket([]byte(userID)); err != nil {
				return err
			}
		}
		return nil
	})
}
