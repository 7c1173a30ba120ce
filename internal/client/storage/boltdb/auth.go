package boltdb

import (
	"context"

	"go.etcd.io/bbolt"

	"github.com/iudanet/zkvault/internal/client/storage"
	"github.com/iudanet/zkvault/internal/models"
)

// identityKey - единственная запись bucket'а auth: текущая сессия
const identityKey = "identity"

// SaveAuth запоминает identity (с токенами в online режиме), чтобы
// следующий запуск CLI мог продолжить сессию без повторного login.
func (s *Storage) SaveAuth(_ context.Context, identity *models.Identity) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket(bucketAuth), identityKey, identity)
	})
}

// GetAuth returns storage.ErrAuthNotFound when nobody is signed in
func (s *Storage) GetAuth(_ context.Context) (*models.Identity, error) {
	var identity *models.Identity
	err := s.db.View(func(tx *bbolt.Tx) error {
		v, ok, err := getJSON[models.Identity](tx.Bucket(bucketAuth), identityKey)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrAuthNotFound
		}
		identity = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// DeleteAuth забывает сессию. Отсутствие сессии не ошибка.
func (s *Storage) DeleteAuth(_ context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAuth).Delete([]byte(identityKey))
	})
}
