package boltdb

import (
	"context"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/iudanet/zkvault/internal/client/storage"
	"github.com/iudanet/zkvault/internal/models"
)

// GetItems returns all items of the user, newest modification first
func (s *Storage) GetItems(_ context.Context, userID string) ([]*models.VaultItem, error) {
	var items []*models.VaultItem
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		items, err = listJSON[models.VaultItem](userBucket(tx, bucketItems, userID))
		return err
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].LastModified.After(items[j].LastModified)
	})
	return items, nil
}

// InsertItem stores a new sealed item
func (s *Storage) InsertItem(_ context.Context, item *models.VaultItem) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := categoryExists(tx, item.UserID, item.CategoryID); err != nil {
			return err
		}
		bucket, err := ensureUserBucket(tx, bucketItems, item.UserID)
		if err != nil {
			return err
		}
		if bucket.Get([]byte(item.ID)) != nil {
			return storage.ErrItemAlreadyExists
		}
		return putJSON(bucket, item.ID, item)
	})
}

// UpdateItem replaces a sealed item. CreatedAt остается прежним.
func (s *Storage) UpdateItem(_ context.Context, item *models.VaultItem) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := userBucket(tx, bucketItems, item.UserID)
		existing, ok, err := getJSON[models.VaultItem](bucket, item.ID)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrItemNotFound
		}
		if err := categoryExists(tx, item.UserID, item.CategoryID); err != nil {
			return err
		}

		updated := item.Clone()
		updated.CreatedAt = existing.CreatedAt
		return putJSON(bucket, item.ID, updated)
	})
}

// DeleteItem removes an item
func (s *Storage) DeleteItem(_ context.Context, userID, itemID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := userBucket(tx, bucketItems, userID)
		if bucket == nil || bucket.Get([]byte(itemID)) == nil {
			return storage.ErrItemNotFound
		}
		return bucket.Delete([]byte(itemID))
	})
}
