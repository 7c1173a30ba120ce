package boltdb

import (
	"context"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/iudanet/zkvault/internal/client/storage"
	"github.com/iudanet/zkvault/internal/models"
)

// GetCategories returns the user's categories ordered by sort order, then name
func (s *Storage) GetCategories(_ context.Context, userID string) ([]*models.Category, error) {
	var categories []*models.Category
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		categories, err = listJSON[models.Category](userBucket(tx, bucketCategories, userID))
		return err
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].SortOrder != categories[j].SortOrder {
			return categories[i].SortOrder < categories[j].SortOrder
		}
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

// InsertCategory stores a new category
func (s *Storage) InsertCategory(_ context.Context, category *models.Category) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := ensureUserBucket(tx, bucketCategories, category.UserID)
		if err != nil {
			return err
		}
		return putJSON(bucket, category.ID, category)
	})
}

// DeleteCategory removes a category; items referencing it lose the reference
func (s *Storage) DeleteCategory(_ context.Context, userID, categoryID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := userBucket(tx, bucketCategories, userID)
		if bucket == nil || bucket.Get([]byte(categoryID)) == nil {
			return storage.ErrCategoryNotFound
		}
		if err := bucket.Delete([]byte(categoryID)); err != nil {
			return err
		}

		items := userBucket(tx, bucketItems, userID)
		all, err := listJSON[models.VaultItem](items)
		if err != nil {
			return err
		}
		for _, item := range all {
			if item.CategoryID == nil || *item.CategoryID != categoryID {
				continue
			}
			item.CategoryID = nil
			if err := putJSON(items, item.ID, item); err != nil {
				return err
			}
		}
		return nil
	})
}
