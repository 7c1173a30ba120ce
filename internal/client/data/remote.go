// Package data адаптирует HTTP API сервера к record store хранилища.
// Через него проходят только ciphertext и открытые метаданные.
package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/zkvault/internal/client/api"
	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/vault"
	pkgapi "github.com/iudanet/zkvault/pkg/api"
)

// ErrWrongUser - запрос для пользователя, отличного от вошедшего
var ErrWrongUser = errors.New("record store is bound to another user")

// RemoteStore - vault.RecordStore поверх API клиента.
// Сервер определяет владельца по access token; userID сверяется с ним.
type RemoteStore struct {
	client *api.Client
}

var _ vault.RecordStore = (*RemoteStore)(nil)

// NewRemoteStore создает удаленный record store
func NewRemoteStore(client *api.Client) *RemoteStore {
	return &RemoteStore{client: client}
}

func (s *RemoteStore) checkUser(userID string) error {
	identity := s.client.Identity()
	if identity == nil {
		return api.ErrNoSession
	}
	if identity.UserID != userID {
		return ErrWrongUser
	}
	return nil
}

// GetProfile returns the profile of the signed-in user
func (s *RemoteStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if err := s.checkUser(userID); err != nil {
		return nil, err
	}
	profile, err := s.client.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	return profile.ToModel(userID, profile.Email), nil
}

// CreateProfile stores the profile written at registration
func (s *RemoteStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if err := s.checkUser(profile.ID); err != nil {
		return err
	}
	return s.client.CreateProfile(ctx, pkgapi.ProfileFromModel(profile))
}

// UpdateProfile persists lockout counters and settings
func (s *RemoteStore) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	if err := s.checkUser(profile.ID); err != nil {
		return err
	}
	return s.client.UpdateProfile(ctx, pkgapi.ProfileFromModel(profile))
}

// GetItems returns all sealed items
func (s *RemoteStore) GetItems(ctx context.Context, userID string) ([]*models.VaultItem, error) {
	if err := s.checkUser(userID); err != nil {
		return nil, err
	}
	items, err := s.client.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.VaultItem, 0, len(items))
	for _, item := range items {
		out = append(out, item.ToModel(userID))
	}
	return out, nil
}

// InsertItem uploads a new sealed item
func (s *RemoteStore) InsertItem(ctx context.Context, item *models.VaultItem) error {
	if err := s.checkUser(item.UserID); err != nil {
		return err
	}
	return s.client.CreateItem(ctx, pkgapi.ItemFromModel(item))
}

// UpdateItem replaces a sealed item
func (s *RemoteStore) UpdateItem(ctx context.Context, item *models.VaultItem) error {
	if err := s.checkUser(item.UserID); err != nil {
		return err
	}
	return s.client.UpdateItem(ctx, pkgapi.ItemFromModel(item))
}

// DeleteItem removes an item
func (s *RemoteStore) DeleteItem(ctx context.Context, userID, itemID string) error {
	if err := s.checkUser(userID); err != nil {
		return err
	}
	return s.client.DeleteItem(ctx, itemID)
}

// GetCategories returns the user's categories
func (s *RemoteStore) GetCategories(ctx context.Context, userID string) ([]*models.Category, error) {
	if err := s.checkUser(userID); err != nil {
		return nil, err
	}
	categories, err := s.client.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, c.ToModel(userID))
	}
	return out, nil
}

// InsertCategory creates a category
func (s *RemoteStore) InsertCategory(ctx context.Context, category *models.Category) error {
	if err := s.checkUser(category.UserID); err != nil {
		return err
	}
	if err := s.client.CreateCategory(ctx, pkgapi.CategoryFromModel(category)); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category
func (s *RemoteStore) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	if err := s.checkUser(userID); err != nil {
		return err
	}
	return s.client.DeleteCategory(ctx, categoryID)
}
