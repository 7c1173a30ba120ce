package vault

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/validation"
)

// ItemInput - данные, которые пользователь задает при создании и изменении записи
type ItemInput struct {
	CategoryID *string
	Title      string
	Payload    models.ItemPayload
	IsFavorite bool
}

func (in ItemInput) validate() error {
	if err := validation.ValidateTitle(in.Title); err != nil {
		return err
	}
	for field, value := range map[string]string{
		"username": in.Payload.Username,
		"password": in.Payload.Password,
		"url":      in.Payload.URL,
		"notes":    in.Payload.Notes,
	} {
		if err := validation.ValidateText(field, value); err != nil {
			return err
		}
	}
	if err := validation.ValidateURL(in.Payload.URL); err != nil {
		return err
	}
	return validation.ValidateNotes(in.Payload.Notes)
}

// Filter - параметры выборки записей
type Filter struct {
	// Query ищется в заголовке, логине и URL
	Query         string
	CategoryID    string
	FavoritesOnly bool
}

// AddItem шифрует и сохраняет новую запись.
// Шифрование выполняется до вызова store, кэш обновляется только после успешной записи.
func (s *Session) AddItem(ctx context.Context, in ItemInput) (*models.DecryptedItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	unlock := s.itemLocks.Lock(id)
	defer unlock()

	s.mu.Lock()
	if err := s.checkUnlockedLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	now := s.now().UTC()
	item := &models.VaultItem{
		ID:           id,
		UserID:       s.identity.UserID,
		Title:        in.Title,
		CategoryID:   in.CategoryID,
		IsFavorite:   in.IsFavorite,
		CreatedAt:    now,
		LastModified: now,
		LastAccessed: now,
	}
	err := sealPayload(s.key, item, in.Payload)
	epoch := s.epoch
	s.idle = 0
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := s.store.InsertItem(ctx, item); err != nil {
		return nil, storeError("insert item", err)
	}

	decrypted := &models.DecryptedItem{Item: item, Payload: in.Payload}
	s.commit(epoch, func() { s.items[id] = decrypted })

	s.logger.DebugContext(ctx, "item added", slog.String("item_id", id))
	return decrypted.Clone(), nil
}

// UpdateItem перешифровывает запись с новым nonce и заменяет ее в store
func (s *Session) UpdateItem(ctx context.Context, id string, in ItemInput) (*models.DecryptedItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	unlock := s.itemLocks.Lock(id)
	defer unlock()

	s.mu.Lock()
	if err := s.checkUnlockedLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	current, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrItemNotFound
	}
	item := current.Item.Clone()
	item.Title = in.Title
	item.CategoryID = in.CategoryID
	item.IsFavorite = in.IsFavorite
	item.LastModified = s.now().UTC()
	err := sealPayload(s.key, item, in.Payload)
	epoch := s.epoch
	s.idle = 0
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, storeError("update item", err)
	}

	decrypted := &models.DecryptedItem{Item: item, Payload: in.Payload}
	s.commit(epoch, func() { s.items[id] = decrypted })

	s.logger.DebugContext(ctx, "item updated", slog.String("item_id", id))
	return decrypted.Clone(), nil
}

// RemoveItem удаляет запись из store и из кэша
func (s *Session) RemoveItem(ctx context.Context, id string) error {
	unlock := s.itemLocks.Lock(id)
	defer unlock()

	s.mu.Lock()
	if err := s.checkUnlockedLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := s.items[id]; !ok {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	userID := s.identity.UserID
	epoch := s.epoch
	s.idle = 0
	s.mu.Unlock()

	if err := s.store.DeleteItem(ctx, userID, id); err != nil {
		return storeError("delete item", err)
	}

	s.commit(epoch, func() { delete(s.items, id) })

	s.logger.DebugContext(ctx, "item removed", slog.String("item_id", id))
	return nil
}

// ToggleFavorite переключает признак избранного и возвращает новое значение.
// Payload не перешифровывается: признак хранится открыто.
func (s *Session) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	unlock := s.itemLocks.Lock(id)
	defer unlock()

	s.mu.Lock()
	if err := s.checkUnlockedLocked(); err != nil {
		s.mu.Unlock()
		return false, err
	}
	current, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return false, ErrItemNotFound
	}
	updated := current.Clone()
	updated.Item.IsFavorite = !updated.Item.IsFavorite
	updated.Item.LastModified = s.now().UTC()
	epoch := s.epoch
	s.idle = 0
	s.mu.Unlock()

	if err := s.store.UpdateItem(ctx, updated.Item); err != nil {
		return false, storeError("update item", err)
	}

	s.commit(epoch, func() { s.items[id] = updated })
	return updated.Item.IsFavorite, nil
}

// Item возвращает расшифрованную запись и отмечает время доступа.
// Ошибка записи времени доступа только логируется.
func (s *Session) Item(ctx context.Context, id string) (*models.DecryptedItem, error) {
	unlock := s.itemLocks.Lock(id)
	defer unlock()

	s.mu.Lock()
	if err := s.checkUnlockedLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	current, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrItemNotFound
	}
	touched := current.Clone()
	touched.Item.LastAccessed = s.now().UTC()
	epoch := s.epoch
	s.idle = 0
	s.mu.Unlock()

	if err := s.store.UpdateItem(ctx, touched.Item); err != nil {
		s.logger.WarnContext(ctx, "failed to record item access",
			slog.String("item_id", id),
			slog.Any("error", err))
		return current.Clone(), nil
	}

	s.commit(epoch, func() { s.items[id] = touched })
	return touched.Clone(), nil
}

// Items возвращает копии записей: сначала избранные, затем по заголовку
func (s *Session) Items(filter Filter) ([]*models.DecryptedItem, error) {
	s.mu.Lock()
	if err := s.checkUnlockedLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.idle = 0
	result := make([]*models.DecryptedItem, 0, len(s.items))
	for _, item := range s.items {
		if filter.FavoritesOnly && !item.Item.IsFavorite {
			continue
		}
		if filter.CategoryID != "" && (item.Item.CategoryID == nil || *item.Item.CategoryID != filter.CategoryID) {
			continue
		}
		if !item.Matches(filter.Query) {
			continue
		}
		result = append(result, item.Clone())
	}
	s.mu.Unlock()

	slices.SortFunc(result, func(a, b *models.DecryptedItem) int {
		if a.Item.IsFavorite != b.Item.IsFavorite {
			if a.Item.IsFavorite {
				return -1
			}
			return 1
		}
		if c := strings.Compare(strings.ToLower(a.Item.Title), strings.ToLower(b.Item.Title)); c != 0 {
			return c
		}
		return strings.Compare(a.Item.ID, b.Item.ID)
	})

	return result, nil
}

// Search - Items по строке запроса
func (s *Session) Search(query string) ([]*models.DecryptedItem, error) {
	return s.Items(Filter{Query: query})
}
