package vault

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/validation"
)

// SetAutoLockMinutes сохраняет интервал автоблокировки (0 - выключена)
func (s *Session) SetAutoLockMinutes(ctx context.Context, minutes int) error {
	if err := validation.ValidateAutoLockMinutes(minutes); err != nil {
		return err
	}
	return s.updateSettings(ctx, func(p *models.Profile) { p.AutoLockMinutes = minutes })
}

// SetClearClipboardSeconds сохраняет задержку очистки буфера обмена (0 - не очищать)
func (s *Session) SetClearClipboardSeconds(ctx context.Context, seconds int) error {
	if err := validation.ValidateClearClipboardSeconds(seconds); err != nil {
		return err
	}
	return s.updateSettings(ctx, func(p *models.Profile) { p.ClearClipboardSeconds = seconds })
}

func (s *Session) updateSettings(ctx context.Context, apply func(*models.Profile)) error {
	userID, _, err := s.requireAuthenticated()
	if err != nil {
		return err
	}

	s.profileMu.Lock()
	defer s.profileMu.Unlock()

	profile, err := s.modifyProfileLocked(ctx, userID, apply)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.identity != nil && s.identity.UserID == userID {
		s.settings = Settings{
			AutoLockMinutes:       profile.AutoLockMinutes,
			ClearClipboardSeconds: profile.ClearClipboardSeconds,
		}
		s.idle = 0
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "settings updated",
		slog.String("user_id", userID),
		slog.Int("auto_lock_minutes", profile.AutoLockMinutes),
		slog.Int("clear_clipboard_seconds", profile.ClearClipboardSeconds))
	return nil
}

// CategoryInput - данные новой категории
type CategoryInput struct {
	Name      string
	Icon      string
	Color     string
	SortOrder int
}

// Categories возвращает категории пользователя. Доступна и в заблокированном состоянии.
func (s *Session) Categories(ctx context.Context) ([]*models.Category, error) {
	userID, _, err := s.requireAuthenticated()
	if err != nil {
		return nil, err
	}

	categories, err := s.store.GetCategories(ctx, userID)
	if err != nil {
		return nil, storeError("get categories", err)
	}
	return categories, nil
}

// AddCategory создает категорию
func (s *Session) AddCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateCategoryName(name); err != nil {
		return nil, err
	}

	userID, _, err := s.requireAuthenticated()
	if err != nil {
		return nil, err
	}

	category := &models.Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Icon:      in.Icon,
		Color:     in.Color,
		SortOrder: in.SortOrder,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertCategory(ctx, category); err != nil {
		return nil, storeError("insert category", err)
	}
	return category, nil
}

// RemoveCategory удаляет категорию; записи кэша теряют ссылку на нее
func (s *Session) RemoveCategory(ctx context.Context, id string) error {
	userID, epoch, err := s.requireAuthenticated()
	if err != nil {
		return err
	}

	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return storeError("delete category", err)
	}

	s.commit(epoch, func() {
		for itemID, item := range s.items {
			if item.Item.CategoryID != nil && *item.Item.CategoryID == id {
				updated := item.Clone()
				updated.Item.CategoryID = nil
				s.items[itemID] = updated
			}
		}
	})
	return nil
}
