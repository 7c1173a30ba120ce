package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/server/storage"
)

// ListItems возвращает все записи пользователя
func (s *Storage) ListItems(ctx context.Context, userID string) ([]*models.VaultItem, error) {
	query := `
		SELECT id, user_id, category_id, title, ciphertext, iv, auth_tag,
			is_favorite, created_at, last_modified, last_accessed
		FROM vault_items
		WHERE user_id = ?
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	items := make([]*models.VaultItem, 0)
	for rows.Next() {
		item := &models.VaultItem{}
		var categoryID sql.NullString
		var favorite int

		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&categoryID,
			&item.Title,
			&item.Ciphertext,
			&item.IV,
			&item.AuthTag,
			&favorite,
			&item.CreatedAt,
			&item.LastModified,
			&item.LastAccessed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		if categoryID.Valid {
			item.CategoryID = &categoryID.String
		}
		item.IsFavorite = favorite != 0
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}

// CreateItem сохраняет новую запись
func (s *Storage) CreateItem(ctx context.Context, item *models.VaultItem) error {
	if err := s.checkCategory(ctx, item.UserID, item.CategoryID); err != nil {
		return err
	}

	query := `
		INSERT INTO vault_items (
			id, user_id, category_id, title, ciphertext, iv, auth_tag,
			is_favorite, created_at, last_modified, last_accessed
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		item.ID,
		item.UserID,
		item.CategoryID,
		item.Title,
		item.Ciphertext,
		item.IV,
		item.AuthTag,
		boolToInt(item.IsFavorite),
		item.CreatedAt.UTC(),
		item.LastModified.UTC(),
		item.LastAccessed.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrItemAlreadyExists
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

// UpdateItem заменяет запись владельца. created_at не меняется.
func (s *Storage) UpdateItem(ctx context.Context, item *models.VaultItem) error {
	if err := s.checkCategory(ctx, item.UserID, item.CategoryID); err != nil {
		return err
	}

	query := `
		UPDATE vault_items
		SET category_id = ?, title = ?, ciphertext = ?, iv = ?, auth_tag = ?,
			is_favorite = ?, last_modified = ?, last_accessed = ?
		WHERE id = ? AND user_id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		item.CategoryID,
		item.Title,
		item.Ciphertext,
		item.IV,
		item.AuthTag,
		boolToInt(item.IsFavorite),
		item.LastModified.UTC(),
		item.LastAccessed.UTC(),
		item.ID,
		item.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	return expectAffected(result, storage.ErrItemNotFound)
}

// DeleteItem удаляет запись владельца
func (s *Storage) DeleteItem(ctx context.Context, userID, itemID string) error {
	query := `DELETE FROM vault_items WHERE id = ? AND user_id = ?`

	result, err := s.db.ExecContext(ctx, query, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	return expectAffected(result, storage.ErrItemNotFound)
}

// checkCategory проверяет, что категория принадлежит владельцу записи
func (s *Storage) checkCategory(ctx context.Context, userID string, categoryID *string) error {
	if categoryID == nil {
		return nil
	}

	var exists int
	query := `SELECT COUNT(1) FROM categories WHERE id = ? AND user_id = ?`
	if err := s.db.QueryRowContext(ctx, query, *categoryID, userID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if exists == 0 {
		return storage.ErrCategoryNotFound
	}

	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
