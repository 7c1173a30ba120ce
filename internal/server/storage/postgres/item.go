package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/server/storage"
)

// ListItems возвращает все записи пользователя
func (s *Storage) ListItems(ctx context.Context, userID string) ([]*models.VaultItem, error) {
	query := `
		SELECT id, user_id, category_id, title, ciphertext, iv, auth_tag,
			is_favorite, created_at, last_modified, last_accessed
		FROM vault_items
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	items := make([]*models.VaultItem, 0)
	for rows.Next() {
		item := &models.VaultItem{}
		var categoryID sql.NullString

		if err := rows.Scan(
			&item.ID, &item.UserID, &categoryID, &item.Title,
			&item.Ciphertext, &item.IV, &item.AuthTag, &item.IsFavorite,
			&item.CreatedAt, &item.LastModified, &item.LastAccessed,
		); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		if categoryID.Valid {
			item.CategoryID = &categoryID.String
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// CreateItem сохраняет новую запись. Категория должна принадлежать тому же пользователю.
func (s *Storage) CreateItem(ctx context.Context, item *models.VaultItem) error {
	query := `
		INSERT INTO vault_items (id, user_id, category_id, title, ciphertext, iv, auth_tag,
			is_favorite, created_at, last_modified, last_accessed)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		WHERE $3::uuid IS NULL OR EXISTS (SELECT 1 FROM categories WHERE id = $3 AND user_id = $2)
	`

	result, err := s.db.ExecContext(ctx, query,
		item.ID, item.UserID, item.CategoryID, item.Title,
		item.Ciphertext, item.IV, item.AuthTag, item.IsFavorite,
		item.CreatedAt, item.LastModified, item.LastAccessed,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrItemAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return expectAffected(result, storage.ErrCategoryNotFound)
}

// UpdateItem заменяет запись владельца
func (s *Storage) UpdateItem(ctx context.Context, item *models.VaultItem) error {
	if item.CategoryID != nil {
		var exists bool
		err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND user_id = $2)`,
			*item.CategoryID, item.UserID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if !exists {
			return storage.ErrCategoryNotFound
		}
	}

	query := `
		UPDATE vault_items
		SET category_id = $1, title = $2, ciphertext = $3, iv = $4, auth_tag = $5,
			is_favorite = $6, last_modified = $7, last_accessed = $8
		WHERE id = $9 AND user_id = $10
	`

	result, err := s.db.ExecContext(ctx, query,
		item.CategoryID, item.Title, item.Ciphertext, item.IV, item.AuthTag,
		item.IsFavorite, item.LastModified, item.LastAccessed,
		item.ID, item.UserID,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectAffected(result, storage.ErrItemNotFound)
}

// DeleteItem удаляет запись владельца
func (s *Storage) DeleteItem(ctx context.Context, userID, itemID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM vault_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectAffected(result, storage.ErrItemNotFound)
}
