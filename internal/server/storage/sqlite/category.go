package sqlite

import (
	"context"
	"fmt"

	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/server/storage"
)

// ListCategories возвращает категории пользователя
func (s *Storage) ListCategories(ctx context.Context, userID string) ([]*models.Category, error) {
	query := `
		SELECT id, user_id, name, icon, color, sort_order, created_at
		FROM categories
		WHERE user_id = ?
		ORDER BY sort_order, name
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	categories := make([]*models.Category, 0)
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Color, &c.SortOrder, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return categories, nil
}

// CreateCategory сохраняет категорию
func (s *Storage) CreateCategory(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, user_id, name, icon, color, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		category.ID,
		category.UserID,
		category.Name,
		category.Icon,
		category.Color,
		category.SortOrder,
		category.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}

	return nil
}

// DeleteCategory удаляет категорию владельца (ON DELETE SET NULL для записей)
func (s *Storage) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	query := `DELETE FROM categories WHERE id = ? AND user_id = ?`

	result, err := s.db.ExecContext(ctx, query, categoryID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	return expectAffected(result, storage.ErrCategoryNotFound)
}
