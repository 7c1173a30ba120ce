package postgres

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
		WHERE user_id = $1
		ORDER BY sort_order, name
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	categories := make([]*models.Category, 0)
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Color, &c.SortOrder, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return categories, nil
}

// CreateCategory сохраняет категорию
func (s *Storage) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (id, user_id, name, icon, color, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if _, err := s.db.ExecContext(ctx, query, c.ID, c.UserID, c.Name, c.Icon, c.Color, c.SortOrder, c.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// DeleteCategory удаляет категорию владельца
func (s *Storage) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectAffected(result, storage.ErrCategoryNotFound)
}
