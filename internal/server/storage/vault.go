package storage

import (
	"context"

	"github.com/iudanet/zkvault/internal/models"
)

// ProfileStorage хранит профиль хранилища: соль KDF, хеш verifier,
// счетчик неудачных разблокировок и настройки.
type ProfileStorage interface {
	// CreateProfile сохраняет профиль, записанный при регистрации
	// Returns ErrProfileAlreadyExists if profile exists
	CreateProfile(ctx context.Context, profile *models.Profile) error

	// GetProfile возвращает профиль пользователя
	// Returns ErrProfileNotFound if profile doesn't exist
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)

	// GetSaltByEmail возвращает соль KDF по email (нужна до входа)
	// Returns ErrProfileNotFound if profile doesn't exist
	GetSaltByEmail(ctx context.Context, email string) ([]byte, error)

	// UpdateProfile обновляет только изменяемые поля:
	// счетчик неудач, время блокировки и настройки.
	// Returns ErrProfileNotFound if profile doesn't exist
	UpdateProfile(ctx context.Context, profile *models.Profile) error
}

// ItemStorage хранит зашифрованные записи. Все операции ограничены владельцем.
type ItemStorage interface {
	// ListItems возвращает все записи пользователя
	ListItems(ctx context.Context, userID string) ([]*models.VaultItem, error)

	// CreateItem сохраняет новую запись
	// Returns ErrItemAlreadyExists if id is taken, ErrCategoryNotFound for foreign category
	CreateItem(ctx context.Context, item *models.VaultItem) error

	// UpdateItem заменяет запись владельца
	// Returns ErrItemNotFound if item doesn't exist or belongs to another user
	UpdateItem(ctx context.Context, item *models.VaultItem) error

	// DeleteItem удаляет запись владельца
	// Returns ErrItemNotFound if item doesn't exist or belongs to another user
	DeleteItem(ctx context.Context, userID, itemID string) error
}

// CategoryStorage хранит открытые категории
type CategoryStorage interface {
	// ListCategories возвращает категории пользователя по sort_order
	ListCategories(ctx context.Context, userID string) ([]*models.Category, error)

	// CreateCategory сохраняет новую категорию
	CreateCategory(ctx context.Context, category *models.Category) error

	// DeleteCategory удаляет категорию; записи теряют ссылку на нее
	// Returns ErrCategoryNotFound if category doesn't exist or belongs to another user
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// Storage объединяет все хранилища сервера
type Storage interface {
	AccountStorage
	ProfileStorage
	ItemStorage
	CategoryStorage
	TokenStorage

	// Ping проверяет доступность базы
	Ping(ctx context.Context) error

	// Close закрывает соединение
	Close() error
}
