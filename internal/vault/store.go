package vault

import (
	"context"

	"github.com/iudanet/zkvault/internal/models"
)

// RecordStore - хранилище записей пользователя, которым пользуется сессия.
// Реализации получают только шифртекст и публичные параметры KDF,
// каждый вызов ограничен владельцем.
type RecordStore interface {
	// GetProfile возвращает соль, хеш verifier, состояние блокировки и настройки
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)

	// CreateProfile сохраняет профиль при регистрации
	CreateProfile(ctx context.Context, profile *models.Profile) error

	// UpdateProfile сохраняет изменяемые поля: счетчики блокировки и настройки.
	// Соль и хеш verifier не меняются.
	UpdateProfile(ctx context.Context, profile *models.Profile) error

	// GetItems возвращает все записи пользователя
	GetItems(ctx context.Context, userID string) ([]*models.VaultItem, error)

	// InsertItem сохраняет новую зашифрованную запись
	InsertItem(ctx context.Context, item *models.VaultItem) error

	// UpdateItem заменяет зашифрованную запись
	UpdateItem(ctx context.Context, item *models.VaultItem) error

	// DeleteItem удаляет запись
	DeleteItem(ctx context.Context, userID, itemID string) error

	// GetCategories возвращает категории в порядке sort order
	GetCategories(ctx context.Context, userID string) ([]*models.Category, error)

	// InsertCategory сохраняет новую категорию
	InsertCategory(ctx context.Context, category *models.Category) error

	// DeleteCategory удаляет категорию, записи теряют ссылку на нее
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// IdentityProvider аутентифицирует аккаунт независимо от verifier хранилища.
// authSecret - производный токен, а не мастер-пароль и не ключ.
type IdentityProvider interface {
	// GetSalt возвращает публичную соль KDF, нужную для authSecret до входа
	GetSalt(ctx context.Context, email string) ([]byte, error)

	// SignUp создает аккаунт и выполняет вход
	SignUp(ctx context.Context, email, authSecret string) (*models.Identity, error)

	// SignIn выполняет вход в существующий аккаунт
	SignIn(ctx context.Context, email, authSecret string) (*models.Identity, error)

	// SignOut завершает сессию провайдера
	SignOut(ctx context.Context) error

	// DeleteAccount удаляет текущий аккаунт со всеми записями
	DeleteAccount(ctx context.Context) error
}
