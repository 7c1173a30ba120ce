package api

import (
	"time"

	"github.com/iudanet/zkvault/internal/models"
)

// Profile - профиль хранилища в API.
// При создании сервер берет ID и email из токена, а не из тела запроса.
type Profile struct {
	CreatedAt               time.Time  `json:"created_at"`
	FailedUnlockLockedUntil *time.Time `json:"failed_unlock_locked_until,omitempty"`
	Email                   string     `json:"email,omitempty"`
	VerifierHash            string     `json:"verifier_hash"`
	KDFSalt                 []byte     `json:"kdf_salt"`
	FailedUnlockAttempts    int        `json:"failed_unlock_attempts"`
	AutoLockMinutes         int        `json:"auto_lock_minutes"`
	ClearClipboardSeconds   int        `json:"clear_clipboard_seconds"`
}

// ProfileFromModel конвертирует модель в DTO
func ProfileFromModel(p *models.Profile) Profile {
	return Profile{
		CreatedAt:               p.CreatedAt,
		FailedUnlockLockedUntil: p.FailedUnlockLockedUntil,
		Email:                   p.Email,
		VerifierHash:            p.VerifierHash,
		KDFSalt:                 p.KDFSalt,
		FailedUnlockAttempts:    p.FailedUnlockAttempts,
		AutoLockMinutes:         p.AutoLockMinutes,
		ClearClipboardSeconds:   p.ClearClipboardSeconds,
	}
}

// ToModel конвертирует DTO в модель владельца userID
func (p Profile) ToModel(userID, email string) *models.Profile {
	return &models.Profile{
		CreatedAt:               p.CreatedAt,
		FailedUnlockLockedUntil: p.FailedUnlockLockedUntil,
		ID:                      userID,
		Email:                   email,
		VerifierHash:            p.VerifierHash,
		KDFSalt:                 p.KDFSalt,
		FailedUnlockAttempts:    p.FailedUnlockAttempts,
		AutoLockMinutes:         p.AutoLockMinutes,
		ClearClipboardSeconds:   p.ClearClipboardSeconds,
	}
}

// Item - зашифрованная запись хранилища в API
type Item struct {
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
	LastAccessed time.Time `json:"last_accessed"`
	CategoryID   *string   `json:"category_id,omitempty"`
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Ciphertext   []byte    `json:"ciphertext"`
	IV           []byte    `json:"iv"`
	AuthTag      []byte    `json:"auth_tag"`
	IsFavorite   bool      `json:"is_favorite"`
}

// ItemFromModel конвертирует модель в DTO
func ItemFromModel(v *models.VaultItem) Item {
	return Item{
		CreatedAt:    v.CreatedAt,
		LastModified: v.LastModified,
		LastAccessed: v.LastAccessed,
		CategoryID:   v.CategoryID,
		ID:           v.ID,
		Title:        v.Title,
		Ciphertext:   v.Ciphertext,
		IV:           v.IV,
		AuthTag:      v.AuthTag,
		IsFavorite:   v.IsFavorite,
	}
}

// ToModel конвертирует DTO в модель владельца userID
func (i Item) ToModel(userID string) *models.VaultItem {
	return &models.VaultItem{
		CreatedAt:    i.CreatedAt,
		LastModified: i.LastModified,
		LastAccessed: i.LastAccessed,
		CategoryID:   i.CategoryID,
		ID:           i.ID,
		UserID:       userID,
		Title:        i.Title,
		Ciphertext:   i.Ciphertext,
		IV:           i.IV,
		AuthTag:      i.AuthTag,
		IsFavorite:   i.IsFavorite,
	}
}

// ItemsResponse - список записей пользователя
type ItemsResponse struct {
	Items []Item `json:"items"`
}

// Category - категория записей (открытые метаданные)
type Category struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	Color     string    `json:"color,omitempty"`
	SortOrder int       `json:"sort_order"`
}

// CategoryFromModel конвертирует модель в DTO
func CategoryFromModel(c *models.Category) Category {
	return Category{
		CreatedAt: c.CreatedAt,
		ID:        c.ID,
		Name:      c.Name,
		Icon:      c.Icon,
		Color:     c.Color,
		SortOrder: c.SortOrder,
	}
}

// ToModel конвертирует DTO в модель владельца userID
func (c Category) ToModel(userID string) *models.Category {
	return &models.Category{
		CreatedAt: c.CreatedAt,
		ID:        c.ID,
		UserID:    userID,
		Name:      c.Name,
		Icon:      c.Icon,
		Color:     c.Color,
		SortOrder: c.SortOrder,
	}
}

// CategoriesResponse - список категорий пользователя
type CategoriesResponse struct {
	Categories []Category `json:"categories"`
}
