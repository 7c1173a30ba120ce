// Package export собирает резервную копию хранилища: только ciphertext
// записей, открытые метаданные и публичные параметры KDF. Расшифровать
// копию можно лишь мастер-паролем владельца.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/zkvault/internal/crypto"
	"github.com/iudanet/zkvault/internal/vault"
	"github.com/iudanet/zkvault/pkg/api"
)

// Формат резервной копии
const (
	Format  = "zkvault-export"
	Version = 1
)

// ErrNoUser - экспорт без вошедшего пользователя
var ErrNoUser = errors.New("export requires a signed-in user")

// KDFParams - публичные параметры деривации ключа
type KDFParams struct {
	Algorithm  string `json:"algorithm"`
	Salt       []byte `json:"salt"`
	Iterations int    `json:"iterations"`
	KeyLength  int    `json:"key_length"`
}

// Bundle - содержимое резервной копии
type Bundle struct {
	ExportedAt time.Time      `json:"exported_at"`
	Format     string         `json:"format"`
	Email      string         `json:"email"`
	KDF        KDFParams      `json:"kdf"`
	Items      []api.Item     `json:"items"`
	Categories []api.Category `json:"categories"`
	Version    int            `json:"version"`
}

// Build читает профиль, записи и категории пользователя из record store.
// Verifier hash и счетчики блокировки в копию не попадают.
func Build(ctx context.Context, store vault.RecordStore, userID string, now time.Time) (*Bundle, error) {
	if userID == "" {
		return nil, ErrNoUser
	}

	profile, err := store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	items, err := store.GetItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	categories, err := store.GetCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	b := &Bundle{
		ExportedAt: now.UTC(),
		Format:     Format,
		Version:    Version,
		Email:      profile.Email,
		KDF: KDFParams{
			Algorithm:  "PBKDF2-SHA256",
			Salt:       profile.KDFSalt,
			Iterations: crypto.KDFIterations,
			KeyLength:  crypto.KeyMaterialSize,
		},
		Items:      make([]api.Item, 0, len(items)),
		Categories: make([]api.Category, 0, len(categories)),
	}
	for _, item := range items {
		b.Items = append(b.Items, api.ItemFromModel(item))
	}
	for _, c := range categories {
		b.Categories = append(b.Categories, api.CategoryFromModel(c))
	}
	return b, nil
}

// Marshal сериализует копию в JSON
func (b *Bundle) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return data, nil
}

// FileName - имя файла копии по умолчанию
func (b *Bundle) FileName() string {
	return fmt.Sprintf("zkvault-export-%s.json", b.ExportedAt.Format("20060102-150405"))
}

// Sink - место назначения резервной копии
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}
