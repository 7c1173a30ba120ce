package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrInvalidPayloadText - поле payload не является корректным UTF-8
var ErrInvalidPayloadText = errors.New("payload field is not valid UTF-8")

// VaultItem - запись хранилища в том виде, в каком ее видит record store.
// Секретная часть (ItemPayload) лежит только в Ciphertext/IV/AuthTag.
type VaultItem struct {
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
	LastAccessed time.Time `json:"last_accessed"`
	CategoryID   *string   `json:"category_id,omitempty"` // ссылка на категорию (опционально)
	ID           string    `json:"id"`                    // UUID записи
	UserID       string    `json:"user_id"`               // владелец
	Title        string    `json:"title"`                 // открытый текст: нужен для поиска и отображения
	Ciphertext   []byte    `json:"ciphertext"`            // AES-GCM ciphertext без tag
	IV           []byte    `json:"iv"`                    // nonce, 12 байт
	AuthTag      []byte    `json:"auth_tag"`              // GCM tag, 16 байт
	IsFavorite   bool      `json:"is_favorite"`
}

// Clone возвращает глубокую копию записи
func (v *VaultItem) Clone() *VaultItem {
	if v == nil {
		return nil
	}
	c := *v
	if v.CategoryID != nil {
		id := *v.CategoryID
		c.CategoryID = &id
	}
	c.Ciphertext = bytes.Clone(v.Ciphertext)
	c.IV = bytes.Clone(v.IV)
	c.AuthTag = bytes.Clone(v.AuthTag)
	return &c
}

// ItemPayload - секретная часть записи.
// Порядок полей фиксирован: от него зависит каноническая сериализация.
type ItemPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// MarshalCanonical сериализует payload в стабильный JSON:
// поля идут в порядке объявления, пустые необязательные поля опускаются.
// Битый UTF-8 - ошибка: encoding/json молча заменил бы его на U+FFFD.
func (p ItemPayload) MarshalCanonical() ([]byte, error) {
	for _, v := range []string{p.Username, p.Password, p.URL, p.Notes} {
		if !utf8.ValidString(v) {
			return nil, ErrInvalidPayloadText
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	// Encoder добавляет перевод строки
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalItemPayload разбирает результат MarshalCanonical.
// Неизвестные поля считаются повреждением данных.
func UnmarshalItemPayload(data []byte) (ItemPayload, error) {
	var p ItemPayload
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return ItemPayload{}, fmt.Errorf("failed to decode payload: %w", err)
	}
	return p, nil
}

// DecryptedItem - запись вместе с расшифрованным payload.
// Существует только в памяти разблокированной сессии.
type DecryptedItem struct {
	Item    *VaultItem
	Payload ItemPayload
}

// Clone возвращает независимую копию
func (d *DecryptedItem) Clone() *DecryptedItem {
	if d == nil {
		return nil
	}
	return &DecryptedItem{Item: d.Item.Clone(), Payload: d.Payload}
}

// Matches проверяет запрос поиска по заголовку, логину и URL (без учета регистра).
// Пароль и заметки в поиске не участвуют.
func (d *DecryptedItem) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(d.Item.Title), q) ||
		strings.Contains(strings.ToLower(d.Payload.Username), q) ||
		strings.Contains(strings.ToLower(d.Payload.URL), q)
}

// Category - открытые метаданные для группировки записей
type Category struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	SortOrder int       `json:"sort_order"`
}
