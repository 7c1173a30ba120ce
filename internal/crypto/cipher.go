package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"sync"
)

const (
	// NonceSize - размер nonce для AES-GCM (12 bytes стандартный размер)
	NonceSize = 12
	// TagSize - размер authentication tag AES-GCM
	TagSize = 16
)

// Sealed - результат шифрования одной записи.
// Все три поля хранятся раздельно (ciphertext, iv, auth_tag).
type Sealed struct {
	Ciphertext []byte
	Nonce      []byte
	Tag        []byte
}

// Key - AES-256-GCM ключ шифрования записей.
// Сырые байты ключа не покидают пакет; после Destroy любые операции
// возвращают ошибку.
type Key struct {
	aead cipher.AEAD
	raw  []byte
	mu   sync.RWMutex
}

func newKey(material []byte) (*Key, error) {
	if len(material) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(material))
	}

	raw := make([]byte, KeySize)
	copy(raw, material)

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Key{aead: aesGCM, raw: raw}, nil
}

// Seal шифрует payload со свежим случайным nonce
func (k *Key) Seal(plaintext []byte) (*Sealed, error) {
	return k.seal(plaintext, rand.Reader)
}

// seal принимает источник nonce только для тестов
func (k *Key) seal(plaintext []byte, nonceSource io.Reader) (*Sealed, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.aead == nil {
		return nil, ErrKeyDestroyed
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(nonceSource, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// GCM добавляет tag в конец, отделяем его
	out := k.aead.Seal(nil, nonce, plaintext, nil)
	split := len(out) - TagSize

	return &Sealed{
		Ciphertext: out[:split:split],
		Nonce:      nonce,
		Tag:        out[split:],
	}, nil
}

// Open проверяет tag и расшифровывает запись.
// Любая ошибка (ключ, длины, подмена байт) возвращается как ErrDecryption.
func (k *Key) Open(sealed *Sealed) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.aead == nil || sealed == nil {
		return nil, ErrDecryption
	}
	if len(sealed.Nonce) != NonceSize || len(sealed.Tag) != TagSize {
		return nil, ErrDecryption
	}

	buf := make([]byte, 0, len(sealed.Ciphertext)+TagSize)
	buf = append(buf, sealed.Ciphertext...)
	buf = append(buf, sealed.Tag...)

	plaintext, err := k.aead.Open(nil, sealed.Nonce, buf, nil)
	if err != nil {
		return nil, ErrDecryption
	}

	return plaintext, nil
}

// Destroy обнуляет ключ. Повторный вызов безопасен.
func (k *Key) Destroy() {
	if k == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	Wipe(k.raw)
	k.raw = nil
	k.aead = nil
}

// Destroyed сообщает, был ли ключ уничтожен
func (k *Key) Destroyed() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.aead == nil
}
