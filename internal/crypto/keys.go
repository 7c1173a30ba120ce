package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Параметры PBKDF2. Меняются только вместе с KDFVersion:
// изменение ломает разблокировку всех существующих аккаунтов.
const (
	// KDFVersion - версия параметров деривации, сохраняется в экспорте
	KDFVersion = 1
	// KDFIterations - количество итераций PBKDF2-HMAC-SHA256
	KDFIterations = 600_000
	// KeyMaterialSize - полный размер вывода KDF (encryption + verification)
	KeyMaterialSize = 64
	// KeySize - размер каждого из двух ключей
	KeySize = 32
	// SaltSize - размер соли в байтах
	SaltSize = 16
)

// Keys - результат одной деривации.
// Key - непрозрачный AEAD ключ для шифрования записей,
// Verifier - SHA-256 от verification key, можно хранить на сервере,
// AuthSecret - секрет для identity provider, отличный от Verifier.
type Keys struct {
	Key        *Key
	AuthSecret string
	Verifier   []byte
}

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: failed to generate salt: %v", ErrKeyDerivation, err)
	}
	return salt, nil
}

// DeriveKeys выводит из master password и соли оба ключа за один вызов KDF.
// Первые 32 байта становятся ключом шифрования, вторые 32 байта хешируются в Verifier.
// Половины никогда не выводятся отдельно.
func DeriveKeys(masterPassword string, salt []byte) (*Keys, error) {
	return DeriveKeysWithIterations(masterPassword, salt, KDFIterations)
}

// DeriveKeysWithIterations - DeriveKeys с явным числом итераций.
// Нужен тестам и будущим версиям KDF; в продакшене используйте DeriveKeys.
func DeriveKeysWithIterations(masterPassword string, salt []byte, iterations int) (*Keys, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("%w: iterations must be positive", ErrKeyDerivation)
	}
	if masterPassword == "" {
		return nil, fmt.Errorf("%w: master password cannot be empty", ErrKeyDerivation)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrKeyDerivation, SaltSize, len(salt))
	}

	password := []byte(masterPassword)
	material := pbkdf2.Key(password, salt, iterations, KeyMaterialSize, sha256.New)
	Wipe(password)
	defer Wipe(material)

	if len(material) != KeyMaterialSize {
		return nil, fmt.Errorf("%w: unexpected key material size %d", ErrKeyDerivation, len(material))
	}

	key, err := newKey(material[:KeySize])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}

	verifier := sha256.Sum256(material[KeySize:])

	return &Keys{
		Key:        key,
		Verifier:   verifier[:],
		AuthSecret: authSecret(material[KeySize:]),
	}, nil
}

// Destroy обнуляет ключ и verifier
func (k *Keys) Destroy() {
	if k == nil {
		return
	}
	k.Key.Destroy()
	Wipe(k.Verifier)
}

// Wipe перезаписывает буфер нулями
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
