// Package generator produces random passwords and scores password strength.
package generator

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/iudanet/zkvault/internal/validation"
)

// Наборы символов по классам
const (
	Uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Lowercase = "abcdefghijklmnopqrstuvwxyz"
	Digits    = "0123456789"
	Symbols   = "!@#$%^&*()-_=+[]{};:,.<>?/~"
)

const (
	// MinLength - минимальная длина сгенерированного пароля
	MinLength = 4
	// MaxLength - максимальная длина сгенерированного пароля
	MaxLength = 128
	// DefaultLength - длина по умолчанию для CLI
	DefaultLength = 20
)

// Classes - набор включенных классов символов
type Classes struct {
	Upper   bool
	Lower   bool
	Digits  bool
	Symbols bool
}

// AllClasses включает все четыре класса
func AllClasses() Classes {
	return Classes{Upper: true, Lower: true, Digits: true, Symbols: true}
}

// charsets возвращает наборы включенных классов.
// Если ни один класс не включен, используется lowercase + digits.
func (c Classes) charsets() []string {
	var sets []string
	if c.Upper {
		sets = append(sets, Uppercase)
	}
	if c.Lower {
		sets = append(sets, Lowercase)
	}
	if c.Digits {
		sets = append(sets, Digits)
	}
	if c.Symbols {
		sets = append(sets, Symbols)
	}
	if len(sets) == 0 {
		sets = []string{Lowercase, Digits}
	}
	return sets
}

// Generate возвращает случайный пароль длины length.
// Каждый включенный класс встречается хотя бы один раз.
func Generate(length int, classes Classes) (string, error) {
	return generate(rand.Reader, length, classes)
}

func generate(src io.Reader, length int, classes Classes) (string, error) {
	sets := classes.charsets()

	if length < MinLength || length > MaxLength {
		return "", fmt.Errorf("%w: length must be between %d and %d", validation.ErrInvalidInput, MinLength, MaxLength)
	}
	if length < len(sets) {
		return "", fmt.Errorf("%w: length %d is too short for %d character classes", validation.ErrInvalidInput, length, len(sets))
	}

	var all string
	for _, set := range sets {
		all += set
	}

	out := make([]byte, 0, length)

	// По одному символу из каждого класса
	for _, set := range sets {
		c, err := pick(src, set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Остальное из объединения классов
	for len(out) < length {
		c, err := pick(src, all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates, чтобы обязательные символы не стояли в начале
	for i := len(out) - 1; i > 0; i-- {
		j, err := randIndex(src, i+1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func pick(src io.Reader, charset string) (byte, error) {
	idx, err := randIndex(src, len(charset))
	if err != nil {
		return 0, err
	}
	return charset[idx], nil
}

// randIndex - равномерный (с точностью до смещения модуло) индекс в [0, n).
// Смещение от деления 32-битного числа по модулю n < 128 не превышает n/2^32,
// для наборов такого размера этим можно пренебречь.
func randIndex(src io.Reader, n int) (int, error) {
	var buf [4]byte
	if _, err := io.ReadFull(src, buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read random source: %w", err)
	}
	return int(binary.BigEndian.Uint32(buf[:]) % uint32(n)), nil
}
