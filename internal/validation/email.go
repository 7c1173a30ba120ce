package validation

import (
	"fmt"
	"net/mail"
	"strings"
)

// MaxEmailLen - максимальная длина email (RFC 5321)
const MaxEmailLen = 254

// NormalizeEmail приводит email к каноническому виду: без пробелов, в нижнем регистре
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail проверяет, что email - это один адрес без display name
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
	}

	if len(email) > MaxEmailLen {
		return fmt.Errorf("%w: email must not exceed %d characters", ErrInvalidInput, MaxEmailLen)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return fmt.Errorf("%w: malformed email address", ErrInvalidInput)
	}

	// mail.ParseAddress принимает "user@localhost", требуем домен с точкой
	domain := email[strings.LastIndex(email, "@")+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return fmt.Errorf("%w: malformed email address", ErrInvalidInput)
	}

	return nil
}
