package validation

import (
	"fmt"
	"unicode/utf8"
)

const (
	// MinPasswordLen - минимальная длина master password
	MinPasswordLen = 12
	// MaxPasswordLen - ограничение сверху, чтобы не гонять KDF по мегабайтам
	MaxPasswordLen = 1024
)

// ValidatePassword проверяет минимальные требования к master password.
// Длина считается в символах, а не в байтах.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password cannot be empty", ErrInvalidInput)
	}

	n := utf8.RuneCountInString(password)
	if n < MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrInvalidInput, MinPasswordLen)
	}
	if n > MaxPasswordLen {
		return fmt.Errorf("%w: password must not exceed %d characters", ErrInvalidInput, MaxPasswordLen)
	}

	return nil
}

// ValidatePasswordConfirmation проверяет пароль и его подтверждение
func ValidatePasswordConfirmation(password, confirmation string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if password != confirmation {
		return fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}
	return nil
}
