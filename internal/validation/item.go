package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTitleLen - максимальная длина заголовка записи
	MaxTitleLen = 200
	// MaxNotesLen - максимальная длина заметок
	MaxNotesLen = 10_000
	// MaxCategoryNameLen - максимальная длина названия категории
	MaxCategoryNameLen = 64
)

// ValidateText проверяет, что поле - корректный UTF-8.
// JSON заменяет битые байты на U+FFFD, и расшифрованная запись
// перестала бы совпадать с сохраненной.
func ValidateText(field, value string) error {
	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: %s must be valid UTF-8 text", ErrInvalidInput, field)
	}
	return nil
}

// ValidateTitle проверяет заголовок записи (хранится в открытом виде)
func ValidateTitle(title string) error {
	if err := ValidateText("title", title); err != nil {
		return err
	}
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return fmt.Errorf("%w: title must not exceed %d characters", ErrInvalidInput, MaxTitleLen)
	}
	return nil
}

// ValidateURL проверяет необязательный URL записи
func ValidateURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: url must be absolute, e.g. https://example.com", ErrInvalidInput)
	}
	return nil
}

// ValidateNotes проверяет размер заметок
func ValidateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > MaxNotesLen {
		return fmt.Errorf("%w: notes must not exceed %d characters", ErrInvalidInput, MaxNotesLen)
	}
	return nil
}

// ValidateCategoryName проверяет название категории
func ValidateCategoryName(name string) error {
	if err := ValidateText("category name", name); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: category name cannot be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLen {
		return fmt.Errorf("%w: category name must not exceed %d characters", ErrInvalidInput, MaxCategoryNameLen)
	}
	return nil
}
