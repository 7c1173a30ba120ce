package validation

import "fmt"

const (
	// MaxAutoLockMinutes - верхняя граница настройки автоблокировки (сутки)
	MaxAutoLockMinutes = 24 * 60
	// MaxClearClipboardSeconds - верхняя граница очистки буфера обмена
	MaxClearClipboardSeconds = 600
)

// ValidateAutoLockMinutes проверяет настройку автоблокировки; 0 - выключена
func ValidateAutoLockMinutes(minutes int) error {
	if minutes < 0 || minutes > MaxAutoLockMinutes {
		return fmt.Errorf("%w: auto-lock minutes must be between 0 and %d", ErrInvalidInput, MaxAutoLockMinutes)
	}
	return nil
}

// ValidateClearClipboardSeconds проверяет настройку очистки буфера; 0 - не очищать
func ValidateClearClipboardSeconds(seconds int) error {
	if seconds < 0 || seconds > MaxClearClipboardSeconds {
		return fmt.Errorf("%w: clear clipboard seconds must be between 0 and %d", ErrInvalidInput, MaxClearClipboardSeconds)
	}
	return nil
}
