package vault

import (
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/zkvault/internal/crypto"
	"github.com/iudanet/zkvault/internal/validation"
)

// Виды ошибок сессии. Сравниваются через errors.Is.
var (
	// ErrInputValidation - слабый или несовпадающий пароль, неверный email, плохие поля записи
	ErrInputValidation = validation.ErrInvalidInput

	// ErrKeyDerivation - неверная соль или недоступный примитив
	ErrKeyDerivation = crypto.ErrKeyDerivation

	// ErrDecryption - не сошелся tag или ключ не тот
	ErrDecryption = crypto.ErrDecryption

	// ErrAccountLocked - действует блокировка после неудачных попыток, см. AccountLockedError
	ErrAccountLocked = errors.New("account locked")

	// ErrStore оборачивает любую ошибку record store
	ErrStore = errors.New("record store error")

	// ErrIdentity оборачивает любую ошибку identity provider
	ErrIdentity = errors.New("identity provider error")
)

// Ошибки состояния сессии
var (
	// ErrNotAuthenticated - операции нужен вошедший пользователь
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAlreadyAuthenticated - register/login на сессии, где уже есть личность
	ErrAlreadyAuthenticated = errors.New("already authenticated")

	// ErrVaultLocked - операции нужно разблокированное хранилище
	ErrVaultLocked = errors.New("vault is locked")

	// ErrItemNotFound - записи с таким id нет в разблокированном хранилище
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidMasterPassword - выведенный verifier не совпал с сохраненным
	ErrInvalidMasterPassword = errors.New("invalid master password")
)

// AccountLockedError - активная блокировка с оставшимся временем.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked after too many failed unlock attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

// Is нужен для errors.Is(err, ErrAccountLocked)
func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

func identityError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrIdentity, err)
}
