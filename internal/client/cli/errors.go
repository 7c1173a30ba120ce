package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/zkvault/internal/client/api"
	"github.com/iudanet/zkvault/internal/client/auth"
	"github.com/iudanet/zkvault/internal/vault"
)

// Describe переводит ошибку в сообщение для пользователя.
// Сообщения ошибок не содержат секретов, поэтому по умолчанию печатается err.Error().
func Describe(err error) string {
	var locked *vault.AccountLockedError
	switch {
	case errors.As(err, &locked):
		return fmt.Sprintf("too many failed unlock attempts, try again in %s", locked.RetryAfter.Round(time.Second))
	case errors.Is(err, vault.ErrInvalidMasterPassword):
		return "invalid master password"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "invalid email or master password"
	case errors.Is(err, api.ErrRateLimited):
		return "too many requests, try again later"
	case errors.Is(err, vault.ErrDecryption):
		return "vault data could not be decrypted"
	default:
		return err.Error()
	}
}
