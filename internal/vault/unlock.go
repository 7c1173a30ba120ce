package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/zkvault/internal/crypto"
	"github.com/iudanet/zkvault/internal/models"
)

// UnlockResult - итог разблокировки
type UnlockResult struct {
	// Items - сколько записей расшифровано
	Items int
	// Skipped - сколько записей не удалось расшифровать
	Skipped int
}

// Unlock выводит ключ из master password, проверяет verifier и расшифровывает записи.
//
// Порядок: проверка блокировки (до деривации), деривация, сверка verifier,
// загрузка и расшифровка записей, атомарная установка ключа и кэша.
// Конкурентные вызовы Unlock выполняются по очереди. На уже разблокированной
// сессии пароль все равно проверяется, а неверный считается неудачной попыткой.
func (s *Session) Unlock(ctx context.Context, masterPassword string) (*UnlockResult, error) {
	if masterPassword == "" {
		return nil, fmt.Errorf("%w: master password cannot be empty", ErrInputValidation)
	}

	s.unlockMu.Lock()
	defer s.unlockMu.Unlock()

	s.mu.Lock()
	if s.state == StateAnonymous {
		s.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	alreadyUnlocked := s.state == StateUnlocked
	userID := s.identity.UserID
	epoch := s.epoch
	localLockedUntil := s.lockedUntil
	s.mu.Unlock()

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, storeError("get profile", err)
	}

	now := s.now()
	if retry := retryAfter(now, profile.FailedUnlockLockedUntil, localLockedUntil); retry > 0 {
		s.logger.WarnContext(ctx, "unlock rejected: account locked",
			slog.String("user_id", userID),
			slog.Duration("retry_after", retry))
		return nil, &AccountLockedError{RetryAfter: retry}
	}

	keys, err := s.derive(masterPassword, profile.KDFSalt)
	if err != nil {
		return nil, err
	}
	installed := false
	defer func() {
		if !installed {
			keys.Destroy()
		}
	}()

	if !crypto.VerifyVerifier(keys.Verifier, profile.VerifierHash) {
		return nil, s.recordFailure(ctx, profile, ErrInvalidMasterPassword)
	}
	crypto.Wipe(keys.Verifier)

	if alreadyUnlocked {
		return s.confirmUnlocked(ctx, profile, epoch)
	}

	sealedItems, err := s.store.GetItems(ctx, userID)
	if err != nil {
		return nil, storeError("get items", err)
	}

	items := make(map[string]*models.DecryptedItem, len(sealedItems))
	skipped := 0
	for _, item := range sealedItems {
		decrypted, err := openItem(keys.Key, item)
		if err != nil {
			if !s.policy.SkipUndecryptable {
				return nil, fmt.Errorf("item %s: %w", item.ID, err)
			}
			skipped++
			s.logger.WarnContext(ctx, "skipping undecryptable item",
				slog.String("user_id", userID),
				slog.String("item_id", item.ID))
			continue
		}
		items[item.ID] = decrypted
	}

	// verifier совпал, но ни одна запись не открылась - это тоже неудача
	if s.policy.CountDecryptFailures && len(sealedItems) > 0 && len(items) == 0 {
		return nil, s.recordFailure(ctx, profile, fmt.Errorf("%w: no item could be decrypted", ErrDecryption))
	}

	// profileMu держится до установки настроек в сессию: параллельный
	// SetAutoLockMinutes либо уже записан и виден здесь, либо выполнится после
	s.profileMu.Lock()
	defer s.profileMu.Unlock()
	profile = s.resetFailuresLocked(ctx, profile)

	s.mu.Lock()
	if s.epoch != epoch || s.state != StateLocked {
		s.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	s.epoch++
	s.key = keys.Key
	s.items = items
	s.settings = Settings{AutoLockMinutes: profile.AutoLockMinutes, ClearClipboardSeconds: profile.ClearClipboardSeconds}
	s.failedUnlocks = 0
	s.lockedUntil = time.Time{}
	s.idle = 0
	s.state = StateUnlocked
	s.mu.Unlock()
	installed = true

	s.logger.InfoContext(ctx, "vault unlocked",
		slog.String("user_id", userID),
		slog.Int("items", len(items)),
		slog.Int("skipped", skipped))

	return &UnlockResult{Items: len(items), Skipped: skipped}, nil
}

// confirmUnlocked завершает Unlock на уже разблокированной сессии:
// пароль верный, ключ и кэш остаются прежними, новый ключ уничтожается.
func (s *Session) confirmUnlocked(ctx context.Context, profile *models.Profile, epoch uint64) (*UnlockResult, error) {
	s.profileMu.Lock()
	s.resetFailuresLocked(ctx, profile)
	s.profileMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.state != StateUnlocked {
		return nil, ErrNotAuthenticated
	}
	s.failedUnlocks = 0
	s.lockedUntil = time.Time{}
	s.idle = 0
	return &UnlockResult{Items: len(s.items)}, nil
}

// modifyProfileLocked перечитывает профиль, применяет apply и сохраняет.
// Вызывается под profileMu, поэтому настройки и счетчики неудач
// не перезаписывают друг друга устаревшей копией.
func (s *Session) modifyProfileLocked(ctx context.Context, userID string, apply func(*models.Profile)) (*models.Profile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, storeError("get profile", err)
	}
	apply(profile)
	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return profile, storeError("update profile", err)
	}
	return profile, nil
}

// nextFailure считает новое значение счетчика и блокировки после неудачи
func (s *Session) nextFailure(profile *models.Profile, now time.Time) (int, time.Time) {
	attempts := profile.FailedUnlockAttempts
	// после истекшей блокировки счет начинается заново
	if profile.FailedUnlockLockedUntil != nil && !now.Before(*profile.FailedUnlockLockedUntil) {
		attempts = 0
	}
	attempts++

	var lockedUntil time.Time
	if s.policy.MaxFailedUnlocks > 0 && attempts >= s.policy.MaxFailedUnlocks {
		lockedUntil = now.Add(s.policy.LockoutCooldown)
	}
	return attempts, lockedUntil
}

// recordFailure увеличивает счетчик неудач и включает блокировку при достижении порога.
// Возвращает AccountLockedError, если блокировка включилась, иначе cause.
// fallback - профиль начала Unlock, если свежий прочитать не удалось.
func (s *Session) recordFailure(ctx context.Context, fallback *models.Profile, cause error) error {
	now := s.now()
	attempts, lockedUntil := s.nextFailure(fallback, now)

	s.profileMu.Lock()
	// счетчик должен сохраниться даже если вызывающий отменил контекст
	_, err := s.modifyProfileLocked(context.WithoutCancel(ctx), fallback.ID, func(p *models.Profile) {
		attempts, lockedUntil = s.nextFailure(p, now)
		p.FailedUnlockAttempts = attempts
		p.FailedUnlockLockedUntil = nil
		if !lockedUntil.IsZero() {
			until := lockedUntil
			p.FailedUnlockLockedUntil = &until
		}
	})
	s.profileMu.Unlock()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist failed unlock attempt",
			slog.String("user_id", fallback.ID),
			slog.Any("error", err))
	}

	s.mu.Lock()
	s.failedUnlocks = attempts
	s.lockedUntil = lockedUntil
	s.mu.Unlock()

	s.logger.WarnContext(ctx, "unlock failed",
		slog.String("user_id", fallback.ID),
		slog.Int("attempts", attempts))

	if !lockedUntil.IsZero() {
		return &AccountLockedError{RetryAfter: s.policy.LockoutCooldown}
	}
	return cause
}

// resetFailuresLocked сбрасывает счетчик после успешной разблокировки (best effort)
// и возвращает свежий профиль. Вызывается под profileMu.
func (s *Session) resetFailuresLocked(ctx context.Context, fallback *models.Profile) *models.Profile {
	profile, err := s.store.GetProfile(ctx, fallback.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to reload profile after unlock",
			slog.String("user_id", fallback.ID),
			slog.Any("error", err))
		return fallback
	}
	if profile.FailedUnlockAttempts == 0 && profile.FailedUnlockLockedUntil == nil {
		return profile
	}

	profile.FailedUnlockAttempts = 0
	profile.FailedUnlockLockedUntil = nil
	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		s.logger.WarnContext(ctx, "failed to reset failed unlock counter",
			slog.String("user_id", profile.ID),
			slog.Any("error", err))
	}
	return profile
}

// retryAfter возвращает оставшееся время блокировки с учетом профиля и локального состояния
func retryAfter(now time.Time, stored *time.Time, local time.Time) time.Duration {
	until := local
	if stored != nil && stored.After(until) {
		until = *stored
	}
	if until.IsZero() || !now.Before(until) {
		return 0
	}
	return until.Sub(now)
}

// openItem расшифровывает одну запись. Битый payload считается ошибкой расшифровки.
func openItem(key *crypto.Key, item *models.VaultItem) (*models.DecryptedItem, error) {
	plaintext, err := key.Open(&crypto.Sealed{
		Ciphertext: item.Ciphertext,
		Nonce:      item.IV,
		Tag:        item.AuthTag,
	})
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(plaintext)

	payload, err := models.UnmarshalItemPayload(plaintext)
	if err != nil {
		return nil, errors.Join(crypto.ErrDecryption, errors.New("malformed payload"))
	}

	return &models.DecryptedItem{Item: item.Clone(), Payload: payload}, nil
}

// sealPayload шифрует payload в поля записи
func sealPayload(key *crypto.Key, item *models.VaultItem, payload models.ItemPayload) error {
	plaintext, err := payload.MarshalCanonical()
	if err != nil {
		return err
	}
	defer crypto.Wipe(plaintext)

	sealed, err := key.Seal(plaintext)
	if err != nil {
		return err
	}

	item.Ciphertext = sealed.Ciphertext
	item.IV = sealed.Nonce
	item.AuthTag = sealed.Tag
	return nil
}
