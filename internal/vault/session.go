// Package vault реализует сессию zero-knowledge хранилища:
// машину состояний Anonymous -> Locked <-> Unlocked, разблокировку с
// защитой от перебора, автоблокировку по бездействию и операции над записями.
//
// Record store и identity provider видят только шифртекст, соль и хеши.
package vault

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/zkvault/internal/crypto"
	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/validation"
)

// State - состояние сессии
type State int

const (
	// StateAnonymous - нет аутентифицированной личности
	StateAnonymous State = iota
	// StateLocked - личность есть, ключа шифрования в памяти нет
	StateLocked
	// StateUnlocked - ключ установлен, записи расшифрованы в кэше
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// DeriveFunc выводит ключи из master password и соли
type DeriveFunc func(masterPassword string, salt []byte) (*crypto.Keys, error)

// Settings - пользовательские настройки из профиля
type Settings struct {
	AutoLockMinutes       int
	ClearClipboardSeconds int
}

func defaultSettings() Settings {
	return Settings{
		AutoLockMinutes:       models.DefaultAutoLockMinutes,
		ClearClipboardSeconds: models.DefaultClearClipboardSeconds,
	}
}

// Option настраивает Session
type Option func(*Session)

// WithPolicy задает политику блокировок
func WithPolicy(p Policy) Option {
	return func(s *Session) { s.policy = p }
}

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithDeriver подменяет KDF (тесты используют малое число итераций)
func WithDeriver(derive DeriveFunc) Option {
	return func(s *Session) { s.derive = derive }
}

// Session - единственный владелец ключа шифрования и расшифрованных записей.
//
// Все поля под mu. Деривация ключа и вызовы store выполняются без mu;
// установка результата проверяет epoch, который меняется при каждом
// Lock/Logout, поэтому устаревшая разблокировка не может установить ключ
// в уже заблокированную сессию.
type Session struct {
	store  RecordStore
	idp    IdentityProvider
	logger *slog.Logger
	now    func() time.Time
	derive DeriveFunc

	itemLocks *keyedMutex

	key         *crypto.Key
	identity    *models.Identity
	items       map[string]*models.DecryptedItem
	lockedUntil time.Time

	policy   Policy
	settings Settings

	// unlockMu сериализует Unlock целиком, включая деривацию
	unlockMu sync.Mutex
	// profileMu сериализует чтение-изменение-запись профиля в store.
	// Порядок захвата: unlockMu, profileMu, mu.
	profileMu sync.Mutex
	mu        sync.Mutex

	epoch         uint64
	idle          time.Duration
	failedUnlocks int
	state         State
}

// New создает анонимную сессию
func New(store RecordStore, idp IdentityProvider, logger *slog.Logger, opts ...Option) *Session {
	s := &Session{
		store:     store,
		idp:       idp,
		logger:    logger,
		now:       time.Now,
		derive:    crypto.DeriveKeys,
		policy:    DefaultPolicy(),
		settings:  defaultSettings(),
		itemLocks: newKeyedMutex(),
		state:     StateAnonymous,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy.TickInterval <= 0 {
		s.policy.TickInterval = time.Second
	}
	return s
}

// State возвращает текущее состояние
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity возвращает копию текущей личности без токенов или nil
func (s *Session) Identity() *models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	return &models.Identity{UserID: s.identity.UserID, Email: s.identity.Email, ExpiresAt: s.identity.ExpiresAt}
}

// Settings возвращает настройки, загруженные при последней разблокировке
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// FailedUnlocks возвращает число неудачных попыток подряд
func (s *Session) FailedUnlocks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failedUnlocks
}

// Register создает аккаунт и профиль, оставляя сессию разблокированной с пустым хранилищем.
// Если профиль не удалось сохранить, аккаунт у identity provider удаляется.
func (s *Session) Register(ctx context.Context, email, masterPassword, confirmation string) error {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}
	if err := validation.ValidatePasswordConfirmation(masterPassword, confirmation); err != nil {
		return err
	}

	if s.State() != StateAnonymous {
		return ErrAlreadyAuthenticated
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}

	keys, err := s.derive(masterPassword, salt)
	if err != nil {
		return err
	}
	installed := false
	defer func() {
		if !installed {
			keys.Destroy()
		}
	}()

	identity, err := s.idp.SignUp(ctx, email, keys.AuthSecret)
	if err != nil {
		return identityError("sign up", err)
	}

	profile := &models.Profile{
		ID:                    identity.UserID,
		Email:                 email,
		KDFSalt:               salt,
		VerifierHash:          crypto.HashVerifier(keys.Verifier),
		AutoLockMinutes:       models.DefaultAutoLockMinutes,
		ClearClipboardSeconds: models.DefaultClearClipboardSeconds,
		CreatedAt:             s.now().UTC(),
	}
	if err := s.store.CreateProfile(ctx, profile); err != nil {
		// аккаунт без профиля невозможно разблокировать - откатываем
		if delErr := s.idp.DeleteAccount(context.WithoutCancel(ctx)); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back account after profile creation error",
				slog.String("user_id", identity.UserID),
				slog.Any("error", delErr))
		}
		return storeError("create profile", err)
	}

	s.mu.Lock()
	if s.state != StateAnonymous {
		s.mu.Unlock()
		return ErrAlreadyAuthenticated
	}
	s.epoch++
	s.identity = identity
	s.key = keys.Key
	s.items = make(map[string]*models.DecryptedItem)
	s.settings = Settings{AutoLockMinutes: profile.AutoLockMinutes, ClearClipboardSeconds: profile.ClearClipboardSeconds}
	s.failedUnlocks = 0
	s.lockedUntil = time.Time{}
	s.idle = 0
	s.state = StateUnlocked
	s.mu.Unlock()

	installed = true
	crypto.Wipe(keys.Verifier)

	s.logger.InfoContext(ctx, "account registered", slog.String("user_id", identity.UserID))
	return nil
}

// Login аутентифицирует пользователя у identity provider.
// Сессия остается заблокированной: ключ устанавливает только Unlock.
func (s *Session) Login(ctx context.Context, email, masterPassword string) error {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}
	// короче минимума пароль зарегистрирован быть не мог
	if err := validation.ValidatePassword(masterPassword); err != nil {
		return err
	}

	if s.State() != StateAnonymous {
		return ErrAlreadyAuthenticated
	}

	salt, err := s.idp.GetSalt(ctx, email)
	if err != nil {
		return identityError("get salt", err)
	}

	keys, err := s.derive(masterPassword, salt)
	if err != nil {
		return err
	}
	defer keys.Destroy()

	identity, err := s.idp.SignIn(ctx, email, keys.AuthSecret)
	if err != nil {
		return identityError("sign in", err)
	}

	if err := s.authenticate(identity); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "signed in", slog.String("user_id", identity.UserID))
	return nil
}

// Resume восстанавливает заблокированную сессию для ранее полученной личности
// (например, из сохраненного на диске refresh token).
func (s *Session) Resume(identity *models.Identity) error {
	if identity == nil || identity.UserID == "" {
		return ErrNotAuthenticated
	}
	return s.authenticate(identity)
}

func (s *Session) authenticate(identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAnonymous {
		return ErrAlreadyAuthenticated
	}
	s.epoch++
	s.identity = identity
	s.settings = defaultSettings()
	s.failedUnlocks = 0
	s.lockedUntil = time.Time{}
	s.state = StateLocked
	return nil
}

// Lock уничтожает ключ и расшифрованные записи. Идемпотентна.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnlocked {
		return
	}
	s.lockLocked()
	s.logger.Info("vault locked")
}

// lockLocked вызывается под mu
func (s *Session) lockLocked() {
	s.epoch++
	if s.key != nil {
		s.key.Destroy()
		s.key = nil
	}
	s.items = nil
	s.idle = 0
	if s.state == StateUnlocked {
		s.state = StateLocked
	}
}

// Logout блокирует хранилище, забывает личность и завершает сессию провайдера.
// Локальное состояние очищается даже если провайдер вернул ошибку.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateAnonymous {
		s.mu.Unlock()
		return nil
	}
	userID := s.identity.UserID
	s.teardownLocked()
	s.mu.Unlock()

	if err := s.idp.SignOut(ctx); err != nil {
		s.logger.WarnContext(ctx, "identity provider sign out failed", slog.Any("error", err))
		return identityError("sign out", err)
	}

	s.logger.InfoContext(ctx, "signed out", slog.String("user_id", userID))
	return nil
}

// DeleteAccount удаляет аккаунт и все записи. Требует разблокированного хранилища.
func (s *Session) DeleteAccount(ctx context.Context) error {
	userID, _, err := s.requireUnlocked()
	if err != nil {
		return err
	}

	if err := s.idp.DeleteAccount(ctx); err != nil {
		return identityError("delete account", err)
	}

	s.mu.Lock()
	s.teardownLocked()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "account deleted", slog.String("user_id", userID))
	return nil
}

func (s *Session) teardownLocked() {
	s.lockLocked()
	s.identity = nil
	s.settings = defaultSettings()
	s.failedUnlocks = 0
	s.lockedUntil = time.Time{}
	s.state = StateAnonymous
}

// requireAuthenticated возвращает user id и epoch
func (s *Session) requireAuthenticated() (string, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateAnonymous {
		return "", 0, ErrNotAuthenticated
	}
	return s.identity.UserID, s.epoch, nil
}

// requireUnlocked возвращает user id и epoch, отмечая активность пользователя
func (s *Session) requireUnlocked() (string, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnlockedLocked(); err != nil {
		return "", 0, err
	}
	s.idle = 0
	return s.identity.UserID, s.epoch, nil
}

func (s *Session) checkUnlockedLocked() error {
	switch s.state {
	case StateAnonymous:
		return ErrNotAuthenticated
	case StateLocked:
		return ErrVaultLocked
	}
	return nil
}

// commit применяет изменение кэша, только если сессия не была заблокирована
// после начала операции
func (s *Session) commit(epoch uint64, apply func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch || s.state != StateUnlocked {
		return
	}
	apply()
}
