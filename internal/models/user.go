package models

import "time"

// Account - учетная запись identity provider.
// Хранит только bcrypt хеш auth secret, который клиент выводит из master password;
// ни пароль, ни verifier сюда не попадают.
type Account struct {
	CreatedAt      time.Time  `json:"created_at"`           // время создания
	LastLogin      *time.Time `json:"last_login,omitempty"` // время последнего входа
	ID             string     `json:"id"`                   // UUID пользователя
	Email          string     `json:"email"`                // уникальный email (нормализованный)
	AuthSecretHash string     `json:"-"`                    // bcrypt хеш auth secret
}

// Profile - профиль хранилища пользователя в record store.
// Содержит только публичные параметры KDF и состояние блокировки.
type Profile struct {
	CreatedAt               time.Time  `json:"created_at"`
	FailedUnlockLockedUntil *time.Time `json:"failed_unlock_locked_until,omitempty"`
	ID                      string     `json:"id"`            // совпадает с ID аккаунта
	Email                   string     `json:"email"`         // email владельца
	VerifierHash            string     `json:"verifier_hash"` // hex(SHA-256(verification key))
	KDFSalt                 []byte     `json:"kdf_salt"`      // 16 байт, неизменна
	FailedUnlockAttempts    int        `json:"failed_unlock_attempts"`
	AutoLockMinutes         int        `json:"auto_lock_minutes"`       // 0 - автоблокировка выключена
	ClearClipboardSeconds   int        `json:"clear_clipboard_seconds"` // 0 - не очищать буфер обмена
}

// Значения настроек профиля по умолчанию
const (
	DefaultAutoLockMinutes       = 15
	DefaultClearClipboardSeconds = 30
)

// LockedAt сообщает, действует ли блокировка после неудачных попыток в момент now
func (p *Profile) LockedAt(now time.Time) bool {
	return p.FailedUnlockLockedUntil != nil && now.Before(*p.FailedUnlockLockedUntil)
}

// Identity - аутентифицированная личность, которую возвращает identity provider.
// Токены нужны только адаптерам провайдера; ядро хранилища использует UserID и Email.
type Identity struct {
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

// RefreshToken представляет refresh token пользователя
type RefreshToken struct {
	ExpiresAt time.Time `json:"expires_at"` // время истечения
	CreatedAt time.Time `json:"created_at"` // время создания
	Token     string    `json:"token"`      // случайное значение (base64url)
	UserID    string    `json:"user_id"`    // ID пользователя
}
