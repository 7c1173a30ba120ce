package vault

import (
	"time"

	"github.com/iudanet/zkvault/internal/validation"
)

const (
	MaxAutoLockMinutes       = validation.MaxAutoLockMinutes
	MaxClearClipboardSeconds = validation.MaxClearClipboardSeconds
)

// Policy - настраиваемое поведение сессии.
//
// CountDecryptFailures и SkipUndecryptable независимы:
// первая решает, считается ли "ни одна запись не расшифровалась" неудачной
// попыткой разблокировки, вторая - пропускать ли отдельные битые записи
// или прерывать разблокировку на первой же.
type Policy struct {
	// MaxFailedUnlocks - после стольких неудач подряд включается блокировка; 0 выключает
	MaxFailedUnlocks int
	// LockoutCooldown - длительность блокировки
	LockoutCooldown time.Duration
	// TickInterval - шаг счетчика бездействия
	TickInterval time.Duration
	// CountDecryptFailures - полный провал расшифровки считается неудачной попыткой
	CountDecryptFailures bool
	// SkipUndecryptable - битые записи пропускаются и считаются, а не прерывают разблокировку
	SkipUndecryptable bool
	// LockOnBackground - Background() блокирует хранилище
	LockOnBackground bool
}

// DefaultPolicy возвращает политику по умолчанию
func DefaultPolicy() Policy {
	return Policy{
		MaxFailedUnlocks:     5,
		LockoutCooldown:      5 * time.Minute,
		TickInterval:         time.Second,
		CountDecryptFailures: true,
		SkipUndecryptable:    true,
		LockOnBackground:     true,
	}
}
