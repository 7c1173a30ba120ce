package vault

import (
	"context"
	"log/slog"
	"time"
)

// Tick увеличивает счетчик бездействия на один интервал и блокирует хранилище,
// когда он достигает настройки автоблокировки. Вне Unlocked ничего не делает.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnlocked {
		return
	}

	s.idle += s.policy.TickInterval

	limit := time.Duration(s.settings.AutoLockMinutes) * time.Minute
	if limit > 0 && s.idle >= limit {
		s.lockLocked()
		s.logger.Info("vault auto-locked after inactivity", slog.Duration("idle", limit))
	}
}

// RecordActivity сбрасывает счетчик бездействия
func (s *Session) RecordActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateUnlocked {
		s.idle = 0
	}
}

// IdleFor возвращает накопленное время бездействия
func (s *Session) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle
}

// Background сообщает, что приложение ушло в фон
func (s *Session) Background() {
	if s.policy.LockOnBackground {
		s.Lock()
	}
}

// Run вызывает Tick с интервалом политики до отмены контекста
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.policy.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}
