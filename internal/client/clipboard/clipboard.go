// Package clipboard копирует секреты в системный буфер обмена
// и очищает его по таймеру.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"
)

// ErrUnsupported - системный буфер обмена недоступен
var ErrUnsupported = errors.New("clipboard is not available")

// Backend - системный буфер обмена
type Backend interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type system struct{}

func (system) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (system) WriteAll(text string) error { return clipboard.WriteAll(text) }

// System возвращает системный буфер обмена
func System() Backend {
	return system{}
}

// Manager копирует значения и очищает буфер через заданное время.
// Буфер очищается только если в нем все еще наше значение.
type Manager struct {
	backend Backend
	timer   *time.Timer
	done    chan struct{}
	value   string

	mu sync.Mutex
}

// New создает Manager поверх backend
func New(backend Backend) *Manager {
	return &Manager{backend: backend}
}

// Copy кладет text в буфер. clearAfter 0 - не очищать.
// Предыдущая отложенная очистка отменяется.
func (m *Manager) Copy(text string, clearAfter time.Duration) error {
	if clipboard.Unsupported {
		if _, ok := m.backend.(system); ok {
			return ErrUnsupported
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	if err := m.backend.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	if clearAfter <= 0 {
		return nil
	}

	m.value = text
	done := make(chan struct{})
	m.done = done
	m.timer = time.AfterFunc(clearAfter, func() {
		defer close(done)
		m.clear(text)
	})
	return nil
}

// Wait блокируется до отложенной очистки или отмены ctx.
// Нужна CLI: процесс не должен завершиться раньше очистки.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		// при прерывании очищаем сразу
		m.ClearNow()
		return ctx.Err()
	}
}

// ClearNow отменяет таймер и очищает буфер, если там наше значение
func (m *Manager) ClearNow() {
	m.mu.Lock()
	value := m.value
	m.stopLocked()
	m.mu.Unlock()

	if value != "" {
		m.clear(value)
	}
}

func (m *Manager) clear(value string) {
	current, err := m.backend.ReadAll()
	if err != nil || current != value {
		return
	}
	_ = m.backend.WriteAll("")

	m.mu.Lock()
	if m.value == value {
		m.value = ""
	}
	m.mu.Unlock()
}

func (m *Manager) stopLocked() {
	if m.timer != nil && m.timer.Stop() {
		close(m.done)
	}
	m.timer = nil
	m.done = nil
	m.value = ""
}
