package clipboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	text     string
	writeErr error
	mu       sync.Mutex
}

func (b *memBackend) ReadAll() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text, nil
}

func (b *memBackend) WriteAll(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.text = text
	return nil
}

func (b *memBackend) set(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
}

func TestManager_CopyAndClear(t *testing.T) {
	backend := &memBackend{}
	m := New(backend)

	require.NoError(t, m.Copy("s3cret", 10*time.Millisecond))
	text, _ := backend.ReadAll()
	assert.Equal(t, "s3cret", text)

	require.NoError(t, m.Wait(context.Background()))
	text, _ = backend.ReadAll()
	assert.Empty(t, text)
}

func TestManager_NoClear(t *testing.T) {
	backend := &memBackend{}
	m := New(backend)

	require.NoError(t, m.Copy("keep", 0))
	require.NoError(t, m.Wait(context.Background()))
	text, _ := backend.ReadAll()
	assert.Equal(t, "keep", text)
}

func TestManager_DoesNotClearForeignContent(t *testing.T) {
	backend := &memBackend{}
	m := New(backend)

	require.NoError(t, m.Copy("s3cret", 10*time.Millisecond))
	backend.set("user copied something else")

	require.NoError(t, m.Wait(context.Background()))
	text, _ := backend.ReadAll()
	assert.Equal(t, "user copied something else", text)
}

func TestManager_CopyReplacesPendingClear(t *testing.T) {
	backend := &memBackend{}
	m := New(backend)

	require.NoError(t, m.Copy("first", time.Hour))
	require.NoError(t, m.Copy("second", 10*time.Millisecond))

	require.NoError(t, m.Wait(context.Background()))
	text, _ := backend.ReadAll()
	assert.Empty(t, text)
}

func TestManager_WaitCancelledClearsNow(t *testing.T) {
	backend := &memBackend{}
	m := New(backend)

	require.NoError(t, m.Copy("s3cret", time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Wait(ctx), context.Canceled)

	text, _ := backend.ReadAll()
	assert.Empty(t, text)
}

func TestManager_WriteError(t *testing.T) {
	backend := &memBackend{writeErr: errors.New("no display")}
	m := New(backend)

	err := m.Copy("s3cret", time.Second)
	assert.ErrorContains(t, err, "no display")
	assert.NoError(t, m.Wait(context.Background()))
}
