package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/zkvault/internal/server/storage"
)

func TestProfileStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestAccount(t, ctx, s)
	profile := createTestProfile(t, ctx, s, userID)

	got, err := s.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, profile.Email, got.Email)
	assert.Equal(t, profile.VerifierHash, got.VerifierHash)
	assert.Equal(t, profile.KDFSalt, got.KDFSalt)
	assert.Equal(t, profile.AutoLockMinutes, got.AutoLockMinutes)
	assert.Equal(t, profile.ClearClipboardSeconds, got.ClearClipboardSeconds)
	assert.Zero(t, got.FailedUnlockAttempts)
	assert.Nil(t, got.FailedUnlockLockedUntil)

	salt, err := s.GetSaltByEmail(ctx, profile.Email)
	require.NoError(t, err)
	assert.Equal(t, profile.KDFSalt, salt)

	assert.ErrorIs(t, s.CreateProfile(ctx, profile), storage.ErrProfileAlreadyExists)
}

func TestProfileStorage_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrProfileNotFound)

	_, err = s.GetSaltByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, storage.ErrProfileNotFound)
}

func TestProfileStorage_UpdateMutableFieldsOnly(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestAccount(t, ctx, s)
	original := createTestProfile(t, ctx, s, userID)

	lockedUntil := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	update := *original
	update.FailedUnlockAttempts = 5
	update.FailedUnlockLockedUntil = &lockedUntil
	update.AutoLockMinutes = 1
	update.ClearClipboardSeconds = 0
	update.VerifierHash = "tampered"
	update.KDFSalt = []byte("ffffffffffffffff")

	require.NoError(t, s.UpdateProfile(ctx, &update))

	got, err := s.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.FailedUnlockAttempts)
	require.NotNil(t, got.FailedUnlockLockedUntil)
	assert.True(t, lockedUntil.Equal(*got.FailedUnlockLockedUntil))
	assert.Equal(t, 1, got.AutoLockMinutes)
	assert.Equal(t, 0, got.ClearClipboardSeconds)
	assert.Equal(t, original.VerifierHash, got.VerifierHash)
	assert.Equal(t, original.KDFSalt, got.KDFSalt)

	// сброс блокировки
	update.FailedUnlockAttempts = 0
	update.FailedUnlockLockedUntil = nil
	require.NoError(t, s.UpdateProfile(ctx, &update))
	got, err = s.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, got.FailedUnlockLockedUntil)

	update.ID = "missing"
	assert.ErrorIs(t, s.UpdateProfile(ctx, &update), storage.ErrProfileNotFound)
}
