package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/zkvault/internal/client/storage"
	"github.com/iudanet/zkvault/internal/models"
)

const testUserID = "6f1c2a8e-0000-4000-8000-000000000001"

// setupTestStorage создает BoltDB во временной директории
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()

	store, err := New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestNew_Success(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "testdb.db")

	store, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, store.Close())
	}()

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	err = store.db.View(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketAuth, bucketAccounts, bucketProfiles, bucketItems, bucketCategories} {
			if tx.Bucket(b) == nil {
				return os.ErrNotExist
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "db"))
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestClose_Twice(t *testing.T) {
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.NoError(t, (&Storage{}).Close())
}

func TestAuth(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	_, err := store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	identity := &models.Identity{
		UserID:       testUserID,
		Email:        "alice@example.com",
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveAuth(ctx, identity))

	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, identity, got)

	require.NoError(t, store.DeleteAuth(ctx))
	require.NoError(t, store.DeleteAuth(ctx))
	_, err = store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}

func TestAuth_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "client.db")

	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.SaveAuth(ctx, &models.Identity{UserID: testUserID}))
	require.NoError(t, store.Close())

	store, err = New(ctx, dbPath)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, testUserID, got.UserID)
}

func testAccount() *models.Account {
	return &models.Account{
		CreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ID:             testUserID,
		Email:          "alice@example.com",
		AuthSecretHash: "$2a$04$hash",
	}
}

func testProfile() *models.Profile {
	return &models.Profile{
		CreatedAt:             time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ID:                    testUserID,
		Email:                 "alice@example.com",
		VerifierHash:          "verifier",
		KDFSalt:               []byte("0123456789abcdef"),
		AutoLockMinutes:       15,
		ClearClipboardSeconds: 30,
	}
}

func testItem(id string, modified time.Time) *models.VaultItem {
	return &models.VaultItem{
		CreatedAt:    modified,
		LastModified: modified,
		ID:           id,
		UserID:       testUserID,
		Title:        "item " + id,
		Ciphertext:   []byte("ciphertext"),
		IV:           make([]byte, 12),
		AuthTag:      make([]byte, 16),
	}
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	require.NoError(t, store.CreateAccount(ctx, testAccount()))
	assert.ErrorIs(t, store.CreateAccount(ctx, testAccount()), storage.ErrAccountAlreadyExists)

	got, err := store.GetAccountByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, testAccount(), got)

	_, err = store.GetAccountByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)

	assert.ErrorIs(t, store.DeleteAccount(ctx, "unknown"), storage.ErrAccountNotFound)
}

func TestDeleteAccount_Cascade(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	require.NoError(t, store.CreateAccount(ctx, testAccount()))
	require.NoError(t, store.CreateProfile(ctx, testProfile()))
	require.NoError(t, store.InsertCategory(ctx, &models.Category{ID: "cat", UserID: testUserID, Name: "Work"}))
	require.NoError(t, store.InsertItem(ctx, testItem("a", time.Now())))

	require.NoError(t, store.DeleteAccount(ctx, testUserID))

	_, err := store.GetAccountByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)
	_, err = store.GetProfile(ctx, testUserID)
	assert.ErrorIs(t, err, storage.ErrProfileNotFound)

	items, err := store.GetItems(ctx, testUserID)
	require.NoError(t, err)
	assert.Empty(t, items)
	categories, err := store.GetCategories(ctx, testUserID)
	require.NoError(t, err)
	assert.Empty(t, categories)

	// email снова свободен
	require.NoError(t, store.CreateAccount(ctx, testAccount()))
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	_, err := store.GetProfile(ctx, testUserID)
	assert.ErrorIs(t, err, storage.ErrProfileNotFound)

	require.NoError(t, store.CreateProfile(ctx, testProfile()))
	assert.ErrorIs(t, store.CreateProfile(ctx, testProfile()), storage.ErrProfileAlreadyExists)

	salt, err := store.GetSaltByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789abcdef"), salt)
	_, err = store.GetSaltByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, storage.ErrProfileNotFound)

	lockedUntil := time.Date(2025, 1, 1, 0, 5, 0, 0, time.UTC)
	update := testProfile()
	update.VerifierHash = "attacker"
	update.KDFSalt = []byte("ffffffffffffffff")
	update.FailedUnlockAttempts = 5
	update.FailedUnlockLockedUntil = &lockedUntil
	update.AutoLockMinutes = 1
	update.ClearClipboardSeconds = 0
	require.NoError(t, store.UpdateProfile(ctx, update))

	got, err := store.GetProfile(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, "verifier", got.VerifierHash, "verifier hash is immutable")
	assert.Equal(t, []byte("0123456789abcdef"), got.KDFSalt, "salt is immutable")
	assert.Equal(t, 5, got.FailedUnlockAttempts)
	require.NotNil(t, got.FailedUnlockLockedUntil)
	assert.True(t, lockedUntil.Equal(*got.FailedUnlockLockedUntil))
	assert.Equal(t, 1, got.AutoLockMinutes)
	assert.Equal(t, 0, got.ClearClipboardSeconds)

	missing := testProfile()
	missing.ID = "other"
	assert.ErrorIs(t, store.UpdateProfile(ctx, missing), storage.ErrProfileNotFound)
}

func TestItems(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertItem(ctx, testItem("old", base)))
	require.NoError(t, store.InsertItem(ctx, testItem("new", base.Add(time.Hour))))
	assert.ErrorIs(t, store.InsertItem(ctx, testItem("old", base)), storage.ErrItemAlreadyExists)

	items, err := store.GetItems(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "new", items[0].ID)
	assert.Equal(t, "old", items[1].ID)

	// записи другого пользователя не видны
	other, err := store.GetItems(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, other)
	assert.ErrorIs(t, store.DeleteItem(ctx, "someone-else", "old"), storage.ErrItemNotFound)

	updated := testItem("old", base.Add(2*time.Hour))
	updated.Title = "renamed"
	updated.IsFavorite = true
	require.NoError(t, store.UpdateItem(ctx, updated))

	items, err = store.GetItems(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", items[0].Title)
	assert.True(t, items[0].IsFavorite)
	assert.True(t, base.Equal(items[0].CreatedAt), "created_at is preserved")

	assert.ErrorIs(t, store.UpdateItem(ctx, testItem("missing", base)), storage.ErrItemNotFound)

	require.NoError(t, store.DeleteItem(ctx, testUserID, "old"))
	assert.ErrorIs(t, store.DeleteItem(ctx, testUserID, "old"), storage.ErrItemNotFound)
}

func TestItems_CategoryMustExist(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	categoryID := "cat"
	item := testItem("a", time.Now())
	item.CategoryID = &categoryID
	assert.ErrorIs(t, store.InsertItem(ctx, item), storage.ErrCategoryNotFound)

	require.NoError(t, store.InsertCategory(ctx, &models.Category{ID: categoryID, UserID: testUserID, Name: "Work"}))
	require.NoError(t, store.InsertItem(ctx, item))

	// категория чужого пользователя не подходит
	foreign := "foreign"
	require.NoError(t, store.InsertCategory(ctx, &models.Category{ID: foreign, UserID: "someone-else", Name: "X"}))
	item.CategoryID = &foreign
	assert.ErrorIs(t, store.UpdateItem(ctx, item), storage.ErrCategoryNotFound)
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	for _, c := range []*models.Category{
		{ID: "c3", UserID: testUserID, Name: "Banking", SortOrder: 2},
		{ID: "c1", UserID: testUserID, Name: "Work", SortOrder: 1},
		{ID: "c2", UserID: testUserID, Name: "Social", SortOrder: 1},
	} {
		require.NoError(t, store.InsertCategory(ctx, c))
	}

	categories, err := store.GetCategories(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, []string{"Social", "Work", "Banking"},
		[]string{categories[0].Name, categories[1].Name, categories[2].Name})

	categoryID := "c1"
	item := testItem("a", time.Now())
	item.CategoryID = &categoryID
	require.NoError(t, store.InsertItem(ctx, item))

	require.NoError(t, store.DeleteCategory(ctx, testUserID, "c1"))
	assert.ErrorIs(t, store.DeleteCategory(ctx, testUserID, "c1"), storage.ErrCategoryNotFound)

	items, err := store.GetItems(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].CategoryID)
}
