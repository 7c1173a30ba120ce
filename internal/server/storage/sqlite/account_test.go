package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/server/storage"
)

func TestAccountStorage_CreateAccount(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	tests := []struct {
		account *models.Account
		name    string
	}{
		{
			name: "create new account",
			account: &models.Account{
				ID:             uuid.New().String(),
				Email:          "first@example.com",
				AuthSecretHash: "hash123",
				CreatedAt:      time.Now(),
			},
		},
		{
			name: "create account with last login",
			account: &models.Account{
				ID:             uuid.New().String(),
				Email:          "second@example.com",
				AuthSecretHash: "hash456",
				CreatedAt:      time.Now(),
				LastLogin:      timePtr(time.Now()),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.CreateAccount(ctx, tt.account))

			byID, err := s.GetAccountByID(ctx, tt.account.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.account.Email, byID.Email)
			assert.Equal(t, tt.account.AuthSecretHash, byID.AuthSecretHash)
			assert.Equal(t, tt.account.LastLogin != nil, byID.LastLogin != nil)

			byEmail, err := s.GetAccountByEmail(ctx, tt.account.Email)
			require.NoError(t, err)
			assert.Equal(t, tt.account.ID, byEmail.ID)
		})
	}
}

func TestAccountStorage_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	account := &models.Account{ID: uuid.New().String(), Email: "dup@example.com", AuthSecretHash: "h", CreatedAt: time.Now()}
	require.NoError(t, s.CreateAccount(ctx, account))

	again := &models.Account{ID: uuid.New().String(), Email: "dup@example.com", AuthSecretHash: "h", CreatedAt: time.Now()}
	assert.ErrorIs(t, s.CreateAccount(ctx, again), storage.ErrAccountAlreadyExists)
}

func TestAccountStorage_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetAccountByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)
	_, err = s.GetAccountByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)
	assert.ErrorIs(t, s.UpdateLastLogin(ctx, "missing", time.Now()), storage.ErrAccountNotFound)
	assert.ErrorIs(t, s.DeleteAccount(ctx, "missing"), storage.ErrAccountNotFound)
}

func TestAccountStorage_UpdateLastLogin(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestAccount(t, ctx, s)
	loginTime := time.Now().Truncate(time.Second)

	require.NoError(t, s.UpdateLastLogin(ctx, userID, loginTime))

	account, err := s.GetAccountByID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, account.LastLogin)
	assert.True(t, loginTime.Equal(*account.LastLogin))
}

func TestAccountStorage_DeleteAccountCascades(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestAccount(t, ctx, s)
	otherID := createTestAccount(t, ctx, s)
	createTestProfile(t, ctx, s, userID)

	category := &models.Category{ID: uuid.New().String(), UserID: userID, Name: "Work", CreatedAt: time.Now()}
	require.NoError(t, s.CreateCategory(ctx, category))
	require.NoError(t, s.CreateItem(ctx, newTestItem(userID, &category.ID)))
	require.NoError(t, s.CreateItem(ctx, newTestItem(otherID, nil)))
	require.NoError(t, s.StoreRefreshToken(ctx, &models.RefreshToken{
		Token: "t1", UserID: userID, ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now(),
	}))

	require.NoError(t, s.DeleteAccount(ctx, userID))

	_, err := s.GetProfile(ctx, userID)
	assert.ErrorIs(t, err, storage.ErrProfileNotFound)

	items, err := s.ListItems(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)

	categories, err := s.ListCategories(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, categories)

	_, err = s.ConsumeRefreshToken(ctx, "t1", time.Now())
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)

	others, err := s.ListItems(ctx, otherID)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}
