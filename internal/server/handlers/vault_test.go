package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/zkvault/internal/crypto"
	"github.com/iudanet/zkvault/pkg/api"
)

func newVaultEnv() (*VaultHandler, *mockVaultStorage, *http.ServeMux) {
	store := newMockVaultStorage()
	h := NewVaultHandler(setupTestLogger(), store, store, store)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/profile", h.GetProfile)
	mux.HandleFunc("POST /api/v1/profile", h.CreateProfile)
	mux.HandleFunc("PUT /api/v1/profile", h.UpdateProfile)
	mux.HandleFunc("GET /api/v1/items", h.ListItems)
	mux.HandleFunc("POST /api/v1/items", h.CreateItem)
	mux.HandleFunc("PUT /api/v1/items/{id}", h.UpdateItem)
	mux.HandleFunc("DELETE /api/v1/items/{id}", h.DeleteItem)
	mux.HandleFunc("GET /api/v1/categories", h.ListCategories)
	mux.HandleFunc("POST /api/v1/categories", h.CreateCategory)
	mux.HandleFunc("DELETE /api/v1/categories/{id}", h.DeleteCategory)

	return h, store, mux
}

func testProfile() api.Profile {
	return api.Profile{
		VerifierHash:          "ab12",
		KDFSalt:               bytes.Repeat([]byte{1}, crypto.SaltSize),
		AutoLockMinutes:       15,
		ClearClipboardSeconds: 30,
	}
}

func testItem() api.Item {
	return api.Item{
		ID:         uuid.NewString(),
		Title:      "Mail",
		Ciphertext: []byte("opaque"),
		IV:         bytes.Repeat([]byte{2}, crypto.NonceSize),
		AuthTag:    bytes.Repeat([]byte{3}, crypto.TagSize),
	}
}

func TestVaultHandler_Unauthenticated(t *testing.T) {
	_, _, mux := newVaultEnv()

	for _, target := range []string{"/api/v1/profile", "/api/v1/items", "/api/v1/categories"} {
		w := doJSON(t, mux.ServeHTTP, http.MethodGet, target, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}
}

func TestVaultHandler_Profile(t *testing.T) {
	_, store, mux := newVaultEnv()

	w := doJSON(t, mux.ServeHTTP, http.MethodGet, "/api/v1/profile", nil, "u1")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// email и id берутся из токена
	body := testProfile()
	body.Email = "mallory@example.com"
	w = doJSON(t, mux.ServeHTTP, http.MethodPost, "/api/v1/profile", body, "u1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "u1@example.com", store.profiles["u1"].Email)
	assert.False(t, store.profiles["u1"].CreatedAt.IsZero())

	w = doJSON(t, mux.ServeHTTP, http.MethodPost, "/api/v1/profile", testProfile(), "u1")
	assert.Equal(t, http.StatusConflict, w.Code)

	update := testProfile()
	update.FailedUnlockAttempts = 3
	update.AutoLockMinutes = 5
	update.KDFSalt = []byte("must not change!")
	w = doJSON(t, mux.ServeHTTP, http.MethodPut, "/api/v1/profile", update, "u1")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, mux.ServeHTTP, http.MethodGet, "/api/v1/profile", nil, "u1")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[api.Profile](t, w)
	assert.Equal(t, 3, got.FailedUnlockAttempts)
	assert.Equal(t, 5, got.AutoLockMinutes)
	assert.Equal(t, testProfile().KDFSalt, got.KDFSalt)

	w = doJSON(t, mux.ServeHTTP, http.MethodPut, "/api/v1/profile", testProfile(), "u2")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVaultHandler_CreateProfile_Validation(t *testing.T) {
	_, _, mux := newVaultEnv()

	badSalt := testProfile()
	badSalt.KDFSalt = []byte("short")
	noVerifier := testProfile()
	noVerifier.VerifierHash = ""
	badSettings := testProfile()
	badSettings.AutoLockMinutes = -1

	for name, body := range map[string]any{
		"bad salt":     badSalt,
		"no verifier":  noVerifier,
		"bad settings": badSettings,
		"garbage":      "{",
	} {
		t.Run(name, func(t *testing.T) {
			w := doJSON(t, mux.ServeHTTP, http.MethodPost, "/api/v1/profile", body, "u1")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestVaultHandler_Items(t *testing.T) {
	_, store, mux := newVaultEnv()

	item := testItem()
	w := doJSON(t, mux.ServeHTTP, http.MethodPost, "/api/v1/items", item, "u1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "u1", store.items[item.ID].UserID)

	w = doJSON(t, mux.ServeHTTP, http.MethodPost, "/api/v1/items", item, "u1")
	assert.Equal(t, http.StatusConflict, w.Code)

	// другой пользователь не видит и не меняет чужие записи
	w = doJSON(t, mux.ServeHTTP, http.MethodGet, "/api/v1/items", nil, "u2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[api.ItemsResponse](t, w).Items)

	w = doJSON(t, mux.ServeHTTP, http.MethodPut, "/api/v1/items/"+item.ID, item, "u2")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, mux.ServeHTTP, http.MethodDelete, "/api/v1/items/"+item.ID, nil, "u2")
	assert.Equal(t, http.StatusNotFound, w.Code)

	item.Title = "Mail (work)"
	item.IsFavorite = true
	w = doJSON(t, mux.ServeHTTP, http.MethodPut, "/api/v1/items/"+item.ID, item, "u1")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, mux.ServeHTTP, http.MethodGet, "/api/v1/items", nil, "u1")
	items := decodeBody[api.ItemsResponse](t, w).Items
	require.Len(t, items, 1)
	assert.Equal(t, "Mail (work)", items[0].Title)
	assert.True(t, items[0].IsFavorite)
	assert.Equal(t, item.Ciphertext, items[0].Ciphertext)

	w = doJSON(t, mux.ServeHTTP, http.MethodDelete, "/api/v1/items/"+item.ID, nil, "u1")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.items)
}

func TestVaultHandler_Items_Validation(t *testing.T) {
	_, _, mux := newVaultEnv()

	badID := testItem()
	badID.ID = "not-a-uuid"
	noTitle := testItem()
	noTitle.Title = ""
	badIV := testItem()
	badIV.IV = []byte{1}
	badTag := testItem()
	badTag.AuthTag = nil
	badCategory := testItem()
	cat := "nope"
	badCategory.CategoryID = &cat

	for name, body := range map[string]api.Item{
		"bad id":       badID,
		"no title":     noTitle,
		"bad iv":       badIV,
		"bad tag":      badTag,
		"bad category": badCategory,
	} {
		t.Run(name, func(t *testing.T) {
			w := doJSON(t, mux.ServeHTTP, http.MethodPost, "/api/v1/items", body, "u1")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	t.Run("id mismatch", func(t *testing.T) {
		item := testItem()
		w := doJSON(t, mux.ServeHTTP, http.MethodPut, "/api/v1/items/"+uuid.NewString(), item, "u1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("foreign category", func(t *testing.T) {
		category := api.Category{ID: uuid.NewString(), Name: "Work"}
		w := doJSON(t, mux.ServeHTTP, http.MethodPost, "/api/v1/categories", category, "u2")
		require.Equal(t, http.StatusCreated, w.Code)

		item := testItem()
		item.CategoryID = &category.ID
		w = doJSON(t, mux.ServeHTTP, http.MethodPost, "/api/v1/items", item, "u1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestVaultHandler_ListItems_StorageError(t *testing.T) {
	_, store, mux := newVaultEnv()
	store.listError = errors.New("db down")

	w := doJSON(t, mux.ServeHTTP, http.MethodGet, "/api/v1/items", nil, "u1")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestVaultHandler_Categories(t *testing.T) {
	_, store, mux := newVaultEnv()

	category := api.Category{ID: uuid.NewString(), Name: "Work", Color: "#00f"}
	w := doJSON(t, mux.ServeHTTP, http.MethodPost, "/api/v1/categories", category, "u1")
	require.Equal(t, http.StatusCreated, w.Code)

	item := testItem()
	item.CategoryID = &category.ID
	w = doJSON(t, mux.ServeHTTP, http.MethodPost, "/api/v1/items", item, "u1")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, mux.ServeHTTP, http.MethodGet, "/api/v1/categories", nil, "u1")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[api.CategoriesResponse](t, w).Categories
	require.Len(t, got, 1)
	assert.Equal(t, "Work", got[0].Name)

	w = doJSON(t, mux.ServeHTTP, http.MethodDelete, "/api/v1/categories/"+category.ID, nil, "u2")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, mux.ServeHTTP, http.MethodDelete, "/api/v1/categories/"+category.ID, nil, "u1")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Nil(t, store.items[item.ID].CategoryID)

	w = doJSON(t, mux.ServeHTTP, http.MethodPost, "/api/v1/categories", api.Category{ID: uuid.NewString()}, "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
