package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/server/storage"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testJWTConfig() JWTConfig {
	return JWTConfig{
		Secret:          []byte("test-secret"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	}
}

// mockAccountStorage is an in-memory AccountStorage
type mockAccountStorage struct {
	accounts    map[string]*models.Account // email -> account
	createError error
	getError    error
	deleteError error
	lastLogins  map[string]time.Time
	mu          sync.Mutex
}

func newMockAccountStorage() *mockAccountStorage {
	return &mockAccountStorage{
		accounts:   make(map[string]*models.Account),
		lastLogins: make(map[string]time.Time),
	}
}

func (m *mockAccountStorage) CreateAccount(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	if _, exists := m.accounts[account.Email]; exists {
		return storage.ErrAccountAlreadyExists
	}
	a := *account
	m.accounts[account.Email] = &a
	return nil
}

func (m *mockAccountStorage) GetAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	a, ok := m.accounts[email]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	c := *a
	return &c, nil
}

func (m *mockAccountStorage) GetAccountByID(_ context.Context, userID string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	for _, a := range m.accounts {
		if a.ID == userID {
			c := *a
			return &c, nil
		}
	}
	return nil, storage.ErrAccountNotFound
}

func (m *mockAccountStorage) UpdateLastLogin(_ context.Context, userID string, lastLogin time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLogins[userID] = lastLogin
	return nil
}

func (m *mockAccountStorage) DeleteAccount(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteError != nil {
		return m.deleteError
	}
	for email, a := range m.accounts {
		if a.ID == userID {
			delete(m.accounts, email)
			return nil
		}
	}
	return storage.ErrAccountNotFound
}

// mockTokenStorage is an in-memory TokenStorage keyed by token hash
type mockTokenStorage struct {
	tokens      map[string]*models.RefreshToken
	saveError   error
	deleteError error
	mu          sync.Mutex
}

func newMockTokenStorage() *mockTokenStorage {
	return &mockTokenStorage{tokens: make(map[string]*models.RefreshToken)}
}

func (m *mockTokenStorage) StoreRefreshToken(_ context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	t := *token
	m.tokens[token.Token] = &t
	return nil
}

func (m *mockTokenStorage) ConsumeRefreshToken(_ context.Context, hash string, now time.Time) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteError != nil {
		return nil, m.deleteError
	}
	rt, ok := m.tokens[hash]
	if !ok {
		return nil, storage.ErrTokenNotFound
	}
	delete(m.tokens, hash)
	if !now.Before(rt.ExpiresAt) {
		return nil, storage.ErrTokenExpired
	}
	return rt, nil
}

func (m *mockTokenStorage) RevokeUserTokens(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteError != nil {
		return 0, m.deleteError
	}
	count := 0
	for token, rt := range m.tokens {
		if rt.UserID == userID {
			delete(m.tokens, token)
			count++
		}
	}
	return count, nil
}

func (m *mockTokenStorage) PurgeExpiredTokens(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (m *mockTokenStorage) has(hash string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[hash]
	return ok
}

func (m *mockTokenStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// mockVaultStorage is an in-memory profile/item/category storage
type mockVaultStorage struct {
	profiles   map[string]*models.Profile
	items      map[string]*models.VaultItem
	categories map[string]*models.Category
	listError  error
	mu         sync.Mutex
}

func newMockVaultStorage() *mockVaultStorage {
	return &mockVaultStorage{
		profiles:   make(map[string]*models.Profile),
		items:      make(map[string]*models.VaultItem),
		categories: make(map[string]*models.Category),
	}
}

func (m *mockVaultStorage) CreateProfile(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; ok {
		return storage.ErrProfileAlreadyExists
	}
	c := *p
	m.profiles[p.ID] = &c
	return nil
}

func (m *mockVaultStorage) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, storage.ErrProfileNotFound
	}
	c := *p
	return &c, nil
}

func (m *mockVaultStorage) GetSaltByEmail(_ context.Context, email string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email == email {
			return p.KDFSalt, nil
		}
	}
	return nil, storage.ErrProfileNotFound
}

func (m *mockVaultStorage) UpdateProfile(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.profiles[p.ID]
	if !ok {
		return storage.ErrProfileNotFound
	}
	existing.FailedUnlockAttempts = p.FailedUnlockAttempts
	existing.FailedUnlockLockedUntil = p.FailedUnlockLockedUntil
	existing.AutoLockMinutes = p.AutoLockMinutes
	existing.ClearClipboardSeconds = p.ClearClipboardSeconds
	return nil
}

func (m *mockVaultStorage) ListItems(_ context.Context, userID string) ([]*models.VaultItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listError != nil {
		return nil, m.listError
	}
	var out []*models.VaultItem
	for _, item := range m.items {
		if item.UserID == userID {
			out = append(out, item.Clone())
		}
	}
	return out, nil
}

func (m *mockVaultStorage) checkCategory(item *models.VaultItem) error {
	if item.CategoryID == nil {
		return nil
	}
	c, ok := m.categories[*item.CategoryID]
	if !ok || c.UserID != item.UserID {
		return storage.ErrCategoryNotFound
	}
	return nil
}

func (m *mockVaultStorage) CreateItem(_ context.Context, item *models.VaultItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; ok {
		return storage.ErrItemAlreadyExists
	}
	if err := m.checkCategory(item); err != nil {
		return err
	}
	m.items[item.ID] = item.Clone()
	return nil
}

func (m *mockVaultStorage) UpdateItem(_ context.Context, item *models.VaultItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[item.ID]
	if !ok || existing.UserID != item.UserID {
		return storage.ErrItemNotFound
	}
	if err := m.checkCategory(item); err != nil {
		return err
	}
	m.items[item.ID] = item.Clone()
	return nil
}

func (m *mockVaultStorage) DeleteItem(_ context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[itemID]
	if !ok || existing.UserID != userID {
		return storage.ErrItemNotFound
	}
	delete(m.items, itemID)
	return nil
}

func (m *mockVaultStorage) ListCategories(_ context.Context, userID string) ([]*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Category
	for _, c := range m.categories {
		if c.UserID == userID {
			cc := *c
			out = append(out, &cc)
		}
	}
	return out, nil
}

func (m *mockVaultStorage) CreateCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc := *c
	m.categories[c.ID] = &cc
	return nil
}

func (m *mockVaultStorage) DeleteCategory(_ context.Context, userID, categoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[categoryID]
	if !ok || c.UserID != userID {
		return storage.ErrCategoryNotFound
	}
	delete(m.categories, categoryID)
	for _, item := range m.items {
		if item.CategoryID != nil && *item.CategoryID == categoryID {
			item.CategoryID = nil
		}
	}
	return nil
}

// doJSON выполняет handler с JSON телом и, при необходимости, identity в контексте
func doJSON(t *testing.T, h http.HandlerFunc, method, target string, body any, userID string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		if raw, ok := body.(string); ok {
			reader = bytes.NewReader([]byte(raw))
		} else {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(WithIdentity(req.Context(), userID, userID+"@example.com"))
	}

	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}
