package vault

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/zkvault/internal/crypto"
	"github.com/iudanet/zkvault/internal/models"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "VeryStrongPass123!!"
	wrongPass    = "WrongPass1!!"
)

var errNotFound = errors.New("not found")

// memStore - RecordStore в памяти. Запоминает все, что ему передали.
type memStore struct {
	profiles   map[string]*models.Profile
	items      map[string]map[string]*models.VaultItem
	categories map[string]map[string]*models.Category

	// received - все записи, которые видел store
	received []*models.VaultItem

	failCreateProfile error
	failUpdateProfile error
	failGetItems      error
	failInsert        error
	failUpdate        error
	failDelete        error

	mu sync.Mutex

	profileUpdates int
}

func newMemStore() *memStore {
	return &memStore{
		profiles:   make(map[string]*models.Profile),
		items:      make(map[string]map[string]*models.VaultItem),
		categories: make(map[string]map[string]*models.Category),
	}
}

func cloneProfile(p *models.Profile) *models.Profile {
	c := *p
	c.KDFSalt = append([]byte(nil), p.KDFSalt...)
	if p.FailedUnlockLockedUntil != nil {
		t := *p.FailedUnlockLockedUntil
		c.FailedUnlockLockedUntil = &t
	}
	return &c
}

func (m *memStore) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, errNotFound
	}
	return cloneProfile(p), nil
}

func (m *memStore) profileByEmail(email string) *models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email == email {
			return cloneProfile(p)
		}
	}
	return nil
}

func (m *memStore) CreateProfile(_ context.Context, profile *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateProfile != nil {
		return m.failCreateProfile
	}
	m.profiles[profile.ID] = cloneProfile(profile)
	return nil
}

func (m *memStore) UpdateProfile(_ context.Context, profile *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdateProfile != nil {
		return m.failUpdateProfile
	}
	existing, ok := m.profiles[profile.ID]
	if !ok {
		return errNotFound
	}
	updated := cloneProfile(existing)
	updated.FailedUnlockAttempts = profile.FailedUnlockAttempts
	updated.FailedUnlockLockedUntil = profile.FailedUnlockLockedUntil
	updated.AutoLockMinutes = profile.AutoLockMinutes
	updated.ClearClipboardSeconds = profile.ClearClipboardSeconds
	m.profiles[profile.ID] = cloneProfile(updated)
	m.profileUpdates++
	return nil
}

func (m *memStore) GetItems(_ context.Context, userID string) ([]*models.VaultItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGetItems != nil {
		return nil, m.failGetItems
	}
	var out []*models.VaultItem
	for _, item := range m.items[userID] {
		out = append(out, item.Clone())
	}
	return out, nil
}

func (m *memStore) put(item *models.VaultItem) {
	if m.items[item.UserID] == nil {
		m.items[item.UserID] = make(map[string]*models.VaultItem)
	}
	m.items[item.UserID][item.ID] = item.Clone()
	m.received = append(m.received, item.Clone())
}

func (m *memStore) InsertItem(_ context.Context, item *models.VaultItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert != nil {
		return m.failInsert
	}
	m.put(item)
	return nil
}

func (m *memStore) UpdateItem(_ context.Context, item *models.VaultItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate != nil {
		return m.failUpdate
	}
	if _, ok := m.items[item.UserID][item.ID]; !ok {
		return errNotFound
	}
	m.put(item)
	return nil
}

func (m *memStore) DeleteItem(_ context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return m.failDelete
	}
	if _, ok := m.items[userID][itemID]; !ok {
		return errNotFound
	}
	delete(m.items[userID], itemID)
	return nil
}

func (m *memStore) GetCategories(_ context.Context, userID string) ([]*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Category
	for _, c := range m.categories[userID] {
		cc := *c
		out = append(out, &cc)
	}
	return out, nil
}

func (m *memStore) InsertCategory(_ context.Context, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.categories[category.UserID] == nil {
		m.categories[category.UserID] = make(map[string]*models.Category)
	}
	c := *category
	m.categories[category.UserID][category.ID] = &c
	return nil
}

func (m *memStore) DeleteCategory(_ context.Context, userID, categoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[userID][categoryID]; !ok {
		return errNotFound
	}
	delete(m.categories[userID], categoryID)
	for _, item := range m.items[userID] {
		if item.CategoryID != nil && *item.CategoryID == categoryID {
			item.CategoryID = nil
		}
	}
	return nil
}

func (m *memStore) storedItem(userID, itemID string) *models.VaultItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item, ok := m.items[userID][itemID]; ok {
		return item.Clone()
	}
	return nil
}

func (m *memStore) profile(userID string) *models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneProfile(m.profiles[userID])
}

// fakeIdentity - IdentityProvider в памяти; соль берет из профилей memStore
type fakeIdentity struct {
	store    *memStore
	accounts map[string]fakeAccount

	signUpErr  error
	signInErr  error
	signOutErr error
	deleteErr  error

	current string

	mu sync.Mutex

	deleted  int
	signOuts int
}

type fakeAccount struct {
	userID string
	secret string
}

func newFakeIdentity(store *memStore) *fakeIdentity {
	return &fakeIdentity{store: store, accounts: make(map[string]fakeAccount)}
}

func (f *fakeIdentity) GetSalt(_ context.Context, email string) ([]byte, error) {
	p := f.store.profileByEmail(email)
	if p == nil {
		return nil, errNotFound
	}
	return p.KDFSalt, nil
}

func (f *fakeIdentity) SignUp(_ context.Context, email, authSecret string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	if _, ok := f.accounts[email]; ok {
		return nil, errors.New("email taken")
	}
	acc := fakeAccount{userID: uuid.NewString(), secret: authSecret}
	f.accounts[email] = acc
	f.current = email
	return &models.Identity{UserID: acc.userID, Email: email, AccessToken: "access"}, nil
}

func (f *fakeIdentity) SignIn(_ context.Context, email, authSecret string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	acc, ok := f.accounts[email]
	if !ok || acc.secret != authSecret {
		return nil, errors.New("invalid credentials")
	}
	f.current = email
	return &models.Identity{UserID: acc.userID, Email: email, AccessToken: "access"}, nil
}

func (f *fakeIdentity) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	f.current = ""
	return f.signOutErr
}

func (f *fakeIdentity) DeleteAccount(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted++
	delete(f.accounts, f.current)
	f.current = ""
	return nil
}

// fakeClock - управляемое время
type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingDeriver - быстрый KDF со счетчиком вызовов
type countingDeriver struct {
	calls atomic.Int32
}

func (d *countingDeriver) derive(password string, salt []byte) (*crypto.Keys, error) {
	d.calls.Add(1)
	return crypto.DeriveKeysWithIterations(password, salt, 2)
}

type testEnv struct {
	session *Session
	store   *memStore
	idp     *fakeIdentity
	clock   *fakeClock
	deriver *countingDeriver
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	store := newMemStore()
	idp := newFakeIdentity(store)
	clock := newFakeClock()
	deriver := &countingDeriver{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	all := append([]Option{WithClock(clock.Now), WithDeriver(deriver.derive)}, opts...)

	return &testEnv{
		session: New(store, idp, logger, all...),
		store:   store,
		idp:     idp,
		clock:   clock,
		deriver: deriver,
	}
}

// registered возвращает окружение с зарегистрированным и разблокированным пользователем
func registered(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	env := newTestEnv(t, opts...)
	if err := env.session.Register(context.Background(), testEmail, testPassword, testPassword); err != nil {
		t.Fatalf("register: %v", err)
	}
	return env
}

func (e *testEnv) userID() string {
	return e.session.Identity().UserID
}
