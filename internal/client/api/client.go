package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/pkg/api"
)

// maxResponseSize ограничивает размер читаемого ответа
const maxResponseSize = 32 << 20

// TokenObserver получает новую пару токенов после регистрации, входа или refresh
type TokenObserver func(ctx context.Context, identity *models.Identity)

// Client представляет HTTP клиент для взаимодействия с сервером.
// Хранит текущие токены и один раз обновляет их при ответе 401.
type Client struct {
	httpClient *http.Client
	onTokens   TokenObserver
	identity   *models.Identity
	baseURL    string

	mu        sync.Mutex
	refreshMu sync.Mutex
}

// Option настраивает Client
type Option func(*Client)

// WithHTTPClient подменяет http.Client (тесты, таймауты)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenObserver регистрирует обработчик новых токенов (сохранение сессии)
func WithTokenObserver(fn TokenObserver) Option {
	return func(c *Client) { c.onTokens = fn }
}

// NewClient создает новый API клиент
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetIdentity устанавливает токены восстановленной сессии
func (c *Client) SetIdentity(identity *models.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if identity == nil {
		c.identity = nil
		return
	}
	id := *identity
	c.identity = &id
}

// Identity возвращает копию текущей личности или nil
func (c *Client) Identity() *models.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil
	}
	id := *c.identity
	return &id
}

// Register регистрирует нового пользователя и запоминает токены
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*models.Identity, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return c.storeTokens(ctx, &resp), nil
}

// GetSalt получает соль KDF пользователя
func (c *Client) GetSalt(ctx context.Context, email string) ([]byte, error) {
	var resp api.SaltResponse
	path := "/api/v1/auth/salt/" + url.PathEscape(email)
	if err := c.doRequest(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("get salt request failed: %w", err)
	}
	return resp.KDFSalt, nil
}

// Login выполняет аутентификацию пользователя и запоминает токены
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*models.Identity, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return c.storeTokens(ctx, &resp), nil
}

// Refresh обменивает refresh token на новую пару
func (c *Client) Refresh(ctx context.Context) (*models.Identity, error) {
	current := c.Identity()
	if current == nil || current.RefreshToken == "" {
		return nil, ErrNoSession
	}
	return c.refresh(ctx, current.RefreshToken)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*models.Identity, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// другой запрос уже обновил токены, пока мы ждали
	if current := c.Identity(); current != nil && current.RefreshToken != refreshToken {
		return current, nil
	}

	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", refreshToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return c.storeTokens(ctx, &resp), nil
}

// Logout отзывает refresh tokens на сервере и забывает локальные токены
func (c *Client) Logout(ctx context.Context) error {
	err := c.doAuthorized(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	c.SetIdentity(nil)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// DeleteAccount удаляет аккаунт со всеми данными
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.doAuthorized(ctx, http.MethodDelete, "/api/v1/account", nil, nil); err != nil {
		return fmt.Errorf("delete account request failed: %w", err)
	}
	c.SetIdentity(nil)
	return nil
}

// GetProfile получает профиль хранилища
func (c *Client) GetProfile(ctx context.Context) (*api.Profile, error) {
	var resp api.Profile
	if err := c.doAuthorized(ctx, http.MethodGet, "/api/v1/profile", nil, &resp); err != nil {
		return nil, fmt.Errorf("get profile request failed: %w", err)
	}
	return &resp, nil
}

// CreateProfile сохраняет профиль, созданный при регистрации
func (c *Client) CreateProfile(ctx context.Context, profile api.Profile) error {
	if err := c.doAuthorized(ctx, http.MethodPost, "/api/v1/profile", profile, nil); err != nil {
		return fmt.Errorf("create profile request failed: %w", err)
	}
	return nil
}

// UpdateProfile обновляет изменяемые поля профиля
func (c *Client) UpdateProfile(ctx context.Context, profile api.Profile) error {
	if err := c.doAuthorized(ctx, http.MethodPut, "/api/v1/profile", profile, nil); err != nil {
		return fmt.Errorf("update profile request failed: %w", err)
	}
	return nil
}

// ListItems получает все зашифрованные записи
func (c *Client) ListItems(ctx context.Context) ([]api.Item, error) {
	var resp api.ItemsResponse
	if err := c.doAuthorized(ctx, http.MethodGet, "/api/v1/items", nil, &resp); err != nil {
		return nil, fmt.Errorf("list items request failed: %w", err)
	}
	return resp.Items, nil
}

// CreateItem сохраняет новую зашифрованную запись
func (c *Client) CreateItem(ctx context.Context, item api.Item) error {
	if err := c.doAuthorized(ctx, http.MethodPost, "/api/v1/items", item, nil); err != nil {
		return fmt.Errorf("create item request failed: %w", err)
	}
	return nil
}

// UpdateItem заменяет зашифрованную запись
func (c *Client) UpdateItem(ctx context.Context, item api.Item) error {
	if err := c.doAuthorized(ctx, http.MethodPut, "/api/v1/items/"+url.PathEscape(item.ID), item, nil); err != nil {
		return fmt.Errorf("update item request failed: %w", err)
	}
	return nil
}

// DeleteItem удаляет запись
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	if err := c.doAuthorized(ctx, http.MethodDelete, "/api/v1/items/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete item request failed: %w", err)
	}
	return nil
}

// ListCategories получает категории
func (c *Client) ListCategories(ctx context.Context) ([]api.Category, error) {
	var resp api.CategoriesResponse
	if err := c.doAuthorized(ctx, http.MethodGet, "/api/v1/categories", nil, &resp); err != nil {
		return nil, fmt.Errorf("list categories request failed: %w", err)
	}
	return resp.Categories, nil
}

// CreateCategory создает категорию
func (c *Client) CreateCategory(ctx context.Context, category api.Category) error {
	if err := c.doAuthorized(ctx, http.MethodPost, "/api/v1/categories", category, nil); err != nil {
		return fmt.Errorf("create category request failed: %w", err)
	}
	return nil
}

// DeleteCategory удаляет категорию
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	if err := c.doAuthorized(ctx, http.MethodDelete, "/api/v1/categories/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete category request failed: %w", err)
	}
	return nil
}

func (c *Client) storeTokens(ctx context.Context, resp *api.TokenResponse) *models.Identity {
	identity := &models.Identity{
		UserID:       resp.UserID,
		Email:        resp.Email,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
	c.SetIdentity(identity)
	if c.onTokens != nil {
		c.onTokens(ctx, c.Identity())
	}
	return c.Identity()
}

// doAuthorized выполняет запрос с access token.
// При 401 один раз обновляет токены и повторяет запрос.
func (c *Client) doAuthorized(ctx context.Context, method, path string, body, result any) error {
	current := c.Identity()
	if current == nil || current.AccessToken == "" {
		return ErrNoSession
	}

	err := c.doRequest(ctx, method, path, current.AccessToken, body, result)
	if !errors.Is(err, ErrUnauthorized) || current.RefreshToken == "" {
		return err
	}

	refreshed, refreshErr := c.refresh(ctx, current.RefreshToken)
	if refreshErr != nil {
		// исходная 401 информативнее ошибки refresh
		return err
	}
	return c.doRequest(ctx, method, path, refreshed.AccessToken, body, result)
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respErr := &ResponseError{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			respErr.Message = errResp.Message
		}
		return respErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
