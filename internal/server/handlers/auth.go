package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/zkvault/internal/crypto"
	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/server/storage"
	"github.com/iudanet/zkvault/internal/validation"
	"github.com/iudanet/zkvault/pkg/api"
)

// authSecretSize - размер auth secret в байтах (hex в запросе)
const authSecretSize = 32

// AuthConfig содержит настройки identity provider
type AuthConfig struct {
	JWT        JWTConfig
	SaltSecret []byte // ключ HMAC для ложных солей неизвестных email
	BcryptCost int    // 0 - bcrypt.DefaultCost
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	responder
	accounts storage.AccountStorage
	profiles storage.ProfileStorage
	tokens   storage.TokenStorage
	cfg      AuthConfig

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(
	logger *slog.Logger,
	accounts storage.AccountStorage,
	profiles storage.ProfileStorage,
	tokens storage.TokenStorage,
	cfg AuthConfig,
) *AuthHandler {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthHandler{
		responder: responder{logger: logger},
		accounts:  accounts,
		profiles:  profiles,
		tokens:    tokens,
		cfg:       cfg,
	}
}

// Register обрабатывает POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	email, ok := h.validateCredentials(w, r, req.Email, req.AuthSecret)
	if !ok {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.AuthSecret), h.cfg.BcryptCost)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash auth secret", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	account := &models.Account{
		ID:             uuid.New().String(),
		Email:          email,
		AuthSecretHash: string(hash),
		CreatedAt:      time.Now().UTC(),
	}

	if err := h.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrAccountAlreadyExists) {
			h.logger.WarnContext(ctx, "account already exists")
			h.sendError(w, "email already registered", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create account", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp, err := h.issueTokens(ctx, account)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue tokens", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "account registered", slog.String("user_id", account.ID))

	h.sendJSON(w, resp, http.StatusCreated)
}

// GetSalt обрабатывает GET /api/v1/auth/salt/{email}.
// Для неизвестного email возвращает детерминированную ложную соль,
// чтобы эндпоинт не раскрывал наличие аккаунта.
func (h *AuthHandler) GetSalt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := validation.NormalizeEmail(r.PathValue("email"))
	if err := validation.ValidateEmail(email); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	salt, err := h.profiles.GetSaltByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, storage.ErrProfileNotFound) {
			h.logger.ErrorContext(ctx, "failed to get salt", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		salt = h.decoySalt(email)
	}

	h.sendJSON(w, api.SaltResponse{KDFSalt: salt}, http.StatusOK)
}

func (h *AuthHandler) decoySalt(email string) []byte {
	mac := hmac.New(sha256.New, h.cfg.SaltSecret)
	mac.Write([]byte(email))
	return mac.Sum(nil)[:crypto.SaltSize]
}

// Login обрабатывает POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	email, ok := h.validateCredentials(w, r, req.Email, req.AuthSecret)
	if !ok {
		return
	}

	account, err := h.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			// выравниваем время ответа с существующим аккаунтом
			_ = bcrypt.CompareHashAndPassword(h.dummy(), []byte(req.AuthSecret))
			h.logger.WarnContext(ctx, "login failed: account not found")
			h.sendError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get account", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.AuthSecretHash), []byte(req.AuthSecret)); err != nil {
		h.logger.WarnContext(ctx, "login failed: invalid auth secret", slog.String("user_id", account.ID))
		h.sendError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	resp, err := h.issueTokens(ctx, account)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue tokens", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.accounts.UpdateLastLogin(ctx, account.ID, time.Now().UTC()); err != nil {
		// Не критичная ошибка, логируем но не прерываем
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "user logged in", slog.String("user_id", account.ID))

	h.sendJSON(w, resp, http.StatusOK)
}

// Refresh обрабатывает POST /api/v1/auth/refresh.
// Refresh token одноразовый: старый удаляется, выдается новая пара.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refreshToken, ok := BearerToken(r)
	if !ok {
		h.sendError(w, "refresh token is required", http.StatusUnauthorized)
		return
	}

	stored, err := h.tokens.ConsumeRefreshToken(ctx, hashRefreshToken(refreshToken), time.Now())
	switch {
	case errors.Is(err, storage.ErrTokenNotFound):
		// неизвестный или уже использованный токен
		h.logger.WarnContext(ctx, "refresh token not found")
		h.sendError(w, "invalid refresh token", http.StatusUnauthorized)
		return
	case errors.Is(err, storage.ErrTokenExpired):
		h.logger.WarnContext(ctx, "refresh token expired")
		h.sendError(w, "refresh token expired", http.StatusUnauthorized)
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to consume refresh token", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	account, err := h.accounts.GetAccountByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			h.sendError(w, "invalid refresh token", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get account", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp, err := h.issueTokens(ctx, account)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue tokens", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "tokens refreshed", slog.String("user_id", account.ID))

	h.sendJSON(w, resp, http.StatusOK)
}

// Logout обрабатывает POST /api/v1/auth/logout (под AuthMiddleware).
// Отзывает все refresh tokens пользователя.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	deleted, err := h.tokens.RevokeUserTokens(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke user tokens", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", userID),
		slog.Int("tokens_deleted", deleted))

	w.WriteHeader(http.StatusNoContent)
}

// validateCredentials нормализует email и проверяет формат auth secret
func (h *AuthHandler) validateCredentials(w http.ResponseWriter, r *http.Request, rawEmail, authSecret string) (string, bool) {
	email := validation.NormalizeEmail(rawEmail)
	if err := validation.ValidateEmail(email); err != nil {
		h.logger.WarnContext(r.Context(), "invalid email", slog.Any("error", err))
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}

	if b, err := hex.DecodeString(authSecret); err != nil || len(b) != authSecretSize {
		h.sendError(w, "auth_secret must be 32 hex-encoded bytes", http.StatusBadRequest)
		return "", false
	}

	return email, true
}

func (h *AuthHandler) issueTokens(ctx context.Context, account *models.Account) (*api.TokenResponse, error) {
	accessToken, expiresIn, err := GenerateAccessToken(h.cfg.JWT, account.ID, account.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, expiresAt, err := GenerateRefreshToken(h.cfg.JWT)
	if err != nil {
		return nil, err
	}

	token := &models.RefreshToken{
		Token:     hashRefreshToken(refreshToken),
		UserID:    account.ID,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.tokens.StoreRefreshToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &api.TokenResponse{
		UserID:       account.ID,
		Email:        account.Email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

func (h *AuthHandler) dummy() []byte {
	h.dummyOnce.Do(func() {
		// ошибка возможна только при неверном cost, тогда сравнение просто быстрое
		h.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("zkvault-dummy-secret"), h.cfg.BcryptCost)
	})
	return h.dummyHash
}

// BearerToken извлекает токен из заголовка "Authorization: Bearer <token>"
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
