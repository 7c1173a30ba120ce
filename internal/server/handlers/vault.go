package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/zkvault/internal/crypto"
	"github.com/iudanet/zkvault/internal/server/storage"
	"github.com/iudanet/zkvault/internal/validation"
	"github.com/iudanet/zkvault/pkg/api"
)

// VaultHandler - record store поверх HTTP.
// Сервер видит только ciphertext и открытые метаданные; владелец
// всегда берется из access token.
type VaultHandler struct {
	responder
	profiles   storage.ProfileStorage
	items      storage.ItemStorage
	categories storage.CategoryStorage
}

// NewVaultHandler создает handler хранилища
func NewVaultHandler(
	logger *slog.Logger,
	profiles storage.ProfileStorage,
	items storage.ItemStorage,
	categories storage.CategoryStorage,
) *VaultHandler {
	return &VaultHandler{
		responder:  responder{logger: logger},
		profiles:   profiles,
		items:      items,
		categories: categories,
	}
}

// GetProfile обрабатывает GET /api/v1/profile
func (h *VaultHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	profile, err := h.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrProfileNotFound) {
			h.sendError(w, "profile not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get profile", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, api.ProfileFromModel(profile), http.StatusOK)
}

// CreateProfile обрабатывает POST /api/v1/profile
func (h *VaultHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	email, _ := GetEmailFromContext(ctx)

	var req api.Profile
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.KDFSalt) != crypto.SaltSize {
		h.sendError(w, "kdf_salt must be 16 bytes", http.StatusBadRequest)
		return
	}
	if req.VerifierHash == "" {
		h.sendError(w, "verifier_hash is required", http.StatusBadRequest)
		return
	}
	if !validSettings(req) {
		h.sendError(w, "settings out of range", http.StatusBadRequest)
		return
	}

	profile := req.ToModel(userID, email)
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}

	if err := h.profiles.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, storage.ErrProfileAlreadyExists) {
			h.sendError(w, "profile already exists", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create profile", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "profile created", slog.String("user_id", userID))

	h.sendJSON(w, api.ProfileFromModel(profile), http.StatusCreated)
}

// UpdateProfile обрабатывает PUT /api/v1/profile.
// Меняются только счетчик неудач, блокировка и настройки.
func (h *VaultHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req api.Profile
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.FailedUnlockAttempts < 0 || !validSettings(req) {
		h.sendError(w, "settings out of range", http.StatusBadRequest)
		return
	}

	if err := h.profiles.UpdateProfile(ctx, req.ToModel(userID, "")); err != nil {
		if errors.Is(err, storage.ErrProfileNotFound) {
			h.sendError(w, "profile not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update profile", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// validSettings проверяет границы настроек профиля
func validSettings(p api.Profile) bool {
	return validation.ValidateAutoLockMinutes(p.AutoLockMinutes) == nil &&
		validation.ValidateClearClipboardSeconds(p.ClearClipboardSeconds) == nil
}

// ListItems обрабатывает GET /api/v1/items
func (h *VaultHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	items, err := h.items.ListItems(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list items", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.ItemsResponse{Items: make([]api.Item, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, api.ItemFromModel(item))
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// CreateItem обрабатывает POST /api/v1/items
func (h *VaultHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req api.Item
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := validateItem(req); msg != "" {
		h.sendError(w, msg, http.StatusBadRequest)
		return
	}

	item := req.ToModel(userID)
	if err := h.items.CreateItem(ctx, item); err != nil {
		switch {
		case errors.Is(err, storage.ErrItemAlreadyExists):
			h.sendError(w, "item already exists", http.StatusConflict)
		case errors.Is(err, storage.ErrCategoryNotFound):
			h.sendError(w, "category not found", http.StatusBadRequest)
		default:
			h.logger.ErrorContext(ctx, "failed to create item", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.DebugContext(ctx, "item created", slog.String("user_id", userID), slog.String("item_id", item.ID))

	h.sendJSON(w, api.ItemFromModel(item), http.StatusCreated)
}

// UpdateItem обрабатывает PUT /api/v1/items/{id}
func (h *VaultHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req api.Item
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	if req.ID == "" {
		req.ID = id
	}
	if req.ID != id {
		h.sendError(w, "item id mismatch", http.StatusBadRequest)
		return
	}
	if msg := validateItem(req); msg != "" {
		h.sendError(w, msg, http.StatusBadRequest)
		return
	}

	if err := h.items.UpdateItem(ctx, req.ToModel(userID)); err != nil {
		switch {
		case errors.Is(err, storage.ErrItemNotFound):
			h.sendError(w, "item not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrCategoryNotFound):
			h.sendError(w, "category not found", http.StatusBadRequest)
		default:
			h.logger.ErrorContext(ctx, "failed to update item", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteItem обрабатывает DELETE /api/v1/items/{id}
func (h *VaultHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.items.DeleteItem(ctx, userID, r.PathValue("id")); err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			h.sendError(w, "item not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete item", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// validateItem проверяет форму зашифрованной записи. Содержимое серверу недоступно.
func validateItem(item api.Item) string {
	if _, err := uuid.Parse(item.ID); err != nil {
		return "id must be a UUID"
	}
	if item.CategoryID != nil {
		if _, err := uuid.Parse(*item.CategoryID); err != nil {
			return "category_id must be a UUID"
		}
	}
	if err := validation.ValidateTitle(item.Title); err != nil {
		return err.Error()
	}
	if len(item.IV) != crypto.NonceSize {
		return "iv must be 12 bytes"
	}
	if len(item.AuthTag) != crypto.TagSize {
		return "auth_tag must be 16 bytes"
	}
	return ""
}

// ListCategories обрабатывает GET /api/v1/categories
func (h *VaultHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	categories, err := h.categories.ListCategories(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list categories", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.CategoriesResponse{Categories: make([]api.Category, 0, len(categories))}
	for _, c := range categories {
		resp.Categories = append(resp.Categories, api.CategoryFromModel(c))
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// CreateCategory обрабатывает POST /api/v1/categories
func (h *VaultHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req api.Category
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := uuid.Parse(req.ID); err != nil {
		h.sendError(w, "id must be a UUID", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateCategoryName(req.Name); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	category := req.ToModel(userID)
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	if err := h.categories.CreateCategory(ctx, category); err != nil {
		h.logger.ErrorContext(ctx, "failed to create category", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, api.CategoryFromModel(category), http.StatusCreated)
}

// DeleteCategory обрабатывает DELETE /api/v1/categories/{id}.
// Записи категории остаются, ссылка на нее обнуляется.
func (h *VaultHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.categories.DeleteCategory(ctx, userID, r.PathValue("id")); err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			h.sendError(w, "category not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete category", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *VaultHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}
