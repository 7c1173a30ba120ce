package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/zkvault/internal/server/storage"
)

// AccountHandler обрабатывает операции над аккаунтом
type AccountHandler struct {
	responder
	accounts storage.AccountStorage
}

// NewAccountHandler создает handler аккаунта
func NewAccountHandler(logger *slog.Logger, accounts storage.AccountStorage) *AccountHandler {
	return &AccountHandler{responder: responder{logger: logger}, accounts: accounts}
}

// Delete обрабатывает DELETE /api/v1/account.
// Профиль, записи, категории и refresh tokens удаляются каскадно.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.accounts.DeleteAccount(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			h.sendError(w, "account not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete account", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "account deleted", slog.String("user_id", userID))

	w.WriteHeader(http.StatusNoContent)
}
