package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fiestaliquor/storefront/internal/cart"
	"github.com/fiestaliquor/storefront/internal/middleware"
	"github.com/fiestaliquor/storefront/internal/repository"
	"github.com/fiestaliquor/storefront/internal/service"
)

// CartHandler serves the authenticated user's server-side cart.
type CartHandler struct {
	carts  *service.CartService
	logger *slog.Logger
}

func NewCartHandler(carts *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

// Get handles GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication required", h.logger)
		return
	}

	items, err := h.carts.GetCart(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			WriteError(w, http.StatusNotFound, "User not found", h.logger)
			return
		}
		h.logger.Error("failed to load cart", "user_id", claims.UserID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"cart": items}, h.logger)
}

type syncRequest struct {
	Cart []cart.RawItem `json:"cart"`
}

// Sync handles POST /api/cart/sync. The payload is the client's full cart
// snapshot; it replaces the stored copy after sanitization.
func (h *CartHandler) Sync(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication required", h.logger)
		return
	}

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	items, err := h.carts.SyncCart(r.Context(), claims.UserID, req.Cart)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			WriteError(w, http.StatusNotFound, "User not found", h.logger)
			return
		}
		h.logger.Error("failed to sync cart", "user_id", claims.UserID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"cart":    items,
		"message": "Cart synced successfully",
	}, h.logger)
}
