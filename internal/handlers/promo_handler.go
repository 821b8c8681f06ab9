package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fiestaliquor/storefront/internal/middleware"
	"github.com/fiestaliquor/storefront/internal/models"
	"github.com/fiestaliquor/storefront/internal/promo"
	"github.com/fiestaliquor/storefront/internal/repository"
)

// PromoHandler serves promo code validation for customers and CRUD for
// admins.
type PromoHandler struct {
	promos    repository.PromoRepository
	validator *promo.Validator
	logger    *slog.Logger
}

func NewPromoHandler(promos repository.PromoRepository, validator *promo.Validator, logger *slog.Logger) *PromoHandler {
	return &PromoHandler{promos: promos, validator: validator, logger: logger}
}

type validatePromoRequest struct {
	Code       string  `json:"code"`
	OrderTotal float64 `json:"orderTotal"`
}

type validatePromoResponse struct {
	Valid    bool    `json:"valid"`
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
	Type     string  `json:"type"`
	Message  string  `json:"message"`
}

// Validate handles POST /api/promo-codes/validate. The token identity drives
// the per-user redemption check.
func (h *PromoHandler) Validate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication required", h.logger)
		return
	}

	var req validatePromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		WriteError(w, http.StatusBadRequest, "Promo code is required", h.logger)
		return
	}

	result, err := h.validator.Validate(r.Context(), claims.Identity(), req.Code, req.OrderTotal)
	if err != nil {
		h.writeValidationError(w, req.Code, err)
		return
	}
	WriteJSON(w, http.StatusOK, validatePromoResponse{
		Valid:    true,
		Code:     result.Code,
		Discount: result.Discount,
		Type:     result.Type,
		Message:  result.Message,
	}, h.logger)
}

type redeemPromoRequest struct {
	Code string `json:"code"`
}

// Redeem handles POST /api/promo-codes/redeem, recording the redemption
// against the token identity.
func (h *PromoHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication required", h.logger)
		return
	}

	var req redeemPromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		WriteError(w, http.StatusBadRequest, "Promo code is required", h.logger)
		return
	}

	code, err := h.validator.Redeem(r.Context(), claims.Identity(), req.Code)
	if err != nil {
		h.writeValidationError(w, req.Code, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "code": code.Code}, h.logger)
}

func (h *PromoHandler) writeValidationError(w http.ResponseWriter, code string, err error) {
	var minErr *promo.MinOrderError
	switch {
	case errors.Is(err, promo.ErrNotFound):
		WriteError(w, http.StatusNotFound, "Invalid promo code", h.logger)
	case errors.As(err, &minErr),
		errors.Is(err, promo.ErrInactive),
		errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrUsageLimit),
		errors.Is(err, promo.ErrAlreadyUsed):
		WriteError(w, http.StatusBadRequest, capitalize(err.Error()), h.logger)
	default:
		h.logger.Error("promo validation failed", "code", code, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
	}
}

// List handles GET /api/admin/promo-codes
func (h *PromoHandler) List(w http.ResponseWriter, r *http.Request) {
	promos, err := h.promos.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list promo codes", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, promos, h.logger)
}

// Create handles POST /api/admin/promo-codes
func (h *PromoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var code models.PromoCode
	if err := json.NewDecoder(r.Body).Decode(&code); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}
	if msg := validatePromoCode(&code); msg != "" {
		WriteError(w, http.StatusBadRequest, msg, h.logger)
		return
	}

	if err := h.promos.Create(r.Context(), &code); err != nil {
		if errors.Is(err, repository.ErrCodeTaken) {
			WriteError(w, http.StatusConflict, "A promo code with this name already exists", h.logger)
			return
		}
		h.logger.Error("failed to create promo code", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	h.reloadValidator(r)
	WriteJSON(w, http.StatusCreated, code, h.logger)
}

// Update handles PUT /api/admin/promo-codes/{id}
func (h *PromoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid promo code ID", h.logger)
		return
	}

	var code models.PromoCode
	if err := json.NewDecoder(r.Body).Decode(&code); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}
	if msg := validatePromoCode(&code); msg != "" {
		WriteError(w, http.StatusBadRequest, msg, h.logger)
		return
	}

	// Apply the editable fields onto the stored record so redemption
	// bookkeeping (usage count, per-user history) survives the edit.
	existing, err := h.findByID(r, id)
	if err != nil {
		if errors.Is(err, repository.ErrPromoNotFound) {
			WriteError(w, http.StatusNotFound, "Promo code not found", h.logger)
			return
		}
		h.logger.Error("failed to load promo code", "id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}
	existing.Code = code.Code
	existing.Type = code.Type
	existing.Value = code.Value
	existing.MinOrder = code.MinOrder
	existing.MaxDiscount = code.MaxDiscount
	existing.ExpiresAt = code.ExpiresAt
	existing.UsageLimit = code.UsageLimit
	existing.Active = code.Active

	if err := h.promos.Update(r.Context(), existing); err != nil {
		if errors.Is(err, repository.ErrPromoNotFound) {
			WriteError(w, http.StatusNotFound, "Promo code not found", h.logger)
			return
		}
		h.logger.Error("failed to update promo code", "id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	h.reloadValidator(r)
	WriteJSON(w, http.StatusOK, existing, h.logger)
}

// Delete handles DELETE /api/admin/promo-codes/{id}
func (h *PromoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid promo code ID", h.logger)
		return
	}

	if err := h.promos.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrPromoNotFound) {
			WriteError(w, http.StatusNotFound, "Promo code not found", h.logger)
			return
		}
		h.logger.Error("failed to delete promo code", "id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	h.reloadValidator(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PromoHandler) findByID(r *http.Request, id int64) (*models.PromoCode, error) {
	promos, err := h.promos.List(r.Context())
	if err != nil {
		return nil, err
	}
	for i := range promos {
		if promos[i].ID == id {
			return &promos[i], nil
		}
	}
	return nil, repository.ErrPromoNotFound
}

func (h *PromoHandler) reloadValidator(r *http.Request) {
	if err := h.validator.Reload(r.Context()); err != nil {
		h.logger.Warn("failed to reload promo filter", "error", err)
	}
}

func validatePromoCode(code *models.PromoCode) string {
	code.Code = strings.TrimSpace(code.Code)
	if code.Code == "" {
		return "Code is required"
	}
	if code.Type != models.PromoTypePercentage && code.Type != models.PromoTypeFixed {
		return "Type must be percentage or fixed"
	}
	if code.Value <= 0 {
		return "Value must be positive"
	}
	if code.Type == models.PromoTypePercentage && code.Value > 100 {
		return "Percentage value cannot exceed 100"
	}
	return ""
}

// capitalize uppercases the first byte for user-facing messages built from
// sentinel error strings.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
