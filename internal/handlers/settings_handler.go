package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fiestaliquor/storefront/internal/repository"
)

// SettingsHandler serves the admin store-settings endpoints.
type SettingsHandler struct {
	settings repository.SettingsRepository
	logger   *slog.Logger
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(settings repository.SettingsRepository, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// Get handles GET /api/admin/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to fetch settings", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, settings, h.logger)
}

// Update handles PUT /api/admin/settings. The request body is merged over the
// stored record, so partial updates leave unmentioned fields alone.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to update settings", h.logger)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(settings); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	switch {
	case settings.DeliveryFee < 0:
		WriteError(w, http.StatusBadRequest, "Delivery fee cannot be negative", h.logger)
		return
	case settings.MinimumOrder < 0:
		WriteError(w, http.StatusBadRequest, "Minimum order cannot be negative", h.logger)
		return
	case settings.TaxRate < 0 || settings.TaxRate > 1:
		WriteError(w, http.StatusBadRequest, "Tax rate must be between 0 and 1", h.logger)
		return
	}

	if err := h.settings.Update(r.Context(), settings); err != nil {
		h.logger.Error("failed to save settings", "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to update settings", h.logger)
		return
	}

	h.logger.Info("settings updated")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Settings updated successfully",
		"settings": settings,
	}, h.logger)
}
