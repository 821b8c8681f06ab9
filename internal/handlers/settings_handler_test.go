package handlers

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/fiestaliquor/storefront/internal/models"
	"github.com/fiestaliquor/storefront/internal/repository"
)

func settingsRouter(env *testEnv, t *testing.T) *chi.Mux {
	repo := repository.NewFileSettingsRepository(t.TempDir())
	h := NewSettingsHandler(repo, env.logger)
	return env.router(func(r chi.Router) {}, func(r chi.Router) {
		r.Get("/settings", h.Get)
		r.Put("/settings", h.Update)
	})
}

func TestSettingsDefaults(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.addUser(t, "admin@example.com", "secret1", models.RoleAdmin)
	r := settingsRouter(env, t)

	w := doJSON(t, r, http.MethodGet, "/api/admin/settings", adminToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var settings models.Settings
	decodeBody(t, w, &settings)
	if settings.DeliveryFee != 7.99 || settings.TaxRate != 0.0825 {
		t.Errorf("unexpected default rates: fee %.2f tax %.4f", settings.DeliveryFee, settings.TaxRate)
	}
	if !settings.BusinessHours["monday"].Enabled || settings.BusinessHours["sunday"].Enabled {
		t.Errorf("unexpected default hours: %+v", settings.BusinessHours)
	}
}

func TestSettingsUpdate(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.addUser(t, "admin@example.com", "secret1", models.RoleAdmin)
	_, customerToken := env.addUser(t, "alice@example.com", "secret1", models.RoleCustomer)
	r := settingsRouter(env, t)

	// Partial update keeps untouched fields.
	w := doJSON(t, r, http.MethodPut, "/api/admin/settings", adminToken, `{"minimumOrder": 40.00}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/admin/settings", adminToken, "")
	var settings models.Settings
	decodeBody(t, w, &settings)
	if settings.MinimumOrder != 40.00 {
		t.Errorf("expected minimum order 40.00, got %.2f", settings.MinimumOrder)
	}
	if settings.DeliveryFee != 7.99 {
		t.Errorf("expected delivery fee untouched at 7.99, got %.2f", settings.DeliveryFee)
	}

	tests := []struct {
		name string
		body string
	}{
		{"negative delivery fee", `{"deliveryFee": -1}`},
		{"negative minimum order", `{"minimumOrder": -5}`},
		{"tax rate over 1", `{"taxRate": 1.5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPut, "/api/admin/settings", adminToken, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
		})
	}

	w = doJSON(t, r, http.MethodPut, "/api/admin/settings", customerToken, `{"minimumOrder": 0}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected status 403 for customer, got %d", w.Code)
	}
}
