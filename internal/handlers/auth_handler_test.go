package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/fiestaliquor/storefront/internal/models"
)

func authRouter(env *testEnv) *chi.Mux {
	h := NewAuthHandler(env.users, env.carts, env.tokens, env.logger)
	return env.router(func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
	}, nil)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	r := authRouter(env)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "",
		`{"name":"Alice","email":"Alice@Example.com","password":"secret1","cart":[{"productId":1,"quantity":2,"size":"750ml"}]}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp authResponse
	decodeBody(t, w, &resp)
	if resp.Token == "" {
		t.Error("expected a token in the response")
	}
	if resp.User.Email != "alice@example.com" {
		t.Errorf("expected lowercased email, got %q", resp.User.Email)
	}
	if len(resp.User.Cart) != 1 || resp.User.Cart[0].Quantity != 2 {
		t.Errorf("expected the submitted cart to be stored, got %+v", resp.User.Cart)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	r := authRouter(env)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing name", `{"email":"a@b.com","password":"secret1"}`, http.StatusBadRequest},
		{"short password", `{"name":"A","email":"a@b.com","password":"abc"}`, http.StatusBadRequest},
		{"malformed json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", tt.body)
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice@example.com", "secret1", models.RoleCustomer)
	r := authRouter(env)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "",
		`{"name":"Alice","email":"ALICE@example.com","password":"secret1"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", w.Code)
	}
}

func TestLoginMergesCart(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.addUser(t, "alice@example.com", "secret1", models.RoleCustomer)
	if _, err := env.users.UpdateCart(context.Background(), user.ID, []models.CartItem{
		{ProductID: 1, Quantity: 3, Size: "750ml"},
	}); err != nil {
		t.Fatalf("seeding cart: %v", err)
	}
	r := authRouter(env)

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "",
		`{"email":"alice@example.com","password":"secret1","cart":[{"productId":1,"quantity":1,"size":"750ml"},{"productId":2,"quantity":2}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp authResponse
	decodeBody(t, w, &resp)
	want := []models.CartItem{
		{ProductID: 1, Quantity: 3, Size: "750ml"}, // server quantity wins, larger
		{ProductID: 2, Quantity: 2},
	}
	if len(resp.User.Cart) != len(want) {
		t.Fatalf("expected %d cart lines, got %+v", len(want), resp.User.Cart)
	}
	for i := range want {
		if resp.User.Cart[i] != want[i] {
			t.Errorf("cart line %d: expected %+v, got %+v", i, want[i], resp.User.Cart[i])
		}
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice@example.com", "secret1", models.RoleCustomer)
	r := authRouter(env)

	tests := []struct {
		name string
		body string
	}{
		{"wrong password", `{"email":"alice@example.com","password":"wrong"}`},
		{"unknown email", `{"email":"bob@example.com","password":"secret1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", tt.body)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", w.Code)
			}
		})
	}
}
