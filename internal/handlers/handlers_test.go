package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fiestaliquor/storefront/internal/auth"
	"github.com/fiestaliquor/storefront/internal/middleware"
	"github.com/fiestaliquor/storefront/internal/models"
	"github.com/fiestaliquor/storefront/internal/notify"
	"github.com/fiestaliquor/storefront/internal/promo"
	"github.com/fiestaliquor/storefront/internal/repository"
	"github.com/fiestaliquor/storefront/internal/service"
)

// testEnv wires real repositories over a temp dir plus the services the
// handlers need, mirroring the wiring in cmd/server.
type testEnv struct {
	users     *repository.FileUserRepository
	orders    *repository.FileOrderRepository
	products  *repository.FileProductRepository
	promos    *repository.FilePromoRepository
	validator *promo.Validator
	carts     *service.CartService
	orderSvc  *service.OrderService
	tokens    *auth.Tokens
	logger    *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		users:    repository.NewFileUserRepository(dir),
		orders:   repository.NewFileOrderRepository(dir),
		products: repository.NewFileProductRepository(dir),
		promos:   repository.NewFilePromoRepository(dir),
		tokens:   auth.NewTokens("test-secret", time.Hour),
		logger:   logger,
	}
	env.validator = promo.NewValidator(env.promos)
	env.carts = service.NewCartService(env.users, nil, logger)
	env.orderSvc = service.NewOrderService(env.orders, env.users, env.products, env.validator, notify.NopNotifier{}, logger)

	if err := env.products.Seed(context.Background(), []models.Product{
		{ID: 1, Name: "Old Fashioned Bourbon", Price: 42.00, InStock: true, Sizes: []models.ProductSize{
			{Size: "750ml", Price: 42.00, InStock: true},
		}},
		{ID: 2, Name: "House Red Blend", Price: 15.50, InStock: true},
	}); err != nil {
		t.Fatalf("seeding products: %v", err)
	}

	return env
}

// addUser creates an account with the given password and returns it together
// with a valid bearer token.
func (env *testEnv) addUser(t *testing.T, email, password, role string) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       "active",
	}
	if err := env.users.Create(context.Background(), user); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	token, err := env.tokens.Issue(user)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return user, token
}

// router builds a chi router with the same middleware layout as cmd/server,
// letting tests exercise URL params and auth exactly as in production.
// public routes get OptionalBearerAuth; admin routes (may be nil) sit behind
// BearerAuth plus the admin check.
func (env *testEnv) router(public, admin func(r chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalBearerAuth(env.tokens))
			public(r)
		})
		if admin != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.BearerAuth(env.tokens))
				r.Use(middleware.RequireAdmin)
				admin(r)
			})
		}
	})
	return r
}

func testCustomer() models.Customer {
	return models.Customer{Name: "Alice", Email: "alice@example.com", Phone: "555-0100"}
}

func testItems() []models.CartItem {
	return []models.CartItem{{ProductID: 1, Quantity: 1, Size: "750ml"}}
}

func doJSON(t *testing.T, h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}
