package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fiestaliquor/storefront/internal/auth"
	"github.com/fiestaliquor/storefront/internal/models"
)

func issueToken(t *testing.T, tokens *auth.Tokens, role string) string {
	t.Helper()
	token, err := tokens.Issue(&models.User{ID: 1, Email: "amber@example.com", Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestBearerAuth(t *testing.T) {
	tokens := auth.NewTokens("test-secret", time.Hour)
	otherSecret := auth.NewTokens("other-secret", time.Hour)
	expired := auth.NewTokens("test-secret", -time.Hour)

	// test handler asserts claims landed in the context
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok || claims.Email != "amber@example.com" {
			t.Errorf("claims missing from context: %+v", claims)
		}
		w.WriteHeader(http.StatusOK)
	})

	authHandler := BearerAuth(tokens)(testHandler)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{
			name:           "valid token",
			header:         "Bearer " + issueToken(t, tokens, models.RoleCustomer),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing header",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "not a bearer header",
			header:         "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "token signed with wrong secret",
			header:         "Bearer " + issueToken(t, otherSecret, models.RoleCustomer),
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "expired token",
			header:         "Bearer " + issueToken(t, expired, models.RoleCustomer),
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			authHandler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tokens := auth.NewTokens("test-secret", time.Hour)

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := BearerAuth(tokens)(RequireAdmin(okHandler))

	t.Run("admin allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/promo-codes", nil)
		req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, models.RoleAdmin))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
		}
	})

	t.Run("customer rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/promo-codes", nil)
		req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, models.RoleCustomer))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusForbidden)
		}
	})
}
