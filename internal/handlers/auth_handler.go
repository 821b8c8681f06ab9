package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fiestaliquor/storefront/internal/auth"
	"github.com/fiestaliquor/storefront/internal/cart"
	"github.com/fiestaliquor/storefront/internal/models"
	"github.com/fiestaliquor/storefront/internal/repository"
	"github.com/fiestaliquor/storefront/internal/service"
)

// AuthHandler serves registration and login. Both accept the client's local
// cart so it can be captured (register) or merged with the server copy
// (login) in the same round trip.
type AuthHandler struct {
	users  repository.UserRepository
	carts  *service.CartService
	tokens *auth.Tokens
	logger *slog.Logger
}

func NewAuthHandler(users repository.UserRepository, carts *service.CartService, tokens *auth.Tokens, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, carts: carts, tokens: tokens, logger: logger}
}

type registerRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Phone    string         `json:"phone"`
	Password string         `json:"password"`
	Cart     []cart.RawItem `json:"cart"`
}

type loginRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Cart     []cart.RawItem `json:"cart"`
}

type authResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		WriteError(w, http.StatusBadRequest, "Name, email and a password of at least 6 characters are required", h.logger)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
		Status:       "active",
		Cart:         cart.Sanitize(req.Cart),
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			WriteError(w, http.StatusConflict, "An account with this email already exists", h.logger)
			return
		}
		h.logger.Error("failed to create user", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	h.respondWithToken(w, user, http.StatusCreated)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			WriteError(w, http.StatusUnauthorized, "Invalid email or password", h.logger)
			return
		}
		h.logger.Error("failed to look up user", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		WriteError(w, http.StatusUnauthorized, "Invalid email or password", h.logger)
		return
	}

	// Fold the pre-login cart into the stored one so nothing added while
	// browsing logged-out is lost.
	merged, err := h.carts.MergeOnAuth(r.Context(), user.ID, cart.Sanitize(req.Cart))
	if err != nil {
		h.logger.Warn("cart merge on login failed", "user_id", user.ID, "error", err)
	} else {
		user.Cart = merged
	}

	h.respondWithToken(w, user, http.StatusOK)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, user *models.User, status int) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("failed to issue token", "user_id", user.ID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}
	WriteJSON(w, status, authResponse{Token: token, User: user.Public()}, h.logger)
}
