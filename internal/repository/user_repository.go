package repository

import (
	"context"
	"strings"
	"time"

	"github.com/fiestaliquor/storefront/internal/models"
)

// UserRepository defines the interface for user and server-side cart access.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateCart(ctx context.Context, userID int64, items []models.CartItem) (*models.User, error)
	AppendOrder(ctx context.Context, userID, orderID int64) error
	SetRole(ctx context.Context, email, role string) error
}

// FileUserRepository implements UserRepository over the users JSON file.
type FileUserRepository struct {
	file *jsonFile[models.User]
}

// NewFileUserRepository creates a user repository backed by <dir>/users.json.
func NewFileUserRepository(dir string) *FileUserRepository {
	return &FileUserRepository{file: newJSONFile[models.User](dir, "users.json")}
}

// GetByID returns a user by id.
func (r *FileUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var found *models.User
	err := r.file.view(func(users []models.User) error {
		for i := range users {
			if users[i].ID == id {
				u := users[i]
				found = &u
				return nil
			}
		}
		return ErrUserNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// GetByEmail returns a user by email, case-insensitively.
func (r *FileUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var found *models.User
	err := r.file.view(func(users []models.User) error {
		for i := range users {
			if strings.EqualFold(users[i].Email, email) {
				u := users[i]
				found = &u
				return nil
			}
		}
		return ErrUserNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Create stores a new user, assigning the next id. Fails with ErrEmailTaken
// on a duplicate email.
func (r *FileUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.file.update(func(users []models.User) ([]models.User, error) {
		var maxID int64
		for i := range users {
			if strings.EqualFold(users[i].Email, user.Email) {
				return nil, ErrEmailTaken
			}
			if users[i].ID > maxID {
				maxID = users[i].ID
			}
		}
		user.ID = maxID + 1
		user.Version = 1
		if user.JoinDate.IsZero() {
			user.JoinDate = time.Now().UTC()
		}
		if user.Cart == nil {
			user.Cart = []models.CartItem{}
		}
		if user.Orders == nil {
			user.Orders = []int64{}
		}
		return append(users, *user), nil
	})
}

// Update persists a modified user. The stored version must match the one the
// caller read, otherwise ErrVersionConflict is returned.
func (r *FileUserRepository) Update(ctx context.Context, user *models.User) error {
	return r.file.update(func(users []models.User) ([]models.User, error) {
		for i := range users {
			if users[i].ID == user.ID {
				if users[i].Version != user.Version {
					return nil, ErrVersionConflict
				}
				user.Version++
				users[i] = *user
				return users, nil
			}
		}
		return nil, ErrUserNotFound
	})
}

// UpdateCart replaces the user's server-persisted cart and returns the
// updated user. Cart writes are last-writer-wins at the record level; they
// bump the version but do not require the caller to have read it first,
// because cart sync is fire-and-forget from the client.
func (r *FileUserRepository) UpdateCart(ctx context.Context, userID int64, items []models.CartItem) (*models.User, error) {
	var updated *models.User
	err := r.file.update(func(users []models.User) ([]models.User, error) {
		for i := range users {
			if users[i].ID == userID {
				if items == nil {
					items = []models.CartItem{}
				}
				users[i].Cart = items
				users[i].Version++
				u := users[i]
				updated = &u
				return users, nil
			}
		}
		return nil, ErrUserNotFound
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AppendOrder records an order id in the user's order history.
func (r *FileUserRepository) AppendOrder(ctx context.Context, userID, orderID int64) error {
	return r.file.update(func(users []models.User) ([]models.User, error) {
		for i := range users {
			if users[i].ID == userID {
				users[i].Orders = append(users[i].Orders, orderID)
				users[i].Version++
				return users, nil
			}
		}
		return nil, ErrUserNotFound
	})
}

// SetRole changes a user's role, keyed by email. Used by storectl.
func (r *FileUserRepository) SetRole(ctx context.Context, email, role string) error {
	return r.file.update(func(users []models.User) ([]models.User, error) {
		for i := range users {
			if strings.EqualFold(users[i].Email, email) {
				users[i].Role = role
				users[i].Version++
				return users, nil
			}
		}
		return nil, ErrUserNotFound
	})
}
