package models

import "time"

// User roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is a registered customer or admin. The password hash is persisted in
// the user store but never serialized into API responses; handlers return the
// PublicUser view instead.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	PasswordHash string     `json:"passwordHash,omitempty"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	JoinDate     time.Time  `json:"joinDate"`
	Orders       []int64    `json:"orders"`
	Cart         []CartItem `json:"cart"`
	Version      int64      `json:"version"`
}

// PublicUser is the API-safe view of a user.
type PublicUser struct {
	ID    int64      `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Phone string     `json:"phone"`
	Role  string     `json:"role"`
	Cart  []CartItem `json:"cart"`
}

// Public returns the API-safe view of the user.
func (u *User) Public() PublicUser {
	cart := u.Cart
	if cart == nil {
		cart = []CartItem{}
	}
	return PublicUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Role:  u.Role,
		Cart:  cart,
	}
}
