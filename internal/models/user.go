package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleCamper  = "camper"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// User represents an account in the platform (campers, camp managers, admins)
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Phone     string    `json:"phone" db:"phone"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	Roles     []string  `json:"roles" db:"roles"`
	Status    string    `json:"status" db:"status"` // active, suspended
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
