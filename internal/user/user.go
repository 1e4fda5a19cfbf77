package user

import (
	"time"

	"github.com/wichananm65/jewel-shop-backend/internal/session"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"user_name"`
	Phone     string    `json:"phone_number"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) Active() bool {
	return u.Status != StatusInactive
}

// Session is the identity a signed-in user carries on every request.
func (u User) Session() session.Session {
	role := u.Role
	if role == "" {
		role = session.RoleUser
	}
	return session.Session{UserID: u.ID, Name: u.Name, Phone: u.Phone, Role: role}
}

// Update carries the fields an admin may edit. Nil leaves a field unchanged.
type Update struct {
	Name  *string `json:"user_name"`
	Role  *string `json:"role" validate:"omitempty,oneof=admin user"`
	Phone *string `json:"phone_number"`
}
