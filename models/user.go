package models

import "time"

// Role is the access level of a user
type Role string

const (
	RoleRider Role = "rider"
	RoleAdmin Role = "admin"
)

// User is reference data owned by the identity provider
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
