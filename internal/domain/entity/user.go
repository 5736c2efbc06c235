package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleClient     = "client"
)

// User representa una cuenta del sistema. ClientID solo aplica a usuarios con rol client.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	ClientID     string
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsStaffRole indica si el rol pertenece al personal interno (admin o accountant).
func IsStaffRole(role string) bool {
	return role == RoleAdmin || role == RoleAccountant
}

// ValidRole indica si el rol es uno de los conocidos.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleAccountant || role == RoleClient
}
