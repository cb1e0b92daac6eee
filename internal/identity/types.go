package identity

import (
	"fmt"
	"strings"
	"time"
)

// Role is one of the three fixed actor roles.
type Role string

const (
	// RoleOffice files requests.
	RoleOffice Role = "office"
	// RoleStudent is assigned to requests and, under one policy variant,
	// resolves them.
	RoleStudent Role = "student"
	// RoleSupervisor manages accounts and assigns requests.
	RoleSupervisor Role = "supervisor"
)

// ParseRole validates a raw role label.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleOffice:
		return RoleOffice, nil
	case RoleStudent:
		return RoleStudent, nil
	case RoleSupervisor:
		return RoleSupervisor, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
}

// User is an account in the directory. PasswordHash never leaves the package
// boundary in API responses.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Office       string    `json:"office,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Update carries the allowed profile field changes. Nil fields are left
// untouched.
type Update struct {
	Name   *string
	Email  *string
	Role   *Role
	Office *string
}
