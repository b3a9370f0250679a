package model

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// User is a staff profile in the users collection.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Department  string `json:"department"`
	Role        string `json:"role"`
	IsActive    bool   `json:"isActive"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// UnmarshalJSON decodes a profile. A profile without isActive is active.
func (u *User) UnmarshalJSON(data []byte) error {
	type profile User
	p := profile{IsActive: true}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = User(p)
	return nil
}

// Snapshot copies the requester fields stored on a new request.
func (u *User) Snapshot() Requester {
	name := u.DisplayName
	if name == "" {
		name = u.Email
	}
	return Requester{
		UserID:         u.ID,
		UserName:       name,
		UserDepartment: u.Department,
		UserEmail:      u.Email,
	}
}

// Credential is a locally managed password for a user profile.
type Credential struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    string `json:"createdAt"`
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin: 2,
		RoleUser:  1,
	}
	r, ok := levels[role]
	m, known := levels[minimum]
	return ok && known && r >= m
}

// MinPasswordLength is the shortest accepted local password.
const MinPasswordLength = 8

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
