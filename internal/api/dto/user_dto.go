package dto

import "time"

// CreateUserRequest payload. PasswordHash is forwarded opaque from the
// account collaborator.
type CreateUserRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Department   string `json:"department"`
	PasswordHash string `json:"password_hash"`
}

// UpdateUserRequest payload.
type UpdateUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	IsActive   *bool  `json:"is_active"`
}

// UserResponse represents a directory entry.
type UserResponse struct {
	EmployeeID string    `json:"employee_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
