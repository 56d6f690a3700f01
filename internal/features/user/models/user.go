package models

import "time"

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RolePremium Role = "premium"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RolePremium:
		return true
	}
	return false
}

// Document is one entry of a user's upload ledger. Entries are created on
// upload and never modified or deleted afterwards.
type Document struct {
	ID        int64     `json:"id" example:"1"`
	Name      string    `json:"name" example:"Identificación"`
	Reference string    `json:"reference" example:"uploads/documents/id-front.pdf"`
	CreatedAt time.Time `json:"created_at" example:"2024-03-15T14:30:00Z"`
}

// User is the full persisted user record.
type User struct {
	ID             string     `json:"id" example:"7d4aa0c2-6f1e-4c92-9a0e-2f8f6f3f9f11"`
	FirstName      string     `json:"first_name" example:"John"`
	LastName       string     `json:"last_name" example:"Doe"`
	Email          string     `json:"email" example:"john@example.com"`
	Age            int        `json:"age" example:"30"`
	PasswordHash   string     `json:"-"`
	Role           Role       `json:"role" example:"user" enums:"user,admin,premium"`
	Documents      []Document `json:"documents"`
	LastConnection time.Time  `json:"last_connection" example:"2024-03-15T14:30:00Z"`
	CreatedAt      time.Time  `json:"created_at" example:"2024-03-15T14:30:00Z"`
	UpdatedAt      time.Time  `json:"updated_at" example:"2024-03-15T14:30:00Z"`
}

// UserResponse is the public view of a user. It never carries the
// credential hash.
type UserResponse struct {
	ID             string     `json:"id" example:"7d4aa0c2-6f1e-4c92-9a0e-2f8f6f3f9f11"`
	FirstName      string     `json:"first_name" example:"John"`
	LastName       string     `json:"last_name" example:"Doe"`
	Email          string     `json:"email" example:"john@example.com"`
	Age            int        `json:"age" example:"30"`
	Role           Role       `json:"role" example:"user" enums:"user,admin,premium"`
	Documents      []Document `json:"documents"`
	LastConnection time.Time  `json:"last_connection" example:"2024-03-15T14:30:00Z"`
	CreatedAt      time.Time  `json:"created_at" example:"2024-03-15T14:30:00Z"`
}

// SessionIdentity is the projection of a user stored in the session at
// login time. It holds no back-reference to the user record: if the record
// changes, the identity is stale until the next login.
type SessionIdentity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

// CreateUserRequest carries the registration payload.
type CreateUserRequest struct {
	FirstName string `json:"first_name" binding:"required" example:"John"`
	LastName  string `json:"last_name" binding:"required" example:"Doe"`
	Email     string `json:"email" binding:"required" example:"john@example.com"`
	Age       int    `json:"age" example:"30"`
	Password  string `json:"password" binding:"required" example:"s3cret"`
}

// LoginRequest carries the credentials for session login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"john@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret"`
}

// ErrorResponse documents the error payload shape for swagger.
type ErrorResponse struct {
	Error string `json:"error" example:"User not found"`
}
