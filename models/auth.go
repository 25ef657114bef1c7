package models

import "time"

// User roles known to the service. Registrations default to operator; the
// first admin is created out of band.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// User is the authenticated identity resolved from a credential.
type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	FullName *string `json:"full_name,omitempty"`
}

// Token is the login response. TokenType is always "bearer".
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
