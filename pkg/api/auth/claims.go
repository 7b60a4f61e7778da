// Package auth provides JWT token issuance and validation for the admin API.
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
)

// Claims is the JWT payload carried by admin API bearer tokens.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the authenticated user's id.
	UserID string `json:"uid"`

	// Username is the authenticated user's username.
	Username string `json:"username"`

	// Role is the user's role at issuance time.
	Role string `json:"role"`
}

// IsAdmin reports whether the token was issued to an admin user.
func (c *Claims) IsAdmin() bool {
	return c.Role == string(models.RoleAdmin)
}
