package models

import (
	"fmt"
	"strings"
	"time"
)

// UserRole represents the role of a user in the system.
type UserRole string

const (
	// RoleUser is a regular user with SFTP access only.
	RoleUser UserRole = "user"
	// RoleAdmin is an administrator with full permissions on the admin API.
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is a valid UserRole.
func (r UserRole) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account that may authenticate against the SFTP endpoint and,
// depending on role, the admin API.
//
// HomeDir is stored relative to the shared SFTP root and is sanitized before
// persistence: no empty segments, no "." or "..", no drive or volume prefix.
// Joining it to the shared root always yields a path inside the root.
type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null;size:255" json:"username"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         string     `gorm:"default:user;size:50" json:"role"`
	Active       bool       `gorm:"default:true" json:"active"`
	HomeDir      string     `gorm:"size:512" json:"home_dir"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// IsAdmin checks if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == string(RoleAdmin)
}

// Validate checks if the user record is well formed.
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if u.Role != "" && !UserRole(u.Role).IsValid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	return nil
}

// SanitizeHomeDir normalizes a user-supplied home directory into the relative
// form stored on the user record. Backslashes become slashes; empty, "." and
// ".." segments are dropped, which also strips any drive or volume prefix of
// the form "C:". If nothing survives, fallback (normally the username) is used.
func SanitizeHomeDir(homeDir, fallback string) string {
	value := strings.TrimSpace(homeDir)
	if value == "" {
		value = fallback
	}
	value = strings.ReplaceAll(value, "\\", "/")

	var parts []string
	for _, segment := range strings.Split(value, "/") {
		if segment == "" || segment == "." || segment == ".." {
			continue
		}
		if len(segment) == 2 && segment[1] == ':' {
			continue
		}
		parts = append(parts, segment)
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, "/")
}
