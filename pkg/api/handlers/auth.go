package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/hardikhari96/sftp-cloud-connector/internal/logger"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/api/auth"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/api/middleware"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	store      store.Store
	jwtService *auth.JWTService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s store.Store, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{store: s, jwtService: jwtService}
}

// LoginRequest is the request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response body for POST /api/v1/auth/login.
type LoginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is a sanitized user representation for API responses.
type UserResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	HomeDir   string     `json:"home_dir"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func userToResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Active:    u.Active,
		HomeDir:   u.HomeDir,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// Login handles POST /api/v1/auth/login. Only admin users may obtain tokens;
// the SFTP endpoint is the only surface regular users authenticate against.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		BadRequest(w, "Username and password are required")
		return
	}

	user, err := h.store.FindUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			Unauthorized(w, "Invalid username or password")
			return
		}
		InternalServerError(w, "Authentication failed")
		return
	}

	if !models.VerifyPassword(req.Password, user.PasswordHash) {
		Unauthorized(w, "Invalid username or password")
		return
	}
	if !user.Active {
		Forbidden(w, "User account is disabled")
		return
	}

	token, expiresAt, err := h.jwtService.GenerateToken(user)
	if err != nil {
		InternalServerError(w, "Failed to generate token")
		return
	}

	if err := h.store.UpdateLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		logger.WarnCtx(r.Context(), "failed to update last login time", "username", user.Username, "error", err)
	}

	WriteJSONOK(w, LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		User:      userToResponse(user),
	})
}

// Me handles GET /api/v1/auth/me. Returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	user, err := h.store.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to get user")
		return
	}

	WriteJSONOK(w, userToResponse(user))
}
