package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hardikhari96/sftp-cloud-connector/internal/logger"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/api/middleware"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/sftpd"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/store"
)

var validate = validator.New()

// UserHandler handles user management endpoints. All routes are admin only.
type UserHandler struct {
	store store.Store

	// homeRoot is the shared SFTP root. When non-empty, Create makes the
	// user's home directory under it so the first login never races mkdir.
	homeRoot string
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(s store.Store, homeRoot string) *UserHandler {
	return &UserHandler{store: s, homeRoot: homeRoot}
}

// CreateUserRequest is the request body for POST /api/v1/users.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=1,max=255"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
	HomeDir  string `json:"home_dir,omitempty" validate:"max=512"`
	Active   *bool  `json:"active,omitempty"`
}

// UpdateUserRequest is the request body for PUT /api/v1/users/{id}.
// Omitted fields keep their current value.
type UpdateUserRequest struct {
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
	HomeDir  *string `json:"home_dir,omitempty" validate:"omitempty,max=512"`
	Active   *bool   `json:"active,omitempty"`
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := validate.Struct(&req); err != nil {
		BadRequest(w, err.Error())
		return
	}

	passwordHash, err := models.HashPassword(req.Password)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}

	role := models.RoleUser
	if req.Role != "" {
		role = models.UserRole(req.Role)
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: passwordHash,
		Role:         string(role),
		Active:       true,
		HomeDir:      models.SanitizeHomeDir(req.HomeDir, req.Username),
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if _, err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			Conflict(w, "User already exists")
			return
		}
		InternalServerError(w, "Failed to create user")
		return
	}

	if h.homeRoot != "" {
		if _, err := sftpd.ResolveHome(h.homeRoot, user.HomeDir); err != nil {
			logger.WarnCtx(r.Context(), "failed to create home directory",
				"username", user.Username, "home", user.HomeDir, "error", err)
		}
	}

	WriteJSONCreated(w, userToResponse(user))
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		InternalServerError(w, "Failed to list users")
		return
	}

	response := make([]UserResponse, len(users))
	for i, u := range users {
		response[i] = userToResponse(u)
	}
	WriteJSONOK(w, response)
}

// Get handles GET /api/v1/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.fetchUser(w, r)
	if !ok {
		return
	}
	WriteJSONOK(w, userToResponse(user))
}

// Update handles PUT /api/v1/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.fetchUser(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := validate.Struct(&req); err != nil {
		BadRequest(w, err.Error())
		return
	}

	if req.Password != nil {
		hash, err := models.HashPassword(*req.Password)
		if err != nil {
			InternalServerError(w, "Failed to hash password")
			return
		}
		user.PasswordHash = hash
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.HomeDir != nil {
		user.HomeDir = models.SanitizeHomeDir(*req.HomeDir, user.Username)
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	// An admin cannot lock themselves out mid-session.
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims != nil && claims.UserID == user.ID {
		if !user.Active {
			BadRequest(w, "Cannot deactivate your own account")
			return
		}
		if !user.IsAdmin() {
			BadRequest(w, "Cannot remove your own admin role")
			return
		}
	}

	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to update user")
		return
	}

	WriteJSONOK(w, userToResponse(user))
}

// Delete handles DELETE /api/v1/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		BadRequest(w, "User id is required")
		return
	}

	claims := middleware.GetClaimsFromContext(r.Context())
	if claims != nil && claims.UserID == id {
		BadRequest(w, "Cannot delete your own account")
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to delete user")
		return
	}

	WriteNoContent(w)
}

func (h *UserHandler) fetchUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		BadRequest(w, "User id is required")
		return nil, false
	}

	user, err := h.store.FindUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			NotFound(w, "User not found")
			return nil, false
		}
		InternalServerError(w, "Failed to get user")
		return nil, false
	}
	return user, true
}
