package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nightpass/curfew/internal/delivery/http/middleware"
	"github.com/nightpass/curfew/internal/domain"
	"github.com/nightpass/curfew/internal/pkg/logger"
	"github.com/nightpass/curfew/internal/usecase/auth"
)

// AuthService defines the authentication operations the handler needs
type AuthService interface {
	Register(ctx context.Context, req *auth.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error)
	RefreshToken(ctx context.Context, req *auth.RefreshTokenRequest) (*auth.LoginResponse, error)
	Logout(ctx context.Context, req *auth.LogoutRequest) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context, actor domain.Actor, limit, offset int) ([]*domain.User, error)
	UpdateUserRole(ctx context.Context, actor domain.Actor, userID uuid.UUID, role domain.UserRole) (*domain.User, error)
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService AuthService
	logger      logger.Logger
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(authService AuthService, logger logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register creates a new account
// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Self-registration never grants the admin capability
	req.Role = domain.RoleUser

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		switch err {
		case domain.ErrUserAlreadyExists:
			respondError(w, http.StatusConflict, "User already exists")
		case domain.ErrInvalidEmail, domain.ErrInvalidUserData:
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to register user", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "Failed to register user")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    user,
	})
}

// Login authenticates a user
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		switch err {
		case domain.ErrInvalidCredentials:
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
		case domain.ErrUserInactive:
			respondError(w, http.StatusForbidden, "User account is inactive")
		default:
			h.logger.Error("Failed to login user", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "Failed to login")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    response,
	})
}

// RefreshToken exchanges a refresh token for a new pair
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req auth.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.authService.RefreshToken(r.Context(), &req)
	if err != nil {
		switch err {
		case domain.ErrInvalidToken, domain.ErrTokenExpired:
			respondError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		case domain.ErrUserInactive:
			respondError(w, http.StatusForbidden, "User account is inactive")
		default:
			h.logger.Error("Failed to refresh token", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "Failed to refresh token")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    response,
	})
}

// Logout revokes the presented refresh token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req auth.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.authService.Logout(r.Context(), &req); err != nil {
		h.logger.Error("Failed to logout", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to logout")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out",
	})
}

// GetUsers lists accounts (admin only)
// GET /api/v1/users?limit=&offset=
func (h *AuthHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	users, err := h.authService.ListUsers(r.Context(), claims.Actor(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		if err == domain.ErrUnauthorized {
			respondError(w, http.StatusForbidden, "Admin capability required")
			return
		}
		h.logger.Error("Failed to list users", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    users,
	})
}

// UpdateUserRole changes an account's role (admin only)
// PUT /api/v1/users/{id}/role
func (h *AuthHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req struct {
		Role domain.UserRole `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.UpdateUserRole(r.Context(), claims.Actor(), userID, req.Role)
	if err != nil {
		switch err {
		case domain.ErrUnauthorized:
			respondError(w, http.StatusForbidden, "Admin capability required")
		case domain.ErrInvalidRole:
			respondError(w, http.StatusBadRequest, "Invalid role")
		case domain.ErrUserNotFound:
			respondError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error("Failed to update user role", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "Failed to update user role")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    user,
	})
}

// GetMe returns the current account
// GET /api/v1/auth/me
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if err == domain.ErrUserNotFound {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("Failed to get user", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    user,
	})
}
