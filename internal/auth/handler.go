package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventhub-fest/backend/internal/models"
	"github.com/eventhub-fest/backend/pkg/response"
	"github.com/eventhub-fest/backend/pkg/utils"
)

// UserStore is the persistence the handler needs. *Repository implements it.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.UserPublic, error)
	Create(ctx context.Context, email, passwordHash, fullName string, role models.Role) (*models.User, error)
}

// CreateUserRequest is the body for POST /admin/users.
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"fullName" binding:"required"`
	Role     string `json:"role"` // optional, defaults to volunteer
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	User      models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	users  UserStore
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users UserStore, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{users: users, jwt: jwt, logger: logger}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			h.logger.Error("login lookup", zap.Error(err))
		}
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		h.logger.Info("login rejected", zap.String("email", user.Email))
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, expires, err := h.jwt.Generate(user)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, ExpiresAt: expires, User: user.ToPublic()})
}

// CreateUser handles POST /admin/users (admin only). Adds a dashboard operator.
func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	role := models.RoleVolunteer
	switch req.Role {
	case "", string(models.RoleVolunteer):
	case string(models.RoleAdmin):
		role = models.RoleAdmin
	default:
		response.BadRequest(c, "invalid role")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.users.Create(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)), hash, strings.TrimSpace(req.FullName), role)
	if errors.Is(err, ErrEmailTaken) {
		response.Conflict(c, "email already registered")
		return
	}
	if err != nil {
		h.logger.Error("create user", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}
	h.logger.Info("dashboard user created", zap.String("email", user.Email), zap.String("role", string(user.Role)))
	response.Created(c, user.ToPublic())
}

// ListUsers handles GET /admin/users (admin only).
func (h *Handler) ListUsers(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

// EnsureAdmin creates the bootstrap admin when no user holds email yet.
// It never changes an existing account.
func EnsureAdmin(ctx context.Context, users UserStore, email, password, name string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		logger.Info("admin bootstrap skipped: ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}
	_, err := users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = users.Create(ctx, email, hash, name, models.RoleAdmin)
	if errors.Is(err, ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("bootstrap admin created", zap.String("email", email))
	return nil
}
