package emaillogs

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventhub-fest/backend/internal/models"
	"github.com/eventhub-fest/backend/internal/registrations"
	"github.com/eventhub-fest/backend/pkg/response"
)

// Lister reads the email log of a registration. *Repository implements it.
type Lister interface {
	ListByRegistration(ctx context.Context, registrationID int64) ([]*models.EmailLog, error)
}

// Resender re-dispatches the approval email. *registrations.Service implements it.
type Resender interface {
	ResendApproval(ctx context.Context, id int64) error
}

// Handler handles email log HTTP endpoints.
type Handler struct {
	logs     Lister
	resender Resender
	logger   *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(logs Lister, resender Resender, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logs: logs, resender: resender, logger: logger}
}

// ListByRegistration handles GET /admin/registrations/:id/emails.
func (h *Handler) ListByRegistration(c *gin.Context) {
	id, ok := registrations.ParseID(c)
	if !ok {
		return
	}
	logs, err := h.logs.ListByRegistration(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list email logs", zap.Int64("registration_id", id), zap.Error(err))
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}

// Resend handles POST /admin/registrations/:id/emails/resend.
func (h *Handler) Resend(c *gin.Context) {
	id, ok := registrations.ParseID(c)
	if !ok {
		return
	}
	err := h.resender.ResendApproval(c.Request.Context(), id)
	switch {
	case err == nil:
		response.OKMessage(c, "approval email dispatched", gin.H{"registrationId": id})
	case errors.Is(err, registrations.ErrNotFound):
		response.NotFound(c, "registration not found")
	case errors.Is(err, registrations.ErrNotVerified):
		response.Conflict(c, "registration payment is not verified yet")
	default:
		h.logger.Warn("resend approval email", zap.Int64("registration_id", id), zap.Error(err))
		response.ServiceUnavailable(c, "failed to dispatch approval email: "+err.Error())
	}
}
