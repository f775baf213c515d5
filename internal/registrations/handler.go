package registrations

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventhub-fest/backend/pkg/response"
)

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register handles POST /registrations.
func (h *Handler) Register(c *gin.Context) {
	var sub Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	reg, err := h.svc.Submit(c.Request.Context(), sub)
	if err != nil {
		h.fail(c, err, "submit registration", zap.String("email", sub.Email))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":           true,
		"message":           "Registration successful",
		"registrationToken": reg.RegistrationToken,
		"data": gin.H{
			"id":             reg.ID,
			"name":           reg.Name,
			"email":          reg.Email,
			"token":          reg.RegistrationToken,
			"eventsCount":    len(reg.SelectedEvents),
			"totalAmount":    reg.TotalAmount,
			"selectedEvents": reg.SelectedEvents,
			"teamEvents":     reg.TeamDetails,
		},
	})
}

// Status handles GET /registrations/:token/status. Lets a participant check whether payment was verified.
func (h *Handler) Status(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.BadRequest(c, "token required")
		return
	}
	reg, err := h.svc.GetByToken(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err, "registration status", zap.String("token", token))
		return
	}
	response.OK(c, gin.H{
		"registrationToken": reg.RegistrationToken,
		"name":              reg.Name,
		"eventNames":        reg.EventNames(),
		"totalAmount":       reg.TotalAmount,
		"paymentVerified":   reg.PaymentVerified,
	})
}

// List handles GET /admin/registrations.
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	res, err := h.svc.List(c.Request.Context(), ListParams{
		Page:      page,
		Limit:     limit,
		Search:    c.Query("search"),
		Status:    StatusFilter(c.Query("status")),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	})
	if err != nil {
		h.fail(c, err, "list registrations")
		return
	}
	response.Page(c, res.Registrations, response.NewPagination(res.Params.Page, res.Params.Limit, res.Total))
}

// Get handles GET /admin/registrations/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	reg, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "get registration", zap.Int64("id", id))
		return
	}
	response.OK(c, reg)
}

// Approve handles POST /admin/registrations/:id/approve. Any body is ignored; the stored record is authoritative.
func (h *Handler) Approve(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	res, err := h.svc.Approve(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "approve registration", zap.Int64("id", id))
		return
	}
	msg := "Registration approved and email sent successfully"
	switch {
	case res.AlreadyVerified:
		msg = "Registration was already approved"
	case !res.EmailDelivered:
		msg = "Registration approved but email failed to send"
	}
	response.OKMessage(c, msg, res)
}

// Delete handles DELETE /admin/registrations/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	summary, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			response.Conflict(c, "cannot delete registration due to related records")
			return
		}
		h.fail(c, err, "delete registration", zap.Int64("id", id))
		return
	}
	response.OKMessage(c, "Registration deleted successfully", summary)
}

// ParseID reads the :id path parameter, answering 400 when it is not a positive integer.
func ParseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid registration id")
		return 0, false
	}
	return id, true
}

// fail maps service errors onto the response envelope. Unknown errors are logged and hidden.
func (h *Handler) fail(c *gin.Context, err error, op string, fields ...zap.Field) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.BadRequest(c, verr.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "registration not found")
	case errors.Is(err, ErrConflict):
		response.Conflict(c, "registration token conflict, please retry")
	case errors.Is(err, ErrNotVerified):
		response.Conflict(c, "registration payment is not verified yet")
	default:
		h.logger.Error(op+" failed", append(fields, zap.Error(err))...)
		response.Internal(c, "failed to "+op)
	}
}
