package catalog

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eventhub-fest/backend/pkg/response"
)

// Handler serves the public event list.
type Handler struct {
	catalog *Catalog
}

// NewHandler creates a catalog handler.
func NewHandler(c *Catalog) *Handler {
	return &Handler{catalog: c}
}

// List handles GET /events.
func (h *Handler) List(c *gin.Context) {
	response.OK(c, h.catalog.List())
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, ok := h.catalog.Get(id)
	if !ok {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e)
}
