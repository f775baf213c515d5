package analytics

import (
	"context"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventhub-fest/backend/internal/catalog"
	"github.com/eventhub-fest/backend/internal/registrations"
	"github.com/eventhub-fest/backend/pkg/response"
)

// Source supplies aggregate figures. *registrations.Repository implements it.
type Source interface {
	Totals(ctx context.Context) (registrations.Totals, error)
	EventCounts(ctx context.Context) (map[int]int, error)
}

// Handler handles GET /admin/stats.
type Handler struct {
	source  Source
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewHandler creates an analytics handler.
func NewHandler(source Source, cat *catalog.Catalog, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{source: source, catalog: cat, logger: logger}
}

// EventCount is the number of registrations that selected one event.
type EventCount struct {
	EventID       int    `json:"eventId"`
	Name          string `json:"name"`
	Registrations int    `json:"registrations"`
}

// SummaryResponse is the JSON shape for the dashboard header cards.
type SummaryResponse struct {
	registrations.Totals
	Events []EventCount `json:"events"`
}

// Summary handles GET /admin/stats. Every catalog event is listed, including ones nobody picked.
func (h *Handler) Summary(c *gin.Context) {
	ctx := c.Request.Context()

	totals, err := h.source.Totals(ctx)
	if err != nil {
		h.logger.Error("stats totals", zap.Error(err))
		response.Internal(c, "failed to load registration totals")
		return
	}
	counts, err := h.source.EventCounts(ctx)
	if err != nil {
		h.logger.Error("stats event counts", zap.Error(err))
		response.Internal(c, "failed to load event counts")
		return
	}

	events := make([]EventCount, 0, len(counts))
	for _, e := range h.catalog.List() {
		events = append(events, EventCount{EventID: e.ID, Name: e.Name, Registrations: counts[e.ID]})
		delete(counts, e.ID)
	}
	// Rows whose event left the catalog after they were stored.
	var orphans []int
	for id := range counts {
		orphans = append(orphans, id)
	}
	sort.Ints(orphans)
	for _, id := range orphans {
		events = append(events, EventCount{EventID: id, Name: "Unknown event", Registrations: counts[id]})
	}

	response.OK(c, SummaryResponse{Totals: totals, Events: events})
}
