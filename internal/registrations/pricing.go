package registrations

import (
	"github.com/eventhub-fest/backend/internal/catalog"
	"github.com/eventhub-fest/backend/internal/models"
)

// priceTolerance is the largest client/server total difference that is not logged.
const priceTolerance = 1

// ComputeTotal sums the catalog price of each selection for its chosen mode.
// The result is the only total ever persisted.
func ComputeTotal(selections []models.SelectedEvent) int {
	total := 0
	for _, s := range selections {
		total += s.Price
	}
	return total
}

// PriceMismatch reports whether the client-supplied total is off by more than the tolerance.
func PriceMismatch(client, computed int) bool {
	d := client - computed
	if d < 0 {
		d = -d
	}
	return d > priceTolerance
}

// TeamDetailsFor extracts the team-mode selections. It returns nil when there are none.
func TeamDetailsFor(selections []models.SelectedEvent) []models.TeamDetail {
	var out []models.TeamDetail
	for _, s := range selections {
		if s.ParticipationMode != catalog.ModeTeam {
			continue
		}
		out = append(out, models.TeamDetail{
			EventID:     s.EventID,
			EventName:   s.Name,
			TeamSize:    s.TeamSize,
			TeamMembers: s.TeamMembers,
		})
	}
	return out
}
