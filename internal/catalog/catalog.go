// Package catalog holds the fixed table of events offered at the fest.
// Validation, pricing and dashboard code all read from this table by id.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Mode is how a participant enters an event.
type Mode string

const (
	ModeIndividual Mode = "individual"
	ModeTeam       Mode = "team"
)

// ErrUnknownMode is returned when decoding a participation mode that is neither individual nor team.
var ErrUnknownMode = errors.New("unknown participation mode")

// UnmarshalJSON rejects anything but the two known modes.
func (m *Mode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("participation mode must be a string: %w", err)
	}
	switch Mode(s) {
	case ModeIndividual, ModeTeam:
		*m = Mode(s)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Event is one entry of the catalog. A zero price means the mode is not offered.
type Event struct {
	ID              int    `json:"id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	IndividualPrice int    `json:"individualPrice"`
	TeamPrice       int    `json:"teamPrice"`
	AllowedModes    []Mode `json:"allowedModes"`
	MinTeamSize     int    `json:"minTeamSize,omitempty"`
	MaxTeamSize     int    `json:"maxTeamSize,omitempty"`
}

// Allows reports whether mode is one of the event's allowed modes.
func (e Event) Allows(mode Mode) bool {
	for _, m := range e.AllowedModes {
		if m == mode {
			return true
		}
	}
	return false
}

// PriceFor returns the charge for entering the event in mode.
func (e Event) PriceFor(mode Mode) int {
	if mode == ModeTeam {
		return e.TeamPrice
	}
	return e.IndividualPrice
}

// Catalog is an immutable, id-indexed event table. Safe for concurrent reads.
type Catalog struct {
	byID   map[int]Event
	sorted []Event
}

// New builds a catalog and checks every event's invariants.
func New(events []Event) (*Catalog, error) {
	c := &Catalog{byID: make(map[int]Event, len(events))}
	for _, e := range events {
		if err := check(e); err != nil {
			return nil, err
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("event %d: duplicate id", e.ID)
		}
		e.AllowedModes = append([]Mode(nil), e.AllowedModes...)
		c.byID[e.ID] = e
		c.sorted = append(c.sorted, e)
	}
	sort.Slice(c.sorted, func(i, j int) bool { return c.sorted[i].ID < c.sorted[j].ID })
	return c, nil
}

func check(e Event) error {
	if e.ID <= 0 {
		return fmt.Errorf("event %q: id must be positive", e.Name)
	}
	if len(e.AllowedModes) == 0 {
		return fmt.Errorf("event %d: no allowed modes", e.ID)
	}
	if e.IndividualPrice < 0 || e.TeamPrice < 0 {
		return fmt.Errorf("event %d: negative price", e.ID)
	}
	if e.Allows(ModeIndividual) && e.IndividualPrice == 0 {
		return fmt.Errorf("event %d: individual mode allowed without a price", e.ID)
	}
	if e.Allows(ModeTeam) {
		if e.TeamPrice == 0 {
			return fmt.Errorf("event %d: team mode allowed without a price", e.ID)
		}
		if e.MinTeamSize < 1 || e.MinTeamSize > e.MaxTeamSize {
			return fmt.Errorf("event %d: invalid team bounds [%d, %d]", e.ID, e.MinTeamSize, e.MaxTeamSize)
		}
	} else if e.MinTeamSize != 0 || e.MaxTeamSize != 0 {
		return fmt.Errorf("event %d: team bounds set on an individual-only event", e.ID)
	}
	return nil
}

// List returns all events ordered by id. The slice is a copy.
func (c *Catalog) List() []Event {
	out := make([]Event, len(c.sorted))
	copy(out, c.sorted)
	return out
}

// Get returns the event with id.
func (c *Catalog) Get(id int) (Event, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Default returns the catalog for the current edition of the fest.
func Default() *Catalog {
	c, err := New(events)
	if err != nil {
		panic("catalog: " + err.Error())
	}
	return c
}
