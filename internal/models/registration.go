package models

import (
	"time"

	"github.com/eventhub-fest/backend/internal/catalog"
)

// GraduationType is the participant's programme level.
type GraduationType string

const (
	GraduationUG GraduationType = "UG"
	GraduationPG GraduationType = "PG"
)

// SelectedEvent is one event entry of a registration, snapshotted from the catalog at submission time.
type SelectedEvent struct {
	EventID           int          `json:"eventId"`
	Code              string       `json:"code"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	ParticipationMode catalog.Mode `json:"participationMode"`
	Price             int          `json:"price"`
	TeamSize          int          `json:"teamSize,omitempty"`
	TeamMembers       []string     `json:"teamMembers,omitempty"`
}

// TeamDetail summarises a team-mode selection.
type TeamDetail struct {
	EventID     int      `json:"eventId"`
	EventName   string   `json:"eventName"`
	TeamSize    int      `json:"teamSize"`
	TeamMembers []string `json:"teamMembers"`
}

// Registration is a participant's submission for one or more events.
type Registration struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	Mobile            string          `json:"mobile"`
	CollegeID         string          `json:"collegeId,omitempty"`
	GraduationType    GraduationType  `json:"graduationType"`
	SelectedEvents    []SelectedEvent `json:"selectedEvents"`
	TeamDetails       []TeamDetail    `json:"teamDetails,omitempty"`
	TotalAmount       int             `json:"totalAmount"`
	RegistrationToken string          `json:"registrationToken"`
	PaymentReceiptURL string          `json:"paymentReceiptUrl"`
	PaymentVerified   bool            `json:"paymentVerified"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// EventNames returns the names of the selected events in submission order.
func (r *Registration) EventNames() []string {
	names := make([]string, 0, len(r.SelectedEvents))
	for _, e := range r.SelectedEvents {
		names = append(names, e.Name)
	}
	return names
}

// ApprovalNotice is the payload handed to the notification dispatcher once a payment is verified.
type ApprovalNotice struct {
	RegistrationID    int64
	Email             string
	Name              string
	EventNames        []string
	TotalAmount       int
	RegistrationToken string
}

// NoticeFor composes the approval payload for reg.
func NoticeFor(reg *Registration) ApprovalNotice {
	return ApprovalNotice{
		RegistrationID:    reg.ID,
		Email:             reg.Email,
		Name:              reg.Name,
		EventNames:        reg.EventNames(),
		TotalAmount:       reg.TotalAmount,
		RegistrationToken: reg.RegistrationToken,
	}
}
