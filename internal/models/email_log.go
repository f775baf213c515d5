package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailType identifies the template an email was rendered from.
const (
	EmailTypeRegistrationApproved = "registration_approved"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records each notification handed off for a registration.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	RegistrationID int64      `json:"registrationId"`
	EmailType      string     `json:"emailType"`
	RecipientEmail string     `json:"recipientEmail"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	Attempts       int        `json:"attempts"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
