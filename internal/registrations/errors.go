package registrations

import (
	"errors"
	"fmt"

	"github.com/eventhub-fest/backend/internal/catalog"
)

var (
	// ErrNotFound is returned when no registration matches the id or token.
	ErrNotFound = errors.New("registration not found")
	// ErrConflict covers a duplicate token at insert time and deletes blocked by dependent rows.
	ErrConflict = errors.New("registration conflict")
	// ErrTokenExhausted is returned when even the fallback token is already taken.
	ErrTokenExhausted = errors.New("registration token space exhausted")
	// ErrNotVerified is returned when an approval email is requested for a pending registration.
	ErrNotVerified = errors.New("registration payment not verified")
)

// ValidationKind classifies a client-fixable problem with a submission.
type ValidationKind string

const (
	KindMissingField            ValidationKind = "missing_field"
	KindInvalidField            ValidationKind = "invalid_field"
	KindUnknownEvent            ValidationKind = "unknown_event"
	KindDuplicateEvent          ValidationKind = "duplicate_event"
	KindModeNotAllowed          ValidationKind = "mode_not_allowed"
	KindTeamSizeOutOfBounds     ValidationKind = "team_size_out_of_bounds"
	KindTeamMemberCountMismatch ValidationKind = "team_member_count_mismatch"
	KindEmptyTeamMemberName     ValidationKind = "empty_team_member_name"
)

// ValidationError describes the first rule a submission broke.
type ValidationError struct {
	Kind      ValidationKind
	Field     string
	EventID   int
	EventName string
	Mode      catalog.Mode
	Min, Max  int
	Want, Got int
	Index     int
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindMissingField:
		return fmt.Sprintf("%s is required", e.Field)
	case KindInvalidField:
		return fmt.Sprintf("%s is invalid", e.Field)
	case KindUnknownEvent:
		return fmt.Sprintf("unknown event id %d", e.EventID)
	case KindDuplicateEvent:
		return fmt.Sprintf("event %d (%s) selected more than once", e.EventID, e.EventName)
	case KindModeNotAllowed:
		return fmt.Sprintf("event %d (%s) does not allow %q participation", e.EventID, e.EventName, e.Mode)
	case KindTeamSizeOutOfBounds:
		return fmt.Sprintf("team size for %s must be between %d and %d, got %d", e.EventName, e.Min, e.Max, e.Got)
	case KindTeamMemberCountMismatch:
		return fmt.Sprintf("%s: expected %d team member names, got %d", e.EventName, e.Want, e.Got)
	case KindEmptyTeamMemberName:
		return fmt.Sprintf("%s: team member %d has an empty name", e.EventName, e.Index+1)
	}
	return "invalid registration"
}
