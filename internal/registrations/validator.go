package registrations

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eventhub-fest/backend/internal/catalog"
	"github.com/eventhub-fest/backend/internal/models"
)

// Submission is the public registration form body.
// Field order matters: required-field checks report the first failing field in this order.
type Submission struct {
	Name              string                `json:"name" validate:"required"`
	Email             string                `json:"email" validate:"required,email"`
	Mobile            string                `json:"mobile" validate:"required"`
	SelectedEvents    []EventSelection      `json:"selectedEvents" validate:"required,min=1"`
	TotalAmount       int                   `json:"totalAmount" validate:"required"`
	PaymentReceiptURL string                `json:"paymentReceiptUrl" validate:"required,url"`
	GraduationType    models.GraduationType `json:"graduationType" validate:"required,oneof=UG PG"`
	CollegeID         string                `json:"collegeId"`
}

// EventSelection is one requested event inside a Submission.
type EventSelection struct {
	ID                int          `json:"id"`
	ParticipationMode catalog.Mode `json:"participationMode"`
	TeamMembers       []string     `json:"teamMembers,omitempty"`
	TeamSize          *int         `json:"teamSize,omitempty"`
}

var fields = newFieldValidator()

func newFieldValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s Submission) trimmed() Submission {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Mobile = strings.TrimSpace(s.Mobile)
	s.CollegeID = strings.TrimSpace(s.CollegeID)
	s.PaymentReceiptURL = strings.TrimSpace(s.PaymentReceiptURL)
	s.GraduationType = models.GraduationType(strings.ToUpper(strings.TrimSpace(string(s.GraduationType))))
	return s
}

// Validate checks a submission against the catalog rules and returns the selections
// snapshotted with the catalog's code, name, description and price for the chosen mode.
// It stops at the first broken rule.
func Validate(cat *catalog.Catalog, sub Submission) ([]models.SelectedEvent, error) {
	sub = sub.trimmed()
	if err := checkFields(sub); err != nil {
		return nil, err
	}

	resolved := make([]catalog.Event, len(sub.SelectedEvents))
	seen := make(map[int]struct{}, len(sub.SelectedEvents))
	for i, sel := range sub.SelectedEvents {
		ev, ok := cat.Get(sel.ID)
		if !ok {
			return nil, &ValidationError{Kind: KindUnknownEvent, EventID: sel.ID}
		}
		if _, dup := seen[ev.ID]; dup {
			return nil, &ValidationError{Kind: KindDuplicateEvent, EventID: ev.ID, EventName: ev.Name}
		}
		seen[ev.ID] = struct{}{}
		resolved[i] = ev
	}

	for i, sel := range sub.SelectedEvents {
		ev := resolved[i]
		if !ev.Allows(sel.ParticipationMode) {
			return nil, &ValidationError{Kind: KindModeNotAllowed, EventID: ev.ID, EventName: ev.Name, Mode: sel.ParticipationMode}
		}
	}

	out := make([]models.SelectedEvent, len(sub.SelectedEvents))
	for i, sel := range sub.SelectedEvents {
		ev := resolved[i]
		snap := models.SelectedEvent{
			EventID:           ev.ID,
			Code:              ev.Code,
			Name:              ev.Name,
			Description:       ev.Description,
			ParticipationMode: sel.ParticipationMode,
			Price:             ev.PriceFor(sel.ParticipationMode),
		}
		if sel.ParticipationMode == catalog.ModeTeam {
			members, err := checkTeam(ev, sel)
			if err != nil {
				return nil, err
			}
			snap.TeamSize = len(members)
			snap.TeamMembers = members
		}
		out[i] = snap
	}
	return out, nil
}

func checkFields(sub Submission) error {
	err := fields.Struct(sub)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Kind: KindInvalidField, Field: "body"}
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required", "min":
		return &ValidationError{Kind: KindMissingField, Field: fe.Field()}
	default:
		return &ValidationError{Kind: KindInvalidField, Field: fe.Field()}
	}
}

// checkTeam applies the team-size rules and returns the trimmed member names.
// A missing teamSize is taken to be the number of names supplied.
func checkTeam(ev catalog.Event, sel EventSelection) ([]string, error) {
	size := len(sel.TeamMembers)
	if sel.TeamSize != nil {
		size = *sel.TeamSize
	}
	if size < ev.MinTeamSize || size > ev.MaxTeamSize {
		return nil, &ValidationError{Kind: KindTeamSizeOutOfBounds, EventID: ev.ID, EventName: ev.Name, Min: ev.MinTeamSize, Max: ev.MaxTeamSize, Got: size}
	}
	if len(sel.TeamMembers) != size {
		return nil, &ValidationError{Kind: KindTeamMemberCountMismatch, EventID: ev.ID, EventName: ev.Name, Want: size, Got: len(sel.TeamMembers)}
	}
	members := make([]string, size)
	for i, m := range sel.TeamMembers {
		members[i] = strings.TrimSpace(m)
		if members[i] == "" {
			return nil, &ValidationError{Kind: KindEmptyTeamMemberName, EventID: ev.ID, EventName: ev.Name, Index: i}
		}
	}
	return members, nil
}
