package registrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventhub-fest/backend/internal/catalog"
	"github.com/eventhub-fest/backend/internal/models"
)

// createAttempts bounds how often a submission restarts from token generation after an insert conflict.
const createAttempts = 3

// Store is the persistence boundary for registrations. *Repository implements it.
type Store interface {
	TokenLookup
	Create(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, id int64) (*models.Registration, error)
	List(ctx context.Context, p ListParams) ([]models.Registration, int, error)
	MarkVerified(ctx context.Context, id int64) (*models.Registration, bool, error)
	Delete(ctx context.Context, id int64) (*models.Registration, error)
}

// Notifier hands an approval email off for delivery.
type Notifier interface {
	NotifyApproved(ctx context.Context, n models.ApprovalNotice) error
}

// Service runs the registration intake and admin workflows.
type Service struct {
	store         Store
	catalog       *catalog.Catalog
	tokens        *TokenGenerator
	notifier      Notifier
	notifyTimeout time.Duration
	logger        *zap.Logger
}

// NewService wires the registration workflows.
func NewService(store Store, cat *catalog.Catalog, tokens *TokenGenerator, notifier Notifier, notifyTimeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifyTimeout <= 0 {
		notifyTimeout = 10 * time.Second
	}
	return &Service{store: store, catalog: cat, tokens: tokens, notifier: notifier, notifyTimeout: notifyTimeout, logger: logger}
}

// Submit validates, prices, issues a token and persists a registration.
// An insert conflict on the token restarts from token generation, never reusing the rejected token.
func (s *Service) Submit(ctx context.Context, sub Submission) (*models.Registration, error) {
	selections, err := Validate(s.catalog, sub)
	if err != nil {
		return nil, err
	}
	sub = sub.trimmed()

	total := ComputeTotal(selections)
	if PriceMismatch(sub.TotalAmount, total) {
		s.logger.Warn("client total differs from computed total",
			zap.String("email", sub.Email), zap.Int("client_total", sub.TotalAmount), zap.Int("computed_total", total))
	}

	reg := &models.Registration{
		Name:              sub.Name,
		Email:             sub.Email,
		Mobile:            sub.Mobile,
		CollegeID:         sub.CollegeID,
		GraduationType:    sub.GraduationType,
		SelectedEvents:    selections,
		TeamDetails:       TeamDetailsFor(selections),
		TotalAmount:       total,
		PaymentReceiptURL: sub.PaymentReceiptURL,
	}

	for attempt := 1; ; attempt++ {
		token, err := s.tokens.Generate(ctx, len(selections))
		if err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		reg.RegistrationToken = token
		err = s.store.Create(ctx, reg)
		if err == nil {
			s.logger.Info("registration created", zap.Int64("id", reg.ID), zap.String("token", token), zap.Int("total", total))
			return reg, nil
		}
		if errors.Is(err, ErrConflict) && attempt < createAttempts {
			s.logger.Warn("registration token taken at insert, regenerating", zap.String("token", token), zap.Int("attempt", attempt))
			continue
		}
		return nil, fmt.Errorf("create registration: %w", err)
	}
}

// Get returns a registration by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Registration, error) {
	return s.store.FindByID(ctx, id)
}

// GetByToken returns a registration by its token.
func (s *Service) GetByToken(ctx context.Context, token string) (*models.Registration, error) {
	return s.store.FindByToken(ctx, token)
}

// ListResult is one page of registrations.
type ListResult struct {
	Registrations []models.Registration
	Total         int
	Params        ListParams
}

// List returns a filtered, sorted page for the dashboard.
func (s *Service) List(ctx context.Context, p ListParams) (*ListResult, error) {
	p, err := p.Normalize()
	if err != nil {
		return nil, err
	}
	list, total, err := s.store.List(ctx, p)
	if err != nil {
		return nil, err
	}
	return &ListResult{Registrations: list, Total: total, Params: p}, nil
}

// ApprovalResult reports the verified registration and whether the email was handed off.
type ApprovalResult struct {
	Registration    *models.Registration `json:"registration"`
	AlreadyVerified bool                 `json:"alreadyVerified"`
	EmailDelivered  bool                 `json:"emailDelivered"`
	EmailError      string               `json:"emailError,omitempty"`
}

// Approve marks the payment verified and then notifies the participant.
// Approving a verified registration succeeds without sending another email.
// A notification failure never undoes the approval; it is reported in the result.
func (s *Service) Approve(ctx context.Context, id int64) (*ApprovalResult, error) {
	reg, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.PaymentVerified {
		return &ApprovalResult{Registration: reg, AlreadyVerified: true}, nil
	}

	reg, changed, err := s.store.MarkVerified(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mark registration %d verified: %w", id, err)
	}
	if !changed {
		return &ApprovalResult{Registration: reg, AlreadyVerified: true}, nil
	}
	s.logger.Info("registration approved", zap.Int64("id", id), zap.String("token", reg.RegistrationToken))

	res := &ApprovalResult{Registration: reg}
	if err := s.notify(ctx, reg); err != nil {
		res.EmailError = err.Error()
		return res, nil
	}
	res.EmailDelivered = true
	return res, nil
}

// ResendApproval re-dispatches the approval email of a verified registration.
func (s *Service) ResendApproval(ctx context.Context, id int64) error {
	reg, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !reg.PaymentVerified {
		return ErrNotVerified
	}
	return s.notify(ctx, reg)
}

func (s *Service) notify(ctx context.Context, reg *models.Registration) error {
	if s.notifier == nil {
		return errors.New("notifications disabled")
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.NotifyApproved(nctx, models.NoticeFor(reg)); err != nil {
		s.logger.Warn("approval email not delivered", zap.Int64("id", reg.ID), zap.String("email", reg.Email), zap.Error(err))
		return err
	}
	return nil
}

// DeletedSummary identifies a removed registration.
type DeletedSummary struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	RegistrationToken string `json:"registrationToken"`
}

// Delete hard-deletes a registration.
func (s *Service) Delete(ctx context.Context, id int64) (*DeletedSummary, error) {
	reg, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("registration deleted", zap.Int64("id", id), zap.String("token", reg.RegistrationToken))
	return &DeletedSummary{ID: reg.ID, Name: reg.Name, Email: reg.Email, RegistrationToken: reg.RegistrationToken}, nil
}
