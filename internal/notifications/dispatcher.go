// Package notifications turns approval notices into email, either queued for the worker or sent inline.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventhub-fest/backend/config"
	"github.com/eventhub-fest/backend/internal/models"
	"github.com/eventhub-fest/backend/pkg/mailer"
	"github.com/eventhub-fest/backend/pkg/queue"
)

// LogStore records each email handed off for a registration.
type LogStore interface {
	Create(ctx context.Context, l *models.EmailLog) error
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// JobQueue accepts email jobs for the worker.
type JobQueue interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// Dispatcher delivers approval emails and keeps the email log current.
type Dispatcher struct {
	logs   LogStore
	jobs   JobQueue
	sender mailer.Sender
	mode   string
	fest   string
	now    func() time.Time
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher for the given delivery mode.
// Queue mode needs jobs; direct mode needs sender.
func NewDispatcher(logs LogStore, jobs JobQueue, sender mailer.Sender, mode, fest string, logger *zap.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if logs == nil {
		return nil, errors.New("email log store required")
	}
	switch mode {
	case config.DeliveryQueue:
		if jobs == nil {
			return nil, errors.New("queue delivery needs a job queue")
		}
	case config.DeliveryDirect:
		if sender == nil {
			return nil, errors.New("direct delivery needs an smtp sender")
		}
	default:
		return nil, fmt.Errorf("unknown delivery mode %q", mode)
	}
	return &Dispatcher{logs: logs, jobs: jobs, sender: sender, mode: mode, fest: fest, now: time.Now, logger: logger}, nil
}

// NotifyApproved renders the approval email for n and hands it off.
// A nil error means the message was queued or accepted by the relay.
func (d *Dispatcher) NotifyApproved(ctx context.Context, n models.ApprovalNotice) error {
	msg, err := ComposeApproval(d.fest, n, d.now())
	if err != nil {
		return fmt.Errorf("render approval email: %w", err)
	}

	entry := &models.EmailLog{
		RegistrationID: n.RegistrationID,
		EmailType:      models.EmailTypeRegistrationApproved,
		RecipientEmail: n.Email,
		Subject:        msg.Subject,
		Status:         models.EmailLogStatusPending,
	}
	if err := d.logs.Create(ctx, entry); err != nil {
		return fmt.Errorf("record email log: %w", err)
	}

	if d.mode == config.DeliveryQueue {
		err = d.jobs.EnqueueEmail(ctx, queue.EmailPayload{
			EmailLogID:     entry.ID,
			RegistrationID: n.RegistrationID,
			RecipientEmail: msg.To,
			Subject:        msg.Subject,
			BodyText:       msg.Text,
			BodyHTML:       msg.HTML,
		})
		if err != nil {
			d.markFailed(entry.ID, err)
			return fmt.Errorf("enqueue email: %w", err)
		}
		d.logger.Info("approval email queued", zap.Int64("registration_id", n.RegistrationID), zap.String("email_log_id", entry.ID.String()))
		return nil
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		d.markFailed(entry.ID, err)
		return fmt.Errorf("send email: %w", err)
	}
	if err := d.logs.MarkSent(context.WithoutCancel(ctx), entry.ID); err != nil {
		d.logger.Warn("mark email log sent", zap.String("email_log_id", entry.ID.String()), zap.Error(err))
	}
	return nil
}

// markFailed runs outside the caller's deadline, which may be what just expired.
func (d *Dispatcher) markFailed(id uuid.UUID, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.logs.MarkFailed(ctx, id, cause.Error()); err != nil {
		d.logger.Warn("mark email log failed", zap.String("email_log_id", id.String()), zap.Error(err))
	}
}
