package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventhub-fest/backend/pkg/mailer"
	"github.com/eventhub-fest/backend/pkg/queue"
)

// Jobs is the queue side the processor consumes. *queue.Queue implements it.
type Jobs interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// LogUpdater records delivery outcomes. *emaillogs.Repository implements it.
type LogUpdater interface {
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// EmailProcessor processes email jobs: send over SMTP, update the email log.
type EmailProcessor struct {
	jobs    Jobs
	logs    LogUpdater
	sender  mailer.Sender
	timeout time.Duration
	backoff time.Duration
	logger  *zap.Logger
}

// NewEmailProcessor creates an email job processor. timeout bounds each send.
func NewEmailProcessor(jobs Jobs, logs LogUpdater, sender mailer.Sender, timeout time.Duration, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EmailProcessor{jobs: jobs, logs: logs, sender: sender, timeout: timeout, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err := p.sender.Send(sendCtx, mailer.Message{
		To:      payload.RecipientEmail,
		Subject: payload.Subject,
		Text:    payload.BodyText,
		HTML:    payload.BodyHTML,
	})
	if err != nil {
		if logErr := p.logs.MarkFailed(ctx, payload.EmailLogID, err.Error()); logErr != nil {
			p.logger.Warn("mark email log failed", zap.String("email_log_id", payload.EmailLogID.String()), zap.Error(logErr))
		}
		return fmt.Errorf("send: %w", err)
	}

	if err := p.logs.MarkSent(ctx, payload.EmailLogID); err != nil {
		p.logger.Error("mark email log sent", zap.String("email_log_id", payload.EmailLogID.String()), zap.Error(err))
	}
	p.logger.Info("email delivered", zap.Int64("registration_id", payload.RegistrationID), zap.String("email_log_id", payload.EmailLogID.String()))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.wait(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.wait(ctx)
		}
	}
}

func (p *EmailProcessor) wait(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
