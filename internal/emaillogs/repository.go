package emaillogs

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub-fest/backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a log entry and fills its id and created_at.
func (r *Repository) Create(ctx context.Context, l *models.EmailLog) error {
	const q = `INSERT INTO email_logs (registration_id, email_type, recipient_email, subject, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, attempts, created_at`
	return r.pool.QueryRow(ctx, q, l.RegistrationID, l.EmailType, l.RecipientEmail, l.Subject, l.Status).
		Scan(&l.ID, &l.Attempts, &l.CreatedAt)
}

// MarkSent records a successful delivery attempt.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE email_logs SET status = 'sent', attempts = attempts + 1, sent_at = NOW(), error_message = NULL
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// MarkFailed records a failed delivery attempt. The worker may still retry and later mark it sent.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `UPDATE email_logs SET status = 'failed', attempts = attempts + 1, error_message = $2
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, reason)
	return err
}

// ListByRegistration returns email logs for a registration, newest first.
func (r *Repository) ListByRegistration(ctx context.Context, registrationID int64) ([]*models.EmailLog, error) {
	const q = `SELECT id, registration_id, email_type, recipient_email, subject, status, attempts, sent_at, error_message, created_at
		FROM email_logs
		WHERE registration_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, registrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []*models.EmailLog{}
	for rows.Next() {
		var el models.EmailLog
		var subject, errMsg *string
		if err := rows.Scan(&el.ID, &el.RegistrationID, &el.EmailType, &el.RecipientEmail, &subject, &el.Status, &el.Attempts, &el.SentAt, &errMsg, &el.CreatedAt); err != nil {
			return nil, err
		}
		if subject != nil {
			el.Subject = *subject
		}
		if errMsg != nil {
			el.ErrorMessage = *errMsg
		}
		list = append(list, &el)
	}
	return list, rows.Err()
}
