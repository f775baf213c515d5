package registrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub-fest/backend/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const registrationColumns = `id, name, email, mobile, COALESCE(college_id, ''), graduation_type,
	selected_events, team_details, total_amount, registration_token, payment_receipt_url,
	payment_verified, created_at, updated_at`

// Repository handles registration persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var reg models.Registration
	var selected, team []byte
	err := row.Scan(&reg.ID, &reg.Name, &reg.Email, &reg.Mobile, &reg.CollegeID, &reg.GraduationType,
		&selected, &team, &reg.TotalAmount, &reg.RegistrationToken, &reg.PaymentReceiptURL,
		&reg.PaymentVerified, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(selected, &reg.SelectedEvents); err != nil {
		return nil, fmt.Errorf("decode selected_events of %d: %w", reg.ID, err)
	}
	if len(team) > 0 {
		if err := json.Unmarshal(team, &reg.TeamDetails); err != nil {
			return nil, fmt.Errorf("decode team_details of %d: %w", reg.ID, err)
		}
	}
	return &reg, nil
}

// Create inserts a registration and fills the store-assigned fields.
// A duplicate registration token is reported as ErrConflict.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	selected, err := json.Marshal(reg.SelectedEvents)
	if err != nil {
		return fmt.Errorf("encode selected_events: %w", err)
	}
	var team []byte
	if len(reg.TeamDetails) > 0 {
		if team, err = json.Marshal(reg.TeamDetails); err != nil {
			return fmt.Errorf("encode team_details: %w", err)
		}
	}
	const q = `INSERT INTO registrations (name, email, mobile, college_id, graduation_type, selected_events,
		team_details, total_amount, registration_token, payment_receipt_url)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6::jsonb, $7::jsonb, $8, $9, $10)
		RETURNING id, payment_verified, created_at, updated_at`
	err = r.pool.QueryRow(ctx, q, reg.Name, reg.Email, reg.Mobile, reg.CollegeID, string(reg.GraduationType),
		string(selected), nullableJSON(team), reg.TotalAmount, reg.RegistrationToken, reg.PaymentReceiptURL).
		Scan(&reg.ID, &reg.PaymentVerified, &reg.CreatedAt, &reg.UpdatedAt)
	if isPgError(err, pgUniqueViolation) {
		return fmt.Errorf("token %s: %w", reg.RegistrationToken, ErrConflict)
	}
	return err
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

// FindByID returns a registration by ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Registration, error) {
	reg, err := scanRegistration(r.pool.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return reg, err
}

// FindByToken returns the registration holding token.
func (r *Repository) FindByToken(ctx context.Context, token string) (*models.Registration, error) {
	reg, err := scanRegistration(r.pool.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE registration_token = $1`, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return reg, err
}

// List returns one page of registrations and the total matching count. p must be normalized.
func (r *Repository) List(ctx context.Context, p ListParams) ([]models.Registration, int, error) {
	lq := buildListQuery(p)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations`+lq.where, lq.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}

	n := len(lq.args)
	q := fmt.Sprintf(`SELECT %s FROM registrations%s%s LIMIT $%d OFFSET $%d`, registrationColumns, lq.where, lq.orderBy, n+1, n+2)
	args := append(append([]any{}, lq.args...), p.Limit, p.Offset())
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()
	list := make([]models.Registration, 0, p.Limit)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *reg)
	}
	return list, total, rows.Err()
}

// MarkVerified flips payment_verified to true. changed is false when the row was already verified,
// so concurrent approvals produce exactly one transition.
func (r *Repository) MarkVerified(ctx context.Context, id int64) (reg *models.Registration, changed bool, err error) {
	const q = `UPDATE registrations SET payment_verified = TRUE, updated_at = NOW()
		WHERE id = $1 AND payment_verified = FALSE
		RETURNING ` + registrationColumns
	reg, err = scanRegistration(r.pool.QueryRow(ctx, q, id))
	if err == nil {
		return reg, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}
	reg, err = r.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return reg, false, nil
}

// Delete hard-deletes a registration and returns what was removed.
// Rows still referencing it surface as ErrConflict.
func (r *Repository) Delete(ctx context.Context, id int64) (*models.Registration, error) {
	reg, err := scanRegistration(r.pool.QueryRow(ctx, `DELETE FROM registrations WHERE id = $1 RETURNING `+registrationColumns, id))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrNotFound
	case isPgError(err, pgForeignKeyViolation):
		return nil, fmt.Errorf("registration %d: %w", id, ErrConflict)
	}
	return reg, err
}

// Totals returns headline counts for the dashboard.
func (r *Repository) Totals(ctx context.Context) (Totals, error) {
	const q = `SELECT COUNT(*), COUNT(*) FILTER (WHERE payment_verified),
		COALESCE(SUM(total_amount), 0), COALESCE(SUM(total_amount) FILTER (WHERE payment_verified), 0)
		FROM registrations`
	var t Totals
	err := r.pool.QueryRow(ctx, q).Scan(&t.Registrations, &t.Verified, &t.ExpectedRevenue, &t.VerifiedRevenue)
	t.Pending = t.Registrations - t.Verified
	return t, err
}

// EventCounts returns how many registrations include each event id.
func (r *Repository) EventCounts(ctx context.Context) (map[int]int, error) {
	const q = `SELECT (e->>'eventId')::int, COUNT(*)
		FROM registrations, jsonb_array_elements(selected_events) AS e
		GROUP BY 1`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[int]int)
	for rows.Next() {
		var id, n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// Totals are aggregate registration figures.
type Totals struct {
	Registrations   int `json:"totalRegistrations"`
	Verified        int `json:"verified"`
	Pending         int `json:"pending"`
	ExpectedRevenue int `json:"expectedRevenue"`
	VerifiedRevenue int `json:"verifiedRevenue"`
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
