package registrations

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eventhub-fest/backend/internal/catalog"
	"github.com/eventhub-fest/backend/internal/models"
)

// memStore is an in-memory Store enforcing token uniqueness like the unique index does.
type memStore struct {
	mu          sync.Mutex
	nextID      int64
	rows        map[int64]models.Registration
	createCalls int
	createErrs  []error // returned in order before the real insert runs
	lookups     int
	transitions int
	deleteErr   error
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[int64]models.Registration)}
}

func (m *memStore) Create(_ context.Context, reg *models.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		return err
	}
	for _, r := range m.rows {
		if r.RegistrationToken == reg.RegistrationToken {
			return ErrConflict
		}
	}
	m.nextID++
	now := time.Now()
	reg.ID = m.nextID
	reg.PaymentVerified = false
	reg.CreatedAt, reg.UpdatedAt = now, now
	m.rows[reg.ID] = *reg
	return nil
}

func (m *memStore) FindByID(_ context.Context, id int64) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *memStore) FindByToken(_ context.Context, token string) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	for _, r := range m.rows {
		if r.RegistrationToken == token {
			r := r
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) List(_ context.Context, p ListParams) ([]models.Registration, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.Registration
	needle := strings.ToLower(p.Search)
	for _, r := range m.rows {
		if p.Status == StatusVerified && !r.PaymentVerified || p.Status == StatusPending && r.PaymentVerified {
			continue
		}
		if needle != "" {
			hay := strings.ToLower(strings.Join([]string{r.Name, r.Email, r.Mobile, r.CollegeID, r.RegistrationToken}, " "))
			if !strings.Contains(hay, needle) {
				continue
			}
		}
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *memStore) MarkVerified(_ context.Context, id int64) (*models.Registration, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	if r.PaymentVerified {
		return &r, false, nil
	}
	r.PaymentVerified = true
	r.UpdatedAt = time.Now()
	m.rows[id] = r
	m.transitions++
	return &r, true, nil
}

func (m *memStore) Delete(_ context.Context, id int64) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	r, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.rows, id)
	return &r, nil
}

// fakeNotifier counts approval notices and optionally fails or blocks.
type fakeNotifier struct {
	mu      sync.Mutex
	calls   int
	err     error
	block   bool
	notices []models.ApprovalNotice
}

func (f *fakeNotifier) NotifyApproved(ctx context.Context, n models.ApprovalNotice) error {
	f.mu.Lock()
	f.calls++
	f.notices = append(f.notices, n)
	block, err := f.block, f.err
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *fakeNotifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeClock only moves when the generator sleeps.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	return nil
}

func testTokenOptions() TokenOptions {
	return TokenOptions{OrgCode: "MCGK", Year: "2026", MaxAttempts: 5, RetryDelay: 100 * time.Millisecond, VerifyFallback: true}
}

func newTestTokens(lookup TokenLookup) (*TokenGenerator, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)}
	g := NewTokenGenerator(lookup, testTokenOptions(), nil)
	g.now = clock.Now
	g.sleep = clock.Sleep
	return g, clock
}

func newTestService(store *memStore, notifier Notifier) *Service {
	tokens, _ := newTestTokens(store)
	return NewService(store, catalog.Default(), tokens, notifier, 50*time.Millisecond, nil)
}

func intPtr(n int) *int { return &n }

func validSubmission() Submission {
	return Submission{
		Name:              "Asha Verma",
		Email:             "asha@example.com",
		Mobile:            "9876543210",
		CollegeID:         "MC-1024",
		GraduationType:    models.GraduationUG,
		SelectedEvents:    []EventSelection{{ID: 3, ParticipationMode: catalog.ModeIndividual}},
		TotalAmount:       100,
		PaymentReceiptURL: "https://eventhub-receipts.s3.ap-south-1.amazonaws.com/receipts/r.png",
	}
}

func teamOf(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "Member " + string(rune('A'+i))
	}
	return out
}
