package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub-fest/backend/pkg/mailer"
	"github.com/eventhub-fest/backend/pkg/queue"
)

type fakeJobs struct {
	mu      sync.Mutex
	pending []*queue.Job
	retried []*queue.Job
	drained chan struct{}
}

func (f *fakeJobs) Dequeue(ctx context.Context) (*queue.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		select {
		case f.drained <- struct{}{}:
		default:
		}
		return nil, nil
	}
	job := f.pending[0]
	f.pending = f.pending[1:]
	return job, nil
}

func (f *fakeJobs) Retry(_ context.Context, job *queue.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.Attempt++
	f.retried = append(f.retried, job)
	return nil
}

type fakeLogs struct {
	mu     sync.Mutex
	sent   []uuid.UUID
	failed map[uuid.UUID]string
}

func (f *fakeLogs) MarkSent(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeLogs) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed == nil {
		f.failed = make(map[uuid.UUID]string)
	}
	f.failed[id] = reason
	return nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func emailJob(t *testing.T, logID uuid.UUID) *queue.Job {
	t.Helper()
	body, err := json.Marshal(queue.EmailPayload{
		EmailLogID:     logID,
		RegistrationID: 5,
		RecipientEmail: "asha@example.com",
		Subject:        "Registration Approved - EventHub 2026",
		BodyText:       "hello",
		BodyHTML:       "<p>hello</p>",
	})
	require.NoError(t, err)
	return &queue.Job{ID: uuid.NewString(), Type: queue.JobTypeEmail, Payload: body}
}

func TestProcess_SendsAndMarksSent(t *testing.T) {
	logs, sender := &fakeLogs{}, &fakeSender{}
	p := NewEmailProcessor(&fakeJobs{}, logs, sender, time.Second, nil)
	logID := uuid.New()

	require.NoError(t, p.Process(context.Background(), emailJob(t, logID)))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "asha@example.com", sender.sent[0].To)
	assert.Equal(t, "<p>hello</p>", sender.sent[0].HTML)
	assert.Equal(t, []uuid.UUID{logID}, logs.sent)
}

func TestProcess_SendFailureMarksFailed(t *testing.T) {
	logs := &fakeLogs{}
	p := NewEmailProcessor(&fakeJobs{}, logs, &fakeSender{err: errors.New("450 mailbox busy")}, time.Second, nil)
	logID := uuid.New()

	err := p.Process(context.Background(), emailJob(t, logID))
	require.Error(t, err)
	assert.Contains(t, logs.failed[logID], "450")
	assert.Empty(t, logs.sent)
}

func TestProcess_RejectsUnknownJob(t *testing.T) {
	p := NewEmailProcessor(&fakeJobs{}, &fakeLogs{}, &fakeSender{}, time.Second, nil)
	require.Error(t, p.Process(context.Background(), &queue.Job{Type: "recording_upload"}))
	require.Error(t, p.Process(context.Background(), &queue.Job{Type: queue.JobTypeEmail, Payload: json.RawMessage(`[`)}))
}

func TestRun_RetriesFailedJobs(t *testing.T) {
	jobs := &fakeJobs{drained: make(chan struct{}, 1)}
	logID := uuid.New()
	jobs.pending = []*queue.Job{emailJob(t, logID)}
	p := NewEmailProcessor(jobs, &fakeLogs{}, &fakeSender{err: errors.New("421 try later")}, time.Second, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-jobs.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never drained the queue")
	}
	cancel()
	<-done

	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	require.Len(t, jobs.retried, 1)
	assert.Equal(t, 1, jobs.retried[0].Attempt)
}
