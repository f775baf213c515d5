package registrations

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/eventhub-fest/backend/internal/models"
)

// takenLookup reports every token as already issued.
type takenLookup struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (l *takenLookup) FindByToken(context.Context, string) (*models.Registration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return &models.Registration{}, nil
}

var timedToken = regexp.MustCompile(`^MCGK2026(\d{2})(\d{4})(\d{3})$`)

func TestTokenGenerator_Format(t *testing.T) {
	g, clock := newTestTokens(newMemStore())
	g.intn = func(int) int { return 7 }

	token, err := g.Generate(context.Background(), 3)
	require.NoError(t, err)

	m := timedToken.FindStringSubmatch(token)
	require.NotNil(t, m, "token %q", token)
	assert.Equal(t, "03", m[1])
	slot := (clock.Now().UnixMilli() / 100) % 10000
	assert.Equal(t, fmt.Sprintf("%04d", slot), m[2])
	assert.Equal(t, "007", m[3])
}

func TestTokenGenerator_EventCountIsZeroPadded(t *testing.T) {
	g, _ := newTestTokens(newMemStore())
	assert.Equal(t, "MCGK202601", g.Prefix(1))
	assert.Equal(t, "MCGK202615", g.Prefix(15))
}

func TestTokenGenerator_RetriesAfterCollision(t *testing.T) {
	store := newMemStore()
	g, clock := newTestTokens(store)
	g.intn = func(int) int { return 0 }

	first, err := g.Generate(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), &models.Registration{RegistrationToken: first}))

	before := clock.Now()
	second, err := g.Generate(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 100*time.Millisecond, clock.Now().Sub(before), "one retry delay between attempts")
}

func TestTokenGenerator_FallbackWithoutVerification(t *testing.T) {
	lookup := &takenLookup{}
	g, _ := newTestTokens(lookup)
	g.opts.VerifyFallback = false
	sleeps := 0
	g.sleep = func(context.Context, time.Duration) error { sleeps++; return nil }

	token, err := g.Generate(context.Background(), 2)
	require.NoError(t, err)
	assert.Regexp(t, `^MCGK202602[0-9A-F]{12}$`, token)
	assert.Equal(t, 5, lookup.calls)
	assert.Equal(t, 4, sleeps, "no sleep after the last attempt")
}

func TestTokenGenerator_FallbackVerifiedAndTaken(t *testing.T) {
	lookup := &takenLookup{}
	g, _ := newTestTokens(lookup)

	_, err := g.Generate(context.Background(), 2)
	require.ErrorIs(t, err, ErrTokenExhausted)
	assert.Equal(t, 6, lookup.calls)
}

func TestTokenGenerator_FallbackVerifiedAndFree(t *testing.T) {
	store := newMemStore()
	g, _ := newTestTokens(store)
	g.opts.MaxAttempts = 1
	g.intn = func(int) int { return 1 }
	require.NoError(t, store.Create(context.Background(), &models.Registration{RegistrationToken: g.candidate(g.Prefix(1))}))

	token, err := g.Generate(context.Background(), 1)
	require.NoError(t, err)
	assert.Regexp(t, `^MCGK202601[0-9A-F]{12}$`, token)
}

func TestTokenGenerator_LookupErrorIsReturned(t *testing.T) {
	boom := errors.New("connection reset")
	g, _ := newTestTokens(&takenLookup{err: boom})

	_, err := g.Generate(context.Background(), 1)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrTokenExhausted)
}

func TestTokenGenerator_CancelledWhileWaiting(t *testing.T) {
	g := NewTokenGenerator(&takenLookup{}, testTokenOptions(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
}

// Every sleep moves the clock into a slot no issued token uses, so at most one
// candidate per generation can collide whatever the random fragment returns.
func TestTokenGenerator_SequentialTokensAreUnique(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := newMemStore()
		g, _ := newTestTokens(store)
		g.intn = func(n int) int { return rapid.IntRange(0, n-1).Draw(t, "random") }
		n := rapid.IntRange(1, 100).Draw(t, "n")
		events := rapid.IntRange(1, 15).Draw(t, "events")

		seen := make(map[string]struct{}, n)
		for i := 0; i < n; i++ {
			token, err := g.Generate(context.Background(), events)
			if err != nil {
				t.Fatalf("generate %d: %v", i, err)
			}
			if !timedToken.MatchString(token) {
				t.Fatalf("token %q is not in the timed format", token)
			}
			if _, dup := seen[token]; dup {
				t.Fatalf("token %q issued twice", token)
			}
			seen[token] = struct{}{}
			if err := store.Create(context.Background(), &models.Registration{RegistrationToken: token}); err != nil {
				t.Fatalf("create %d: %v", i, err)
			}
		}
	})
}
