package registrations

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mrand "math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eventhub-fest/backend/internal/models"
)

// fallbackBytes is the width of the random suffix used once every timed candidate collided.
const fallbackBytes = 6

// TokenLookup is the existence check the generator runs against the store.
type TokenLookup interface {
	FindByToken(ctx context.Context, token string) (*models.Registration, error)
}

// TokenOptions configures the token layout and the collision retry ladder.
type TokenOptions struct {
	OrgCode     string
	Year        string
	MaxAttempts int
	RetryDelay  time.Duration
	// VerifyFallback runs one more existence check on the hex fallback token.
	VerifyFallback bool
}

// TokenGenerator issues human-readable registration tokens of the form
// ORG + YEAR + 2-digit event count + 4-digit time fragment + 3-digit random fragment.
type TokenGenerator struct {
	lookup TokenLookup
	opts   TokenOptions
	logger *zap.Logger

	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	intn     func(n int) int
	randRead func(b []byte) (int, error)
}

// NewTokenGenerator creates a generator backed by lookup.
func NewTokenGenerator(lookup TokenLookup, opts TokenOptions, logger *zap.Logger) *TokenGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &TokenGenerator{
		lookup:   lookup,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepCtx,
		intn:     mrand.Intn,
		randRead: rand.Read,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Prefix returns the fixed part of a token for eventCount events.
func (g *TokenGenerator) Prefix(eventCount int) string {
	return fmt.Sprintf("%s%s%02d", g.opts.OrgCode, g.opts.Year, eventCount)
}

func (g *TokenGenerator) candidate(prefix string) string {
	slot := (g.now().UnixMilli() / 100) % 10000
	return fmt.Sprintf("%s%04d%03d", prefix, slot, g.intn(1000))
}

// Generate returns a token that was free at the time of the check.
// Only a failing existence check or a cancelled context is returned as an error;
// a collision on every attempt falls back to a random hex suffix.
func (g *TokenGenerator) Generate(ctx context.Context, eventCount int) (string, error) {
	prefix := g.Prefix(eventCount)
	for attempt := 1; attempt <= g.opts.MaxAttempts; attempt++ {
		token := g.candidate(prefix)
		taken, err := g.taken(ctx, token)
		if err != nil {
			return "", err
		}
		if !taken {
			return token, nil
		}
		g.logger.Debug("registration token collision", zap.String("token", token), zap.Int("attempt", attempt))
		if attempt < g.opts.MaxAttempts {
			if err := g.sleep(ctx, g.opts.RetryDelay); err != nil {
				return "", err
			}
		}
	}

	buf := make([]byte, fallbackBytes)
	if _, err := g.randRead(buf); err != nil {
		return "", fmt.Errorf("fallback token entropy: %w", err)
	}
	token := prefix + strings.ToUpper(hex.EncodeToString(buf))
	g.logger.Warn("registration token fallback used", zap.String("token", token), zap.Int("attempts", g.opts.MaxAttempts))
	if !g.opts.VerifyFallback {
		return token, nil
	}
	taken, err := g.taken(ctx, token)
	if err != nil {
		return "", err
	}
	if taken {
		return "", ErrTokenExhausted
	}
	return token, nil
}

func (g *TokenGenerator) taken(ctx context.Context, token string) (bool, error) {
	_, err := g.lookup.FindByToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check token %s: %w", token, err)
	}
	return true, nil
}
