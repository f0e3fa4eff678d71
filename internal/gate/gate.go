// Package gate implements the password lock on gated record bodies.
//
// The password is checked against a bcrypt hash from the configuration. A
// successful unlock stores its expiry in the preference database, so the
// gate stays open across restarts until the TTL runs out.
package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/database"
)

var (
	// ErrWrongPassword is returned when the password does not match.
	ErrWrongPassword = errors.New("wrong password")

	// ErrNoPassword is returned when no password hash is configured.
	ErrNoPassword = errors.New("no gate password configured")
)

// Store persists the unlock expiry.
type Store interface {
	SetPreference(ctx context.Context, key, value string, ttl time.Duration) error
	GetPreference(ctx context.Context, key string) (string, bool, error)
	DeletePreference(ctx context.Context, key string) error
}

// Gate is the reading gate.
type Gate struct {
	hash  []byte
	ttl   time.Duration
	store Store
	now   func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// New returns a gate for cfg backed by store.
func New(cfg config.GateConfig, store Store, opts ...Option) *Gate {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = config.DefaultGateTTL
	}
	g := &Gate{hash: []byte(cfg.PasswordHash), ttl: ttl, store: store, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// HashPassword returns the bcrypt hash to put in the configuration.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Enabled reports whether a password is configured.
func (g *Gate) Enabled() bool { return len(g.hash) > 0 }

// TTL returns how long an unlock lasts.
func (g *Gate) TTL() time.Duration { return g.ttl }

// Unlock checks password and opens the gate until now + TTL.
func (g *Gate) Unlock(ctx context.Context, password string) (time.Time, error) {
	if !g.Enabled() {
		return time.Time{}, ErrNoPassword
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return time.Time{}, ErrWrongPassword
		}
		return time.Time{}, fmt.Errorf("check password: %w", err)
	}
	until := g.now().Add(g.ttl).UTC()
	if err := g.store.SetPreference(ctx, database.KeyReadingUnlockedUntil, until.Format(time.RFC3339), g.ttl); err != nil {
		return time.Time{}, err
	}
	return until, nil
}

// Lock closes the gate.
func (g *Gate) Lock(ctx context.Context) error {
	return g.store.DeletePreference(ctx, database.KeyReadingUnlockedUntil)
}

// Until returns when the current unlock expires. It reports false when the
// gate is locked.
func (g *Gate) Until(ctx context.Context) (time.Time, bool, error) {
	v, ok, err := g.store.GetPreference(ctx, database.KeyReadingUnlockedUntil)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	until, err := time.Parse(time.RFC3339, v)
	if err != nil || !g.now().Before(until) {
		return time.Time{}, false, nil //nolint:nilerr // an unreadable expiry means locked
	}
	return until, true, nil
}

// Unlocked reports whether gated bodies may be shown. A gate without a
// password is always open. Store errors read as locked.
func (g *Gate) Unlocked(ctx context.Context) bool {
	if !g.Enabled() {
		return true
	}
	_, ok, err := g.Until(ctx)
	return err == nil && ok
}

// Locked is the negation of Unlocked with a background context, in the
// shape the detail modal expects.
func (g *Gate) Locked() bool {
	return !g.Unlocked(context.Background())
}
