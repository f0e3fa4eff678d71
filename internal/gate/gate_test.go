package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/database"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(h)
}

func setup(t *testing.T, ttl time.Duration) (*Gate, *clock) {
	t.Helper()

	c := &clock{now: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)}
	opts := database.DefaultOptions()
	opts.Now = c.Now
	db, err := database.Open(t.TempDir(), opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	g := New(config.GateConfig{PasswordHash: hash(t, "open sesame"), TTL: ttl}, db, WithClock(c.Now))
	return g, c
}

func TestGate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("wrong password keeps the gate locked", func(t *testing.T) {
		t.Parallel()

		g, _ := setup(t, 0)
		if _, err := g.Unlock(ctx, "guess"); !errors.Is(err, ErrWrongPassword) {
			t.Errorf("Unlock(guess) = %v, want ErrWrongPassword", err)
		}
		if g.Unlocked(ctx) || !g.Locked() {
			t.Error("gate opened by a wrong password")
		}
	})

	t.Run("correct password unlocks until now plus ttl", func(t *testing.T) {
		t.Parallel()

		g, c := setup(t, 0)
		until, err := g.Unlock(ctx, "open sesame")
		if err != nil {
			t.Fatal(err)
		}
		want := c.Now().Add(7 * 24 * time.Hour)
		if !until.Equal(want) {
			t.Errorf("Unlock() until = %v, want %v", until, want)
		}
		if !g.Unlocked(ctx) {
			t.Error("gate still locked")
		}
		got, ok, err := g.Until(ctx)
		if err != nil || !ok || !got.Equal(want) {
			t.Errorf("Until() = %v, %v, %v", got, ok, err)
		}

		c.Advance(7*24*time.Hour - time.Second)
		if !g.Unlocked(ctx) {
			t.Error("gate locked before expiry")
		}
		c.Advance(time.Second)
		if g.Unlocked(ctx) {
			t.Error("gate open after expiry")
		}
	})

	t.Run("lock", func(t *testing.T) {
		t.Parallel()

		g, _ := setup(t, time.Hour)
		if _, err := g.Unlock(ctx, "open sesame"); err != nil {
			t.Fatal(err)
		}
		if err := g.Lock(ctx); err != nil {
			t.Fatal(err)
		}
		if g.Unlocked(ctx) {
			t.Error("gate open after Lock")
		}
	})

	t.Run("custom ttl", func(t *testing.T) {
		t.Parallel()

		g, c := setup(t, time.Hour)
		until, _ := g.Unlock(ctx, "open sesame")
		if !until.Equal(c.Now().Add(time.Hour)) {
			t.Errorf("until = %v", until)
		}
		if g.TTL() != time.Hour {
			t.Errorf("TTL() = %v", g.TTL())
		}
	})
}

func TestGateWithoutPassword(t *testing.T) {
	t.Parallel()

	g := New(config.GateConfig{}, nil)
	if g.Enabled() {
		t.Error("Enabled() = true without a hash")
	}
	if !g.Unlocked(context.Background()) {
		t.Error("gate without password is locked")
	}
	if _, err := g.Unlock(context.Background(), "x"); !errors.Is(err, ErrNoPassword) {
		t.Errorf("Unlock() = %v, want ErrNoPassword", err)
	}
}

func TestHashPassword(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("secret")
	if err != nil {
		t.Fatal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h), []byte("secret")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
	if _, err := HashPassword(""); !errors.Is(err, ErrNoPassword) {
		t.Errorf("HashPassword(\"\") = %v", err)
	}
}
