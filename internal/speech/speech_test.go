package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

// blockingSpeaker records what it was asked to read and blocks until its
// context is cancelled or release is closed.
type blockingSpeaker struct {
	mu      sync.Mutex
	texts   []string
	started chan struct{}
	release chan struct{}
}

func newBlockingSpeaker() *blockingSpeaker {
	return &blockingSpeaker{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (b *blockingSpeaker) Speak(ctx context.Context, text string) error {
	b.mu.Lock()
	b.texts = append(b.texts, text)
	b.mu.Unlock()
	b.started <- struct{}{}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.release:
		return nil
	}
}

type failingSpeaker struct{}

func (failingSpeaker) Speak(context.Context, string) error { return errors.New("device busy") }

func TestPlayer(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("stop cancels playback", func(t *testing.T) {
		s := newBlockingSpeaker()
		p := NewPlayer(s, nil)
		if err := p.Start(context.Background(), "hello"); err != nil {
			t.Fatal(err)
		}
		<-s.started
		if !p.IsRunning() {
			t.Fatal("IsRunning() = false during playback")
		}
		p.Stop()
		if p.IsRunning() {
			t.Error("IsRunning() = true after Stop")
		}
	})

	t.Run("starting again replaces the playback", func(t *testing.T) {
		s := newBlockingSpeaker()
		p := NewPlayer(s, nil)
		_ = p.Start(context.Background(), "first")
		<-s.started
		_ = p.Start(context.Background(), "second")
		<-s.started
		p.Stop()

		s.mu.Lock()
		defer s.mu.Unlock()
		if diff := cmp.Diff([]string{"first", "second"}, s.texts); diff != "" {
			t.Errorf("texts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("toggle starts then stops", func(t *testing.T) {
		s := newBlockingSpeaker()
		p := NewPlayer(s, nil)
		started, err := p.Toggle(context.Background(), "text")
		if err != nil || !started {
			t.Fatalf("Toggle() = %v, %v", started, err)
		}
		<-s.started
		started, err = p.Toggle(context.Background(), "text")
		if err != nil || started {
			t.Fatalf("second Toggle() = %v, %v", started, err)
		}
		if p.IsRunning() {
			t.Error("still running after toggling off")
		}
	})

	t.Run("natural end", func(t *testing.T) {
		s := newBlockingSpeaker()
		p := NewPlayer(s, nil)
		_ = p.Start(context.Background(), "text")
		<-s.started
		close(s.release)
		if err := p.Wait(); err != nil {
			t.Errorf("Wait() = %v", err)
		}
		if p.IsRunning() {
			t.Error("IsRunning() = true after playback ended")
		}
	})

	t.Run("speaker error is reported by wait", func(t *testing.T) {
		p := NewPlayer(failingSpeaker{}, nil)
		_ = p.Start(context.Background(), "text")
		if err := p.Wait(); err == nil {
			t.Error("Wait() = nil, want error")
		}
	})

	t.Run("parent context cancels", func(t *testing.T) {
		s := newBlockingSpeaker()
		p := NewPlayer(s, nil)
		ctx, cancel := context.WithCancel(context.Background())
		_ = p.Start(ctx, "text")
		<-s.started
		cancel()
		if err := p.Wait(); !errors.Is(err, context.Canceled) {
			t.Errorf("Wait() = %v, want context.Canceled", err)
		}
	})

	t.Run("empty text and nil speaker", func(t *testing.T) {
		if err := NewPlayer(newBlockingSpeaker(), nil).Start(context.Background(), ""); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Start(\"\") = %v", err)
		}
		if err := NewPlayer(nil, nil).Start(context.Background(), "x"); !errors.Is(err, ErrNoEngine) {
			t.Errorf("Start() without speaker = %v", err)
		}
		NewPlayer(nil, nil).Stop()
	})
}

func TestCommandSpeakerArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
		want []string
	}{
		{
			name: "say with voice",
			opts: []Option{WithCommand("/usr/bin/say"), WithVoice("Ting-Ting")},
			want: []string{"-r", "175", "-v", "Ting-Ting", "-f", "-"},
		},
		{
			name: "espeak at double speed",
			opts: []Option{WithCommand("/usr/bin/espeak-ng"), WithRate(2)},
			want: []string{"-s", "350", "--stdin"},
		},
		{
			name: "spd-say clamps the relative rate",
			opts: []Option{WithCommand("/usr/bin/spd-say"), WithRate(3)},
			want: []string{"-w", "-r", "100", "-e"},
		},
		{
			name: "invalid rate is ignored",
			opts: []Option{WithCommand("espeak"), WithRate(-1)},
			want: []string{"-s", "175", "--stdin"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := NewCommandSpeaker(tt.opts...)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, s.Args()); diff != "" {
				t.Errorf("Args() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCommandSpeakerSpeak(t *testing.T) {
	t.Parallel()

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		s, _ := NewCommandSpeaker(WithCommand("espeak"))
		if err := s.Speak(context.Background(), "  "); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Speak() = %v, want ErrEmptyText", err)
		}
	})

	t.Run("missing command fails", func(t *testing.T) {
		t.Parallel()
		s, _ := NewCommandSpeaker(WithCommand("/nonexistent/espeak"))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Speak(ctx, "hello"); err == nil {
			t.Error("Speak() = nil, want error")
		}
	})
}
