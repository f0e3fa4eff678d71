package speech

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Player runs at most one playback at a time.
type Player struct {
	speaker Speaker
	logger  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// NewPlayer returns a player for speaker. logger may be nil.
func NewPlayer(speaker Speaker, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Player{speaker: speaker, logger: logger}
}

// Start stops any current playback and begins reading text in the
// background. Playback ends when it finishes, Stop is called or ctx is
// cancelled.
func (p *Player) Start(ctx context.Context, text string) error {
	if p.speaker == nil {
		return ErrNoEngine
	}
	if text == "" {
		return ErrEmptyText
	}
	p.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.err = nil
	p.mu.Unlock()

	go func() {
		defer close(done)
		err := p.speaker.Speak(ctx, text)
		if err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Warn("speech failed", "error", err)
		}
		p.mu.Lock()
		if p.done == done {
			p.err = err
		}
		p.mu.Unlock()
		cancel()
	}()
	return nil
}

// Stop cancels the current playback and waits for it to end. It is safe to
// call when nothing is playing.
func (p *Player) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Toggle stops a running playback, or starts reading text when idle. It
// reports whether playback was started.
func (p *Player) Toggle(ctx context.Context, text string) (bool, error) {
	if p.IsRunning() {
		p.Stop()
		return false, nil
	}
	if err := p.Start(ctx, text); err != nil {
		return false, err
	}
	return true, nil
}

// IsRunning reports whether a playback is in progress.
func (p *Player) IsRunning() bool {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Wait blocks until the current playback ends and returns its error.
func (p *Player) Wait() error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
