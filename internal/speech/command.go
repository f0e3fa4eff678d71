package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrNoEngine is returned when no speech command is installed.
	ErrNoEngine = errors.New("no speech engine found (install say, espeak-ng, espeak or spd-say)")

	// ErrEmptyText is returned when there is nothing to read.
	ErrEmptyText = errors.New("nothing to read")
)

// Speaker reads text aloud.
type Speaker interface {
	// Speak blocks until playback finishes or ctx is cancelled.
	Speak(ctx context.Context, text string) error
}

// DefaultWordsPerMinute is the speaking rate at Rate 1.0.
const DefaultWordsPerMinute = 175

// engines are tried in order by NewCommandSpeaker.
var engines = []string{"say", "espeak-ng", "espeak", "spd-say"}

// CommandSpeaker speaks through an external command.
type CommandSpeaker struct {
	path  string
	rate  float64
	voice string
}

// Option configures a CommandSpeaker.
type Option func(*CommandSpeaker)

// WithRate sets the speaking rate relative to normal speed. Values outside
// (0, 4] are ignored.
func WithRate(rate float64) Option {
	return func(s *CommandSpeaker) {
		if rate > 0 && rate <= 4 {
			s.rate = rate
		}
	}
}

// WithVoice selects a voice by engine-specific name.
func WithVoice(voice string) Option {
	return func(s *CommandSpeaker) {
		s.voice = strings.TrimSpace(voice)
	}
}

// WithCommand uses the command at path instead of searching PATH.
func WithCommand(path string) Option {
	return func(s *CommandSpeaker) {
		s.path = path
	}
}

// NewCommandSpeaker returns a speaker for the first speech command found in
// PATH, or ErrNoEngine.
func NewCommandSpeaker(opts ...Option) (*CommandSpeaker, error) {
	s := &CommandSpeaker{rate: 1}
	for _, opt := range opts {
		opt(s)
	}
	if s.path != "" {
		return s, nil
	}
	for _, name := range engines {
		if path, err := exec.LookPath(name); err == nil {
			s.path = path
			return s, nil
		}
	}
	return nil, ErrNoEngine
}

// Engine returns the base name of the speech command.
func (s *CommandSpeaker) Engine() string {
	return filepath.Base(s.path)
}

// Args returns the command line arguments. The text itself goes to stdin.
func (s *CommandSpeaker) Args() []string {
	wpm := strconv.Itoa(int(s.rate * DefaultWordsPerMinute))
	var args []string
	switch s.Engine() {
	case "say":
		args = []string{"-r", wpm}
		if s.voice != "" {
			args = append(args, "-v", s.voice)
		}
		args = append(args, "-f", "-")
	case "spd-say":
		// spd-say takes a relative rate in [-100, 100].
		rel := int((s.rate - 1) * 100)
		rel = max(-100, min(100, rel))
		args = []string{"-w", "-r", strconv.Itoa(rel)}
		if s.voice != "" {
			args = append(args, "-y", s.voice)
		}
		args = append(args, "-e")
	default: // espeak, espeak-ng
		args = []string{"-s", wpm}
		if s.voice != "" {
			args = append(args, "-v", s.voice)
		}
		args = append(args, "--stdin")
	}
	return args
}

// Speak runs the speech command and waits for it to exit. Cancelling ctx
// kills the command.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	cmd := exec.CommandContext(ctx, s.path, s.Args()...) //nolint:gosec // path comes from LookPath or explicit configuration
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", s.Engine(), err, strings.TrimSpace(string(out)))
	}
	return nil
}
