package detail

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnavailable is returned when the system clipboard cannot be
// written.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Clipboard writes text to a clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard is the operating system clipboard.
type SystemClipboard struct{}

// WriteAll copies text to the system clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: %w", ErrClipboardUnavailable, err)
	}
	return nil
}

// Copy methods reported in a Toast.
const (
	MethodClipboard = "clipboard"
	MethodManual    = "manual"
)

// Toast is the user-visible outcome of a copy.
type Toast struct {
	// OK is true when the text reached the clipboard.
	OK bool `json:"ok"`
	// Method is clipboard or manual.
	Method string `json:"method"`
	// Message is the notification text.
	Message string `json:"message"`
	// Fallback holds the text to select by hand when Method is manual.
	Fallback string `json:"fallback,omitempty"`
}

// Toast messages.
const (
	MessageCopied     = "Copied to clipboard"
	MessageManualCopy = "Clipboard unavailable, select the text to copy it"
	MessageNothing    = "Nothing to copy"
	MessageLocked     = "Unlock reading to copy this record"
)

// CopyText copies text with cb, falling back to manual selection on any
// clipboard failure.
func CopyText(cb Clipboard, text string) Toast {
	if text == "" {
		return Toast{Method: MethodClipboard, Message: MessageNothing}
	}
	if cb == nil {
		return Toast{Method: MethodManual, Message: MessageManualCopy, Fallback: text}
	}
	if err := cb.WriteAll(text); err != nil {
		return Toast{Method: MethodManual, Message: MessageManualCopy, Fallback: text}
	}
	return Toast{OK: true, Method: MethodClipboard, Message: MessageCopied}
}
