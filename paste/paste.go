// Package paste copies text to the system clipboard and synthesizes the
// paste keystroke in the foreground application.
package paste

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnsupported is returned on platforms without clipboard/keystroke
// tooling.
var ErrUnsupported = errors.New("paste not supported on this platform")

// Paste puts text on the clipboard and sends the paste chord to the
// frontmost application.
func Paste(text string) error {
	if err := setClipboard(text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	// Give the clipboard owner a moment before the keystroke lands.
	time.Sleep(100 * time.Millisecond)

	if err := sendPasteKeystroke(); err != nil {
		return fmt.Errorf("send paste keystroke: %w", err)
	}
	return nil
}
