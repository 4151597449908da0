//go:build darwin

package paste

import (
	"os/exec"
	"strings"
)

func setClipboard(text string) error {
	cmd := exec.Command("pbcopy")
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// sendPasteKeystroke simulates Cmd+V via osascript, which is safe to
// call from any thread.
func sendPasteKeystroke() error {
	return exec.Command("osascript", "-e",
		`tell application "System Events" to keystroke "v" using command down`).Run()
}
