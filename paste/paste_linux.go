//go:build linux

package paste

import (
	"fmt"
	"os/exec"
	"strings"
)

func setClipboard(text string) error {
	// X11 first, Wayland fallback.
	cmd := exec.Command("xclip", "-selection", "clipboard")
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err == nil {
		return nil
	}

	cmd = exec.Command("wl-copy")
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("install xclip (X11) or wl-copy (Wayland): %w", err)
	}
	return nil
}

func sendPasteKeystroke() error {
	if err := exec.Command("xdotool", "key", "ctrl+v").Run(); err == nil {
		return nil
	}

	// ydotool speaks raw key codes: 29=LeftCtrl, 47=V.
	err := exec.Command("ydotool", "key", "29:1", "47:1", "47:0", "29:0").Run()
	if err != nil {
		return fmt.Errorf("install xdotool (X11) or ydotool (Wayland): %w", err)
	}
	return nil
}
