//go:build !darwin && !linux

package paste

func setClipboard(string) error {
	return ErrUnsupported
}

func sendPasteKeystroke() error {
	return ErrUnsupported
}
