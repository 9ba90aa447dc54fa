package background

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// opens rawURL with the platform's default handler
func (BrowserOpener) Open(rawURL string) error {
	if err := checkOpenURL(rawURL); err != nil {
		return err
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	go cmd.Wait() //nolint:errcheck // reap the launcher

	return nil
}

// messages may carry any string; only web pages are handed to the OS
func checkOpenURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedURL, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}

	return nil
}
