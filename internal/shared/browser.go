package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

var getRuntime = func() string { return runtime.GOOS }

// startCommand is swapped in tests to avoid spawning a browser.
var startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }

// BrowserTarget turns a local file path into a file:// URL; URLs pass through.
func BrowserTarget(target string) (string, error) {
	if strings.Contains(target, "://") {
		return target, nil
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", target, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// OpenBrowser opens the default system browser on a URL or local file.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(target string) error {
	u, err := BrowserTarget(target)
	if err != nil {
		return err
	}

	var cmd *exec.Cmd
	switch rt := getRuntime(); rt {
	case "darwin":
		cmd = exec.Command("open", u)
	case "linux":
		cmd = exec.Command("xdg-open", u)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", u)
	default:
		return fmt.Errorf("%w: unsupported platform %s", ErrServiceUnavailable, rt)
	}

	if err := startCommand(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
