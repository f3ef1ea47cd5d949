package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// startCommand launches a command without waiting for it. Tests replace it.
var startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }

// OpenAudio hands an audio locator to the system's default handler, which plays or streams it.
//
// Only absolute http(s) and file URLs are accepted. Supports macOS, Linux and Windows.
func OpenAudio(locator string) error {
	u, err := url.Parse(locator)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("%w: audio locator %q is not an absolute URL", ErrValidation, locator)
	}
	switch u.Scheme {
	case "http", "https", "file":
	default:
		return fmt.Errorf("%w: unsupported audio locator scheme %q", ErrValidation, u.Scheme)
	}

	cmd, err := openCommand(getRuntime(), locator)
	if err != nil {
		return err
	}
	if err := startCommand(cmd); err != nil {
		return fmt.Errorf("failed to open audio: %w", err)
	}
	return nil
}

func openCommand(goos, locator string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", locator), nil
	case "linux":
		return exec.Command("xdg-open", locator), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", locator), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
