package adapter

import (
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// Launcher opens catalog pages and cover images in a browser
type Launcher struct {
	command string   // configured browser command, empty for system default
	args    []string // arguments placed before the URL
	logger  *slog.Logger

	// start runs the command; replaced in tests
	start func(name string, args ...string) error
}

// NewLauncher creates a Launcher. command may carry arguments, e.g.
// "firefox --new-tab".
func NewLauncher(command string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Launcher{logger: logger, start: startCommand}
	if fields := strings.Fields(command); len(fields) > 0 {
		l.command = fields[0]
		l.args = fields[1:]
	}
	return l
}

func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start() // async, don't wait
}

// Launch opens rawURL. Only http and https URLs are accepted.
func (l *Launcher) Launch(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("refusing to open %q: not an http(s) url", rawURL)
	}

	if l.command != "" {
		args := append(append([]string{}, l.args...), rawURL)
		l.logger.Info("launching browser", "command", l.command, "args", args)
		return l.start(l.command, args...)
	}

	name, args := defaultOpener(runtime.GOOS)
	l.logger.Info("launching with system default", "os", runtime.GOOS, "url", rawURL)
	return l.start(name, append(args, rawURL)...)
}

// defaultOpener returns the system URL handler for goos
func defaultOpener(goos string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", nil
	case "windows":
		return "cmd", []string{"/c", "start", ""}
	default:
		return "xdg-open", nil
	}
}

// WorkURL returns the catalog page of a work key such as "/works/OL1W"
func WorkURL(baseURL, key string) string {
	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	return strings.TrimRight(baseURL, "/") + key
}
