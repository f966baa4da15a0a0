package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Notification is a user-facing alert about a task.
type Notification struct {
	TaskID string
	Title  string
	Body   string
}

type Notifier interface {
	Send(Notification) error
}

// Noop swallows notifications; used when desktop notifications are
// disabled or unsupported.
type Noop struct{}

func (Noop) Send(Notification) error { return nil }

// Desktop shells out to the platform notification command. Unsupported
// platforms are a silent no-op.
type Desktop struct{}

func (Desktop) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`,
			escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

func escapeAppleScript(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// ForEnabled picks the notifier for the configuration flag.
func ForEnabled(enabled bool) Notifier {
	if enabled {
		return Desktop{}
	}
	return Noop{}
}
