package tracker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Inspector reports the title and owning process name of the currently
// focused window. Headless deployments use Disabled, which classifies every
// sample as idle.
type Inspector interface {
	ActiveWindow(ctx context.Context) (title, process string, err error)
}

// Disabled is the Inspector for environments without a display server.
type Disabled struct{}

// ActiveWindow always reports no focused window.
func (Disabled) ActiveWindow(context.Context) (string, string, error) {
	return "", "", nil
}

// XdotoolInspector shells out to xdotool to read the focused window title on
// X11 desktops and resolves the owning process name through /proc.
type XdotoolInspector struct {
	timeout time.Duration
}

// NewXdotoolInspector constructs an XdotoolInspector, or an error when the
// xdotool binary is not on PATH.
func NewXdotoolInspector() (*XdotoolInspector, error) {
	if _, err := exec.LookPath("xdotool"); err != nil {
		return nil, fmt.Errorf("xdotool not available: %w", err)
	}
	return &XdotoolInspector{timeout: 2 * time.Second}, nil
}

// ActiveWindow returns the focused window's title and process name. The
// process lookup is best effort: maximized and kiosk windows often omit the
// application name from the title, so the process table is the only reliable
// signal there, but a failed lookup still yields the title.
func (x *XdotoolInspector) ActiveWindow(ctx context.Context) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "xdotool", "getactivewindow", "getwindowname").Output()
	if err != nil {
		return "", "", fmt.Errorf("failed to read active window: %w", err)
	}
	title := strings.TrimSpace(string(out))

	pidOut, err := exec.CommandContext(ctx, "xdotool", "getactivewindowpid").Output()
	if err != nil {
		return title, "", nil
	}
	comm, err := os.ReadFile(fmt.Sprintf("/proc/%s/comm", strings.TrimSpace(string(pidOut))))
	if err != nil {
		return title, "", nil
	}
	return title, strings.TrimSpace(string(comm)), nil
}
