//go:build !windows && !darwin

package opener

import (
	"os"
	"os/exec"
)

func open(target string) error {
	return exec.Command("xdg-open", target).Start()
}

// X11 sets DISPLAY, Wayland sets WAYLAND_DISPLAY
func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
