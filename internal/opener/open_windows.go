//go:build windows

package opener

import "os/exec"

func open(target string) error {
	return exec.Command("rundll32", "url.dll,FileProtocolHandler", target).Start()
}

func hasDisplay() bool {
	return true
}
