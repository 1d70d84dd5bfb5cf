//go:build unix

package pipeline

import (
	"os/exec"
	"syscall"
)

// exitCode reports the child's exit status, or 128+signal when a signal
// ended it.
func exitCode(err *exec.ExitError) int {
	if ws, ok := err.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return err.ExitCode()
}
