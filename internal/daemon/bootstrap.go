package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// StartDetached spawns `execPath args...` as a daemon detached from the
// parent process (new session, no stdio) and returns its PID.
// The daemon writes its own log files.
func StartDetached(execPath string, args ...string) (int, error) {
	cmd := exec.Command(execPath, args...)

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session (detach from terminal)
	}

	// No stdin/stdout/stderr - fully detached
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", execPath, err)
	}
	pid := cmd.Process.Pid

	// Reap if the child exits while we are still alive
	go func() { _ = cmd.Wait() }()
	return pid, nil
}

// ExecutablePath returns the resolved path of the running binary.
func ExecutablePath() (string, error) {
	p, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved, nil
	}
	return p, nil
}
