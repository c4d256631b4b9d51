package infra

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/domain"
)

// commandWaitDelay bounds how long Wait blocks on pipes still held by
// children a shell command put in the background.
const commandWaitDelay = 2 * time.Second

// CommandRunner abstracts command execution for testing
type CommandRunner interface {
	// Run executes a command and waits for it to complete.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes a command and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// Start launches a command in its own session without waiting.
	Start(name string, args ...string) error
}

// ExecCommandRunner executes real system commands
type ExecCommandRunner struct{}

// Run executes a command and waits for it to complete.
// A non-zero exit is reported with the command's stderr.
func (r *ExecCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = commandWaitDelay

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Output executes a command and returns its stdout
func (r *ExecCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = commandWaitDelay
	return cmd.Output()
}

// Start launches a command detached from the daemon and reaps it in the background.
func (r *ExecCommandRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// FileChecker abstracts file system checks for testing
type FileChecker interface {
	Exists(path string) bool
}

// RealFileChecker checks real filesystem
type RealFileChecker struct{}

// Exists checks if a file/directory exists
func (r *RealFileChecker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// OSActionRunner implements domain.ActionRunner with platform commands:
// open/osascript on macOS, xdg-open and sh elsewhere.
type OSActionRunner struct {
	goos        string
	cmdRunner   CommandRunner
	fileChecker FileChecker
	logger      *zap.Logger
}

// NewOSActionRunner creates a runner for the current platform.
func NewOSActionRunner(logger *zap.Logger) *OSActionRunner {
	return NewOSActionRunnerWithDeps(runtime.GOOS, &ExecCommandRunner{}, &RealFileChecker{}, logger)
}

// NewOSActionRunnerWithDeps creates a runner with injectable dependencies (for testing)
func NewOSActionRunnerWithDeps(goos string, cmdRunner CommandRunner, fileChecker FileChecker, logger *zap.Logger) *OSActionRunner {
	return &OSActionRunner{
		goos:        goos,
		cmdRunner:   cmdRunner,
		fileChecker: fileChecker,
		logger:      logger,
	}
}

// OpenURL opens url with the default handler.
func (r *OSActionRunner) OpenURL(ctx context.Context, url string) error {
	if r.goos == "darwin" {
		return r.run(ctx, "open", url)
	}
	return r.run(ctx, "xdg-open", url)
}

// LaunchApp launches an application. On macOS a bare name resolves to
// /Applications/<name>.app when present, otherwise `open -a` searches for it.
func (r *OSActionRunner) LaunchApp(ctx context.Context, app string) error {
	if r.goos == "darwin" {
		if filepath.IsAbs(app) {
			return r.run(ctx, "open", app)
		}
		name := strings.TrimSuffix(app, ".app")
		bundle := filepath.Join("/Applications", name+".app")
		if r.fileChecker.Exists(bundle) {
			return r.run(ctx, "open", bundle)
		}
		return r.run(ctx, "open", "-a", name)
	}

	r.logDebug("starting application", zap.String("app", app))
	return r.cmdRunner.Start(app)
}

// RunShell runs command through /bin/sh and waits for it.
func (r *OSActionRunner) RunShell(ctx context.Context, command string) error {
	return r.run(ctx, "/bin/sh", "-c", command)
}

// RunScript runs an automation script given as a file path or inline source.
// macOS uses osascript; other platforms treat the script as shell.
func (r *OSActionRunner) RunScript(ctx context.Context, script string) error {
	isFile := isScriptFile(script) || (filepath.IsAbs(script) && r.fileChecker.Exists(script))

	if r.goos == "darwin" {
		if isFile {
			return r.run(ctx, "osascript", script)
		}
		return r.run(ctx, "osascript", "-e", script)
	}

	if isFile {
		return r.run(ctx, "/bin/sh", script)
	}
	return r.run(ctx, "/bin/sh", "-c", script)
}

func (r *OSActionRunner) run(ctx context.Context, name string, args ...string) error {
	r.logDebug("running command", zap.String("cmd", name), zap.Strings("args", args))
	return r.cmdRunner.Run(ctx, name, args...)
}

func isScriptFile(script string) bool {
	if strings.ContainsAny(script, "\n") {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(script))
	return strings.HasSuffix(lower, ".scpt") || strings.HasSuffix(lower, ".applescript")
}

func (r *OSActionRunner) logDebug(msg string, fields ...zap.Field) {
	if r.logger != nil {
		r.logger.Debug(msg, fields...)
	}
}

// Ensure OSActionRunner implements domain.ActionRunner.
var _ domain.ActionRunner = (*OSActionRunner)(nil)
