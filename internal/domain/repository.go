package domain

import (
	"context"
	"time"
)

// PointerSource abstracts platform pointer and display queries.
// Implementations: CoreGraphics (darwin), X11 (linux), scripted (tests).
type PointerSource interface {
	// Position returns the pointer location in global display coordinates.
	Position() (Point, error)

	// DisplaySize returns the size of the primary display.
	DisplaySize() (Size, error)
}

// ActionRunner performs the OS side effect for each action kind.
// A nil error means the side effect was started (or completed) successfully.
type ActionRunner interface {
	// OpenURL opens value with the default URL handler.
	OpenURL(ctx context.Context, url string) error

	// LaunchApp launches an application by name or bundle path.
	LaunchApp(ctx context.Context, app string) error

	// RunShell runs a command line through the shell.
	RunShell(ctx context.Context, command string) error

	// RunScript runs an automation script given inline or as a file path.
	RunScript(ctx context.Context, script string) error
}

// ActionExecutor validates and dispatches actions, reporting results as values.
type ActionExecutor interface {
	// Execute runs a single action. It never panics or returns an error.
	Execute(ctx context.Context, corner Corner, action Action) ActionResult

	// ExecuteAll runs actions in order; a failure does not stop later actions.
	ExecuteAll(ctx context.Context, corner Corner, actions []Action) []ActionResult
}

// ConfigStore persists the configuration document.
// Implementation: JSON file at ~/.firecorners/config.json.
type ConfigStore interface {
	// Load returns the document, creating a default one when the file is
	// missing and falling back to defaults when it cannot be parsed.
	Load() *Document

	// Read returns the document or an error; it never writes.
	Read() (*Document, error)

	// Save validates, backfills and atomically writes the document.
	Save(doc *Document) error

	// ModTime returns the on-disk modification time of the document.
	ModTime() (time.Time, error)

	// Path returns the document path.
	Path() string
}

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool

	// Terminate sends SIGTERM to a process.
	Terminate(pid int) error

	// Name returns the executable name of a process.
	Name(pid int) (string, error)

	// GetCurrentPID returns the current process PID.
	GetCurrentPID() int
}

// LoginItemManager handles the per-user auto-start entry
// (LaunchAgent on macOS, XDG autostart on Linux).
type LoginItemManager interface {
	// Install writes and activates the entry.
	Install(execPath string) error

	// Uninstall deactivates and removes the entry.
	Uninstall() error

	// IsInstalled checks if the entry exists.
	IsInstalled() bool

	// NeedsUpdate checks if the entry exists but differs from what would be written.
	NeedsUpdate(execPath string) bool

	// Update rewrites the entry.
	Update(execPath string) error

	// GetPath returns the entry file path.
	GetPath() string
}

// InstanceRegistry enforces a single daemon per user and lets the CLI find it.
type InstanceRegistry interface {
	// Acquire takes the instance lock and records entry.
	// Returns ErrAlreadyRunning if another process holds the lock.
	Acquire(entry InstanceEntry) error

	// Release removes the record and drops the lock.
	Release() error

	// Get returns the recorded entry, or nil if none.
	Get() (*InstanceEntry, error)

	// IsAlive reports whether the recorded process is running.
	IsAlive() bool

	// GetRegistryPath returns the record file path (for tests).
	GetRegistryPath() string
}
