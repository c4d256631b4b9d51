package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/firecorners/cornerd/internal/domain"
)

// InstanceEntryVersion is the current daemon.json schema version.
const InstanceEntryVersion = 1

// FileInstanceRegistry implements domain.InstanceRegistry with an flock-held
// lock file and a JSON record next to it.
type FileInstanceRegistry struct {
	path           string
	lock           *flock.Flock
	processManager domain.ProcessManager

	mu   sync.Mutex
	held bool
}

// NewFileInstanceRegistry creates a registry using the lock and record paths.
func NewFileInstanceRegistry(lockPath, path string, pm domain.ProcessManager) *FileInstanceRegistry {
	return &FileInstanceRegistry{
		path:           path,
		lock:           flock.New(lockPath),
		processManager: pm,
	}
}

// GetRegistryPath returns the record file path.
func (r *FileInstanceRegistry) GetRegistryPath() string {
	return r.path
}

// Acquire takes the lock without blocking and records entry.
func (r *FileInstanceRegistry) Acquire(entry domain.InstanceEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.Version == 0 {
		entry.Version = InstanceEntryVersion
	}
	if r.held {
		return r.atomicWrite(entry)
	}

	if err := os.MkdirAll(filepath.Dir(r.lock.Path()), 0755); err != nil {
		return fmt.Errorf("failed to create lock dir: %w", err)
	}

	locked, err := r.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return domain.ErrAlreadyRunning
	}
	r.held = true

	if err := r.atomicWrite(entry); err != nil {
		_ = r.lock.Unlock()
		r.held = false
		return err
	}
	return nil
}

// Release removes the record and drops the lock. Safe to call when not held.
func (r *FileInstanceRegistry) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.held {
		return nil
	}
	r.held = false

	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		_ = r.lock.Unlock()
		return err
	}
	return r.lock.Unlock()
}

// Get returns the recorded entry, or nil if no daemon has recorded one.
func (r *FileInstanceRegistry) Get() (*domain.InstanceEntry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entry domain.InstanceEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// IsAlive reports whether the recorded daemon process is running.
func (r *FileInstanceRegistry) IsAlive() bool {
	entry, err := r.Get()
	if err != nil || entry == nil || entry.PID == 0 {
		return false
	}
	return r.processManager.IsRunning(entry.PID)
}

// atomicWrite writes the record to file atomically (write + rename).
func (r *FileInstanceRegistry) atomicWrite(entry domain.InstanceEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	// Unique per process to avoid races with a concurrent CLI
	tmpPath := fmt.Sprintf("%s.%d.tmp", r.path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath) // Clean up on failure
		return err
	}
	return nil
}

// Ensure FileInstanceRegistry implements domain.InstanceRegistry.
var _ domain.InstanceRegistry = (*FileInstanceRegistry)(nil)
