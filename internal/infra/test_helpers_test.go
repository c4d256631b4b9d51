package infra

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
)

// mockProcessManager is a test double for ProcessManager
type mockProcessManager struct {
	runningPIDs    map[int]bool
	terminatedPIDs []int
}

func newMockProcessManager() *mockProcessManager {
	return &mockProcessManager{
		runningPIDs: make(map[int]bool),
	}
}

func (m *mockProcessManager) Terminate(pid int) error {
	m.terminatedPIDs = append(m.terminatedPIDs, pid)
	delete(m.runningPIDs, pid)
	return nil
}

func (m *mockProcessManager) Name(pid int) (string, error) {
	if m.runningPIDs[pid] {
		return "firecorners", nil
	}
	return "", errors.New("no such process")
}

func (m *mockProcessManager) IsRunning(pid int) bool {
	return m.runningPIDs[pid]
}

func (m *mockProcessManager) GetCurrentPID() int {
	return os.Getpid()
}

func (m *mockProcessManager) SetRunning(pid int, running bool) {
	m.runningPIDs[pid] = running
}

// mockCommandRunner records commands instead of executing them
type mockCommandRunner struct {
	mu       sync.Mutex
	commands []string
	started  []string
	errs     map[string]error // keyed by command name
	output   map[string][]byte
}

func newMockCommandRunner() *mockCommandRunner {
	return &mockCommandRunner{
		errs:   make(map[string]error),
		output: make(map[string][]byte),
	}
}

func (m *mockCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, name+" "+strings.Join(args, " "))
	return m.errs[name]
}

func (m *mockCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, name+" "+strings.Join(args, " "))
	return m.output[name], m.errs[name]
}

func (m *mockCommandRunner) Start(name string, args ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, name+" "+strings.Join(args, " "))
	return m.errs[name]
}

func (m *mockCommandRunner) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

func (m *mockCommandRunner) Started() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.started...)
}

// mockFileChecker reports a fixed set of paths as present
type mockFileChecker struct {
	existing map[string]bool
}

func (m *mockFileChecker) Exists(path string) bool {
	return m.existing[path]
}
