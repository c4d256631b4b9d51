package daemon

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/firecorners/cornerd/internal/domain"
)

// memStore is an in-memory domain.ConfigStore.
type memStore struct {
	mu      sync.Mutex
	doc     *domain.Document
	modTime time.Time
	readErr error
	loads   int
}

func newMemStore(doc *domain.Document) *memStore {
	return &memStore{doc: doc, modTime: time.Unix(1000, 0)}
}

func (m *memStore) Load() *domain.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.doc == nil || m.readErr != nil {
		return domain.DefaultDocument()
	}
	return m.doc.Clone()
}

func (m *memStore) Read() (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	if m.doc == nil {
		return nil, os.ErrNotExist
	}
	return m.doc.Clone(), nil
}

func (m *memStore) Save(doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc.Clone()
	m.modTime = m.modTime.Add(time.Second)
	return nil
}

func (m *memStore) ModTime() (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// A malformed file still has a modification time
	if m.doc == nil && m.readErr == nil {
		return time.Time{}, os.ErrNotExist
	}
	return m.modTime, nil
}

func (m *memStore) Path() string { return "/mem/config.json" }

// write simulates an external edit of the file.
func (m *memStore) write(doc *domain.Document, readErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc
	m.readErr = readErr
	m.modTime = m.modTime.Add(time.Second)
}

// fixedSource reports a settable pointer position.
type fixedSource struct {
	mu      sync.Mutex
	pos     domain.Point
	size    domain.Size
	failing bool
	calls   int
}

func newFixedSource(x, y int) *fixedSource {
	return &fixedSource{pos: domain.Point{X: x, Y: y}, size: domain.Size{Width: 1920, Height: 1080}}
}

func (f *fixedSource) Position() (domain.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failing {
		return domain.Point{}, domain.ErrPointerUnavailable
	}
	return f.pos, nil
}

func (f *fixedSource) DisplaySize() (domain.Size, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return domain.Size{}, errors.New("no display")
	}
	return f.size, nil
}

func (f *fixedSource) moveTo(x, y int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pos = domain.Point{X: x, Y: y}
}

func (f *fixedSource) setFailing(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = v
}

// recordingRunner records every action it is asked to run.
type recordingRunner struct {
	mu    sync.Mutex
	calls []domain.Action
}

func (r *recordingRunner) add(t domain.ActionType, v string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, domain.Action{Type: t, Value: v})
	return nil
}

func (r *recordingRunner) OpenURL(_ context.Context, v string) error {
	return r.add(domain.ActionURL, v)
}

func (r *recordingRunner) LaunchApp(_ context.Context, v string) error {
	return r.add(domain.ActionApp, v)
}

func (r *recordingRunner) RunShell(_ context.Context, v string) error {
	return r.add(domain.ActionShell, v)
}

func (r *recordingRunner) RunScript(_ context.Context, v string) error {
	return r.add(domain.ActionScript, v)
}

func (r *recordingRunner) Calls() []domain.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Action(nil), r.calls...)
}

func (r *recordingRunner) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func docWith(corner domain.Corner, settings domain.Settings, actions ...domain.Action) *domain.Document {
	doc := domain.DefaultDocument()
	doc.Settings = settings
	doc.SetActions(corner, actions)
	return doc
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.ActiveInterval = 5 * time.Millisecond
	cfg.IdleInterval = 5 * time.Millisecond
	cfg.ConfigCheckInterval = 20 * time.Millisecond
	cfg.BackoffInterval = 50 * time.Millisecond
	cfg.StopGrace = time.Second
	return cfg
}

// fakeLoginItems is an in-memory domain.LoginItemManager.
type fakeLoginItems struct {
	mu        sync.Mutex
	installed bool
	execPath  string
}

func (f *fakeLoginItems) Install(execPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installed, f.execPath = true, execPath
	return nil
}

func (f *fakeLoginItems) Uninstall() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installed = false
	return nil
}

func (f *fakeLoginItems) IsInstalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.installed
}

func (f *fakeLoginItems) NeedsUpdate(execPath string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.installed && f.execPath != execPath
}

func (f *fakeLoginItems) Update(execPath string) error { return f.Install(execPath) }

func (f *fakeLoginItems) GetPath() string { return "/mem/login-item" }
