// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"context"
	"errors"
	"sync"

	"github.com/firecorners/cornerd/internal/domain"
)

// ErrSourceDown is returned by a ScriptedPointer while it is failing.
var ErrSourceDown = errors.New("pointer source unavailable")

// ScriptedPointer replays a path of pointer positions, one per sample.
// Once the path is exhausted the last position is held.
type ScriptedPointer struct {
	mu      sync.Mutex
	display domain.Size
	path    []domain.Point
	next    int
	failing bool
	samples int
}

// NewScriptedPointer creates a pointer on a display of the given size.
func NewScriptedPointer(width, height int, path ...domain.Point) *ScriptedPointer {
	if len(path) == 0 {
		path = []domain.Point{{X: width / 2, Y: height / 2}}
	}
	return &ScriptedPointer{display: domain.Size{Width: width, Height: height}, path: path}
}

// Position returns the next scripted position.
func (p *ScriptedPointer) Position() (domain.Point, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing {
		return domain.Point{}, ErrSourceDown
	}
	p.samples++
	pos := p.path[p.next]
	if p.next < len(p.path)-1 {
		p.next++
	}
	return pos, nil
}

// DisplaySize returns the configured display size.
func (p *ScriptedPointer) DisplaySize() (domain.Size, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing {
		return domain.Size{}, ErrSourceDown
	}
	return p.display, nil
}

// Replace restarts playback with a new path.
func (p *ScriptedPointer) Replace(path ...domain.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.path = path
	p.next = 0
}

// MoveTo holds the pointer at one position.
func (p *ScriptedPointer) MoveTo(x, y int) {
	p.Replace(domain.Point{X: x, Y: y})
}

// SetFailing makes every read fail until cleared.
func (p *ScriptedPointer) SetFailing(failing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing = failing
}

// Samples returns the number of successful position reads.
func (p *ScriptedPointer) Samples() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.samples
}

var _ domain.PointerSource = (*ScriptedPointer)(nil)

// RecordingRunner records actions instead of performing them.
type RecordingRunner struct {
	mu    sync.Mutex
	calls []domain.Action
	fail  map[string]error
}

// NewRecordingRunner creates an empty recorder.
func NewRecordingRunner() *RecordingRunner {
	return &RecordingRunner{fail: make(map[string]error)}
}

// FailOn makes the action with the given value return err.
func (r *RecordingRunner) FailOn(value string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[value] = err
}

func (r *RecordingRunner) record(t domain.ActionType, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, domain.Action{Type: t, Value: value})
	return r.fail[value]
}

func (r *RecordingRunner) OpenURL(_ context.Context, url string) error {
	return r.record(domain.ActionURL, url)
}

func (r *RecordingRunner) LaunchApp(_ context.Context, app string) error {
	return r.record(domain.ActionApp, app)
}

func (r *RecordingRunner) RunShell(_ context.Context, command string) error {
	return r.record(domain.ActionShell, command)
}

func (r *RecordingRunner) RunScript(_ context.Context, script string) error {
	return r.record(domain.ActionScript, script)
}

// Calls returns a copy of the recorded actions in order.
func (r *RecordingRunner) Calls() []domain.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Action(nil), r.calls...)
}

// Count returns how many actions were recorded.
func (r *RecordingRunner) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

var _ domain.ActionRunner = (*RecordingRunner)(nil)
