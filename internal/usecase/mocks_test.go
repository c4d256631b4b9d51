package usecase

import (
	"context"
	"sync"

	"github.com/firecorners/cornerd/internal/domain"
)

// mockRunner implements domain.ActionRunner for testing.
type mockRunner struct {
	mu      sync.Mutex
	calls   []domain.Action
	errs    map[domain.ActionType]error
	panicOn domain.ActionType
	block   chan struct{}
	lastCtx context.Context
}

func (m *mockRunner) record(t domain.ActionType, ctx context.Context, value string) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	m.calls = append(m.calls, domain.Action{Type: t, Value: value})
	m.lastCtx = ctx
	m.mu.Unlock()
	if t == m.panicOn {
		panic("boom")
	}
	return m.errs[t]
}

func (m *mockRunner) OpenURL(ctx context.Context, url string) error {
	return m.record(domain.ActionURL, ctx, url)
}

func (m *mockRunner) LaunchApp(ctx context.Context, app string) error {
	return m.record(domain.ActionApp, ctx, app)
}

func (m *mockRunner) RunShell(ctx context.Context, command string) error {
	return m.record(domain.ActionShell, ctx, command)
}

func (m *mockRunner) RunScript(ctx context.Context, script string) error {
	return m.record(domain.ActionScript, ctx, script)
}

func (m *mockRunner) Calls() []domain.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Action, len(m.calls))
	copy(out, m.calls)
	return out
}
