package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/domain"
)

func TestDispatcher_RunsInBackground(t *testing.T) {
	runner := &mockRunner{block: make(chan struct{})}
	d := NewDispatcher(newTestExecutor(runner), zap.NewNop())

	id, ok := d.Dispatch(domain.CornerTopLeft, []domain.Action{{Type: domain.ActionShell, Value: "sleep 10"}})
	require.True(t, ok)
	assert.NotEmpty(t, id)

	// Dispatch returned while the action is still blocked.
	assert.True(t, d.InFlight(domain.CornerTopLeft))

	close(runner.block)
	require.NoError(t, d.Wait(context.Background()))
	assert.False(t, d.InFlight(domain.CornerTopLeft))
	assert.Len(t, runner.Calls(), 1)
}

func TestDispatcher_OneBatchPerCorner(t *testing.T) {
	runner := &mockRunner{block: make(chan struct{})}
	d := NewDispatcher(newTestExecutor(runner), zap.NewNop())
	batch := []domain.Action{{Type: domain.ActionShell, Value: "sleep 10"}}

	_, ok := d.Dispatch(domain.CornerTopLeft, batch)
	require.True(t, ok)

	_, ok = d.Dispatch(domain.CornerTopLeft, batch)
	assert.False(t, ok, "second batch for the same corner must be skipped")

	_, ok = d.Dispatch(domain.CornerBottomRight, batch)
	assert.True(t, ok, "other corners are independent")

	close(runner.block)
	require.NoError(t, d.Wait(context.Background()))
	assert.Len(t, runner.Calls(), 2)
}

func TestDispatcher_ClosedRejectsNewBatches(t *testing.T) {
	runner := &mockRunner{block: make(chan struct{})}
	d := NewDispatcher(newTestExecutor(runner), zap.NewNop())
	batch := []domain.Action{{Type: domain.ActionShell, Value: "sleep 10"}}

	_, ok := d.Dispatch(domain.CornerTopLeft, batch)
	require.True(t, ok)

	d.Close()
	assert.True(t, d.Closed())

	id, ok := d.Dispatch(domain.CornerBottomLeft, batch)
	assert.False(t, ok)
	assert.Empty(t, id)
	assert.False(t, d.InFlight(domain.CornerBottomLeft))

	// The batch started before Close still finishes.
	close(runner.block)
	require.NoError(t, d.Wait(context.Background()))
	assert.Len(t, runner.Calls(), 1)
}

func TestDispatcher_EmptyBatch(t *testing.T) {
	runner := &mockRunner{}
	d := NewDispatcher(newTestExecutor(runner), zap.NewNop())

	id, ok := d.Dispatch(domain.CornerTopLeft, nil)
	assert.True(t, ok)
	assert.NotEmpty(t, id)
	assert.False(t, d.InFlight(domain.CornerTopLeft))
}

func TestDispatcher_ResultHandler(t *testing.T) {
	runner := &mockRunner{}
	d := NewDispatcher(newTestExecutor(runner), zap.NewNop())

	var mu sync.Mutex
	var got []domain.ActionResult
	var gotID string
	d.OnResult(func(corner domain.Corner, triggerID string, results []domain.ActionResult) {
		mu.Lock()
		defer mu.Unlock()
		got = results
		gotID = triggerID
	})

	id, ok := d.Dispatch(domain.CornerTopRight, []domain.Action{
		{Type: domain.ActionURL, Value: ""},
		{Type: domain.ActionURL, Value: "https://example.com"},
	})
	require.True(t, ok)
	require.NoError(t, d.Wait(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, id, gotID)
	assert.Equal(t, id, got[1].TriggerID)
	assert.True(t, got[0].Validation)
	assert.True(t, got[1].Success)
}

func TestDispatcher_WaitHonoursContext(t *testing.T) {
	runner := &mockRunner{block: make(chan struct{})}
	defer close(runner.block)
	d := NewDispatcher(newTestExecutor(runner), zap.NewNop())

	_, ok := d.Dispatch(domain.CornerTopLeft, []domain.Action{{Type: domain.ActionShell, Value: "sleep 10"}})
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Wait(ctx), context.DeadlineExceeded)
}
