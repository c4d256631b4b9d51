// Package usecase contains application business logic.
package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/actions"
	"github.com/firecorners/cornerd/internal/domain"
)

// DefaultActionTimeout bounds a single action run.
const DefaultActionTimeout = 60 * time.Second

type triggerIDKey struct{}

// WithTriggerID tags ctx with the id of the trigger that caused a dispatch.
func WithTriggerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, triggerIDKey{}, id)
}

// TriggerIDFrom returns the trigger id stored in ctx, if any.
func TriggerIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(triggerIDKey{}).(string)
	return id
}

// ExecutorImpl implements domain.ActionExecutor.
type ExecutorImpl struct {
	registry *actions.Registry
	runner   domain.ActionRunner
	timeout  time.Duration
	logger   *zap.Logger
}

// NewExecutor creates an executor with the default action timeout.
func NewExecutor(registry *actions.Registry, runner domain.ActionRunner, logger *zap.Logger) *ExecutorImpl {
	return NewExecutorWithTimeout(registry, runner, DefaultActionTimeout, logger)
}

// NewExecutorWithTimeout creates an executor with a custom per-action timeout.
// A zero timeout disables the bound.
func NewExecutorWithTimeout(registry *actions.Registry, runner domain.ActionRunner, timeout time.Duration, logger *zap.Logger) *ExecutorImpl {
	return &ExecutorImpl{
		registry: registry,
		runner:   runner,
		timeout:  timeout,
		logger:   logger,
	}
}

// Execute validates and runs a single action.
func (e *ExecutorImpl) Execute(ctx context.Context, corner domain.Corner, action domain.Action) (result domain.ActionResult) {
	start := time.Now()
	result = domain.ActionResult{
		Corner:     corner,
		Action:     action,
		TriggerID:  TriggerIDFrom(ctx),
		ExecutedAt: start,
	}

	fields := []zap.Field{
		zap.String("corner", corner.String()),
		zap.String("action_type", string(action.Type)),
		zap.String("value", action.Value),
	}
	if result.TriggerID != "" {
		fields = append(fields, zap.String("trigger_id", result.TriggerID))
	}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Err = fmt.Errorf("action runner panicked: %v", r)
			result.Message = result.Err.Error()
			e.logger.Error("action panicked", append(fields, zap.Any("panic", r))...)
		}
		result.DurationMs = time.Since(start).Milliseconds()
	}()

	kind, err := e.registry.Validate(action)
	if err != nil {
		result.Validation = true
		result.Err = err
		result.Message = err.Error()
		e.logger.Warn("invalid action rejected", append(fields, zap.Error(err))...)
		return result
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.logger.Info("executing action", fields...)
	if err := kind.Run(runCtx, e.runner, action.Value); err != nil {
		result.Err = err
		result.Message = err.Error()
		e.logger.Error("action failed", append(fields, zap.Error(err))...)
		return result
	}

	result.Success = true
	result.Message = fmt.Sprintf("%s action completed", kind.Label())
	e.logger.Info("action executed successfully", fields...)
	return result
}

// ExecuteAll runs actions in document order. Each action is independent.
func (e *ExecutorImpl) ExecuteAll(ctx context.Context, corner domain.Corner, actions []domain.Action) []domain.ActionResult {
	results := make([]domain.ActionResult, 0, len(actions))
	for _, action := range actions {
		results = append(results, e.Execute(ctx, corner, action))
	}
	return results
}

// Ensure ExecutorImpl implements domain.ActionExecutor.
var _ domain.ActionExecutor = (*ExecutorImpl)(nil)
