// Package actions implements the Strategy pattern for action kinds.
// Each kind (url, app, shell, script) validates its own value and maps onto
// the matching ActionRunner capability.
package actions

import (
	"context"

	"github.com/firecorners/cornerd/internal/domain"
)

// Kind defines the strategy interface for one action type.
type Kind interface {
	// Type returns the canonical action type (e.g., "url", "shell").
	Type() domain.ActionType

	// Label returns the human-readable name shown by the editor.
	Label() string

	// Validate checks a value beyond the generic non-empty rule.
	Validate(value string) error

	// Run performs the side effect through runner.
	Run(ctx context.Context, runner domain.ActionRunner, value string) error
}
