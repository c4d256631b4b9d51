package actions

import (
	"context"

	"github.com/firecorners/cornerd/internal/domain"
)

// ScriptKind runs an automation script, either inline source or a file path.
type ScriptKind struct{}

// NewScriptKind creates the script action kind.
func NewScriptKind() *ScriptKind {
	return &ScriptKind{}
}

func (k *ScriptKind) Type() domain.ActionType {
	return domain.ActionScript
}

func (k *ScriptKind) Label() string {
	return domain.ActionScript.Label()
}

func (k *ScriptKind) Validate(value string) error {
	return nil
}

func (k *ScriptKind) Run(ctx context.Context, runner domain.ActionRunner, value string) error {
	return runner.RunScript(ctx, value)
}

// Ensure ScriptKind implements Kind.
var _ Kind = (*ScriptKind)(nil)
