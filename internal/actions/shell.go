package actions

import (
	"context"

	"github.com/firecorners/cornerd/internal/domain"
)

// ShellKind runs a command line through the shell.
type ShellKind struct{}

// NewShellKind creates the shell action kind.
func NewShellKind() *ShellKind {
	return &ShellKind{}
}

func (k *ShellKind) Type() domain.ActionType {
	return domain.ActionShell
}

func (k *ShellKind) Label() string {
	return domain.ActionShell.Label()
}

// Validate accepts any non-empty command line; the shell is the parser.
func (k *ShellKind) Validate(value string) error {
	return nil
}

func (k *ShellKind) Run(ctx context.Context, runner domain.ActionRunner, value string) error {
	return runner.RunShell(ctx, value)
}

// Ensure ShellKind implements Kind.
var _ Kind = (*ShellKind)(nil)
