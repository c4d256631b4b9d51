package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/firecorners/cornerd/internal/domain"
)

// AppKind launches an application by name ("Safari") or path ("/Applications/Safari.app").
type AppKind struct{}

// NewAppKind creates the app action kind.
func NewAppKind() *AppKind {
	return &AppKind{}
}

func (k *AppKind) Type() domain.ActionType {
	return domain.ActionApp
}

func (k *AppKind) Label() string {
	return domain.ActionApp.Label()
}

// Validate rejects multi-line values; an application name is a single line.
func (k *AppKind) Validate(value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: application name spans multiple lines", domain.ErrInvalidValue)
	}
	return nil
}

func (k *AppKind) Run(ctx context.Context, runner domain.ActionRunner, value string) error {
	return runner.LaunchApp(ctx, strings.TrimSpace(value))
}

// Ensure AppKind implements Kind.
var _ Kind = (*AppKind)(nil)
