package actions

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/firecorners/cornerd/internal/domain"
)

// URLKind opens a URL with the OS default handler.
type URLKind struct{}

// NewURLKind creates the url action kind.
func NewURLKind() *URLKind {
	return &URLKind{}
}

func (k *URLKind) Type() domain.ActionType {
	return domain.ActionURL
}

func (k *URLKind) Label() string {
	return domain.ActionURL.Label()
}

// Validate requires an absolute URL with a scheme (https:, mailto:, file:, ...).
func (k *URLKind) Validate(value string) error {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidValue, err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("%w: url %q has no scheme", domain.ErrInvalidValue, value)
	}
	return nil
}

func (k *URLKind) Run(ctx context.Context, runner domain.ActionRunner, value string) error {
	return runner.OpenURL(ctx, strings.TrimSpace(value))
}

// Ensure URLKind implements Kind.
var _ Kind = (*URLKind)(nil)
