package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/actions"
	"github.com/firecorners/cornerd/internal/domain"
)

func TestPreflight_AllValid(t *testing.T) {
	doc := domain.DefaultDocument()
	doc.TopLeft = []domain.Action{{Type: domain.ActionURL, Value: "https://example.com"}}
	doc.BottomRight = []domain.Action{{Type: domain.ActionShell, Value: "echo hi"}}

	report, err := Preflight(doc, actions.NewRegistry(), zap.NewNop())
	assert.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Empty(t, report.Invalid)
}

func TestPreflight_ReportsEveryInvalidAction(t *testing.T) {
	doc := domain.DefaultDocument()
	doc.TopLeft = []domain.Action{
		{Type: domain.ActionURL, Value: ""},
		{Type: domain.ActionURL, Value: "https://example.com"},
	}
	doc.TopRight = []domain.Action{{Type: "fax", Value: "555"}}

	report, err := Preflight(doc, actions.NewRegistry(), zap.NewNop())
	assert.Error(t, err)
	assert.Equal(t, 3, report.Checked)
	assert.Len(t, report.Invalid, 2)
	assert.Len(t, multierr.Errors(err), 2)
	assert.True(t, errors.Is(err, domain.ErrEmptyValue))
	assert.True(t, errors.Is(err, domain.ErrUnknownActionType))
	assert.Contains(t, err.Error(), "top_left[0]")
}
