package usecase

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/actions"
	"github.com/firecorners/cornerd/internal/domain"
)

// PreflightReport summarises a self-test of the configured actions.
type PreflightReport struct {
	Checked int
	Invalid []domain.ActionResult
}

// Preflight validates every configured action without running any of them.
// The returned error aggregates one entry per invalid action.
func Preflight(doc *domain.Document, registry *actions.Registry, logger *zap.Logger) (PreflightReport, error) {
	var report PreflightReport
	var errs error

	for _, corner := range domain.AllCorners {
		list := doc.Actions(corner)
		if len(list) == 0 {
			continue
		}
		logger.Info("testing actions", zap.String("corner", corner.String()), zap.Int("count", len(list)))

		for i, action := range list {
			report.Checked++
			if _, err := registry.Validate(action); err != nil {
				logger.Warn("invalid action",
					zap.String("corner", corner.String()),
					zap.Int("index", i),
					zap.String("action_type", string(action.Type)),
					zap.Error(err))
				report.Invalid = append(report.Invalid, domain.ActionResult{
					Corner:     corner,
					Action:     action,
					Validation: true,
					Err:        err,
					Message:    err.Error(),
				})
				errs = multierr.Append(errs, fmt.Errorf("%s[%d]: %w", corner, i, err))
				continue
			}
			logger.Info("action ok",
				zap.String("corner", corner.String()),
				zap.String("action_type", string(action.Type)),
				zap.String("value", action.Value))
		}
	}

	return report, errs
}
