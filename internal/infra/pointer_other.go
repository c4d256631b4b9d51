//go:build !linux && !(darwin && cgo)

package infra

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/domain"
)

// unsupportedPointerSource reports every sample as unavailable.
type unsupportedPointerSource struct{}

// NewPointerSource returns a source that always fails on this platform.
func NewPointerSource(logger *zap.Logger) domain.PointerSource {
	if logger != nil {
		logger.Warn("pointer tracking is not supported on this platform", zap.String("goos", runtime.GOOS))
	}
	return unsupportedPointerSource{}
}

func (unsupportedPointerSource) Position() (domain.Point, error) {
	return domain.Point{}, fmt.Errorf("%w: unsupported platform %s", domain.ErrPointerUnavailable, runtime.GOOS)
}

func (unsupportedPointerSource) DisplaySize() (domain.Size, error) {
	return domain.Size{}, fmt.Errorf("%w: unsupported platform %s", domain.ErrPointerUnavailable, runtime.GOOS)
}
