//go:build darwin && cgo

package infra

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>

static int fc_pointer(double *x, double *y) {
	CGEventRef ev = CGEventCreate(NULL);
	if (ev == NULL) {
		return -1;
	}
	CGPoint p = CGEventGetLocation(ev);
	CFRelease(ev);
	*x = p.x;
	*y = p.y;
	return 0;
}

static void fc_main_display(double *w, double *h) {
	CGRect r = CGDisplayBounds(CGMainDisplayID());
	*w = r.size.width;
	*h = r.size.height;
}
*/
import "C"

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/domain"
)

// CoreGraphicsPointerSource queries the pointer and main display via CoreGraphics.
type CoreGraphicsPointerSource struct {
	logger *zap.Logger
}

// NewPointerSource returns the platform pointer source.
func NewPointerSource(logger *zap.Logger) domain.PointerSource {
	return &CoreGraphicsPointerSource{logger: logger}
}

// Position returns the pointer location in global display points.
func (p *CoreGraphicsPointerSource) Position() (domain.Point, error) {
	var x, y C.double
	if C.fc_pointer(&x, &y) != 0 {
		return domain.Point{}, fmt.Errorf("%w: CGEventCreate failed", domain.ErrPointerUnavailable)
	}
	return domain.Point{X: int(x), Y: int(y)}, nil
}

// DisplaySize returns the main display bounds in points.
func (p *CoreGraphicsPointerSource) DisplaySize() (domain.Size, error) {
	var w, h C.double
	C.fc_main_display(&w, &h)
	if w <= 0 || h <= 0 {
		return domain.Size{}, fmt.Errorf("%w: main display has no bounds", domain.ErrPointerUnavailable)
	}
	return domain.Size{Width: int(w), Height: int(h)}, nil
}
