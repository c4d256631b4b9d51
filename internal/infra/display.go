package infra

import (
	"github.com/BurntSushi/xgb/randr"

	"github.com/firecorners/cornerd/internal/domain"
)

// displayRect is a monitor's area in root window coordinates.
type displayRect struct {
	X, Y          int
	Width, Height int
}

func (r displayRect) size() domain.Size {
	return domain.Size{Width: r.Width, Height: r.Height}
}

func (r displayRect) contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// translate maps a root position into display coordinates. A position on
// another monitor is reported at the display centre, which is in no corner.
func (r displayRect) translate(x, y int) domain.Point {
	if !r.contains(x, y) {
		return domain.Point{X: r.Width / 2, Y: r.Height / 2}
	}
	return domain.Point{X: x - r.X, Y: y - r.Y}
}

// crtcArea is the part of a RandR CRTC reply used to find the primary display.
type crtcArea struct {
	rect    displayRect
	outputs []randr.Output
}

func (c crtcArea) active() bool {
	return c.rect.Width > 0 && c.rect.Height > 0 && len(c.outputs) > 0
}

// pickPrimary returns the CRTC driving primary, or the first active CRTC
// when no primary output is set.
func pickPrimary(crtcs []crtcArea, primary randr.Output) (displayRect, bool) {
	var first *crtcArea
	for i := range crtcs {
		c := &crtcs[i]
		if !c.active() {
			continue
		}
		if first == nil {
			first = c
		}
		if primary == 0 {
			continue
		}
		for _, o := range c.outputs {
			if o == primary {
				return c.rect, true
			}
		}
	}
	if first == nil {
		return displayRect{}, false
	}
	return first.rect, true
}
