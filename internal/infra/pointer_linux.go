//go:build linux

package infra

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/domain"
)

// X11PointerSource reads the pointer and the primary monitor from the X server.
// Coordinates are reported relative to the primary monitor, found via RandR;
// without RandR the whole root window is used.
// The connection is opened lazily and dropped after a failed request so the
// next sample reconnects (e.g. after the X server restarts).
type X11PointerSource struct {
	mu       sync.Mutex
	xu       *xgbutil.XUtil
	root     xproto.Window
	hasRandr bool
	display  displayRect
	measured bool
	logger   *zap.Logger
}

// NewPointerSource returns the platform pointer source. It never fails;
// connection errors surface on the first sample.
func NewPointerSource(logger *zap.Logger) domain.PointerSource {
	return &X11PointerSource{logger: logger}
}

func (p *X11PointerSource) conn() (*xgbutil.XUtil, error) {
	if p.xu != nil {
		return p.xu, nil
	}
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("%w: x11 connect: %v", domain.ErrPointerUnavailable, err)
	}
	p.xu = xu
	p.root = xu.RootWin()
	p.hasRandr = randr.Init(xu.Conn()) == nil
	if p.logger != nil {
		p.logger.Debug("connected to X server", zap.Bool("randr", p.hasRandr))
	}
	return xu, nil
}

func (p *X11PointerSource) reset() {
	if p.xu != nil {
		p.xu.Conn().Close()
		p.xu = nil
	}
	p.measured = false
}

// primaryDisplay returns the primary monitor's area, or the root window
// geometry when RandR cannot tell.
func (p *X11PointerSource) primaryDisplay(xu *xgbutil.XUtil) (displayRect, error) {
	if p.hasRandr {
		if rect, ok := p.randrPrimary(xu); ok {
			return rect, nil
		}
	}
	geom, err := xproto.GetGeometry(xu.Conn(), xproto.Drawable(p.root)).Reply()
	if err != nil {
		return displayRect{}, err
	}
	return displayRect{Width: int(geom.Width), Height: int(geom.Height)}, nil
}

func (p *X11PointerSource) randrPrimary(xu *xgbutil.XUtil) (displayRect, bool) {
	c := xu.Conn()
	primary, err := randr.GetOutputPrimary(c, p.root).Reply()
	if err != nil {
		return displayRect{}, false
	}
	resources, err := randr.GetScreenResources(c, p.root).Reply()
	if err != nil {
		return displayRect{}, false
	}

	crtcs := make([]crtcArea, 0, len(resources.Crtcs))
	for _, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		crtcs = append(crtcs, crtcArea{
			rect: displayRect{
				X:      int(info.X),
				Y:      int(info.Y),
				Width:  int(info.Width),
				Height: int(info.Height),
			},
			outputs: info.Outputs,
		})
	}
	return pickPrimary(crtcs, primary.Output)
}

// Position returns the pointer location relative to the primary monitor.
// It uses the monitor measured by the last DisplaySize call.
func (p *X11PointerSource) Position() (domain.Point, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	xu, err := p.conn()
	if err != nil {
		return domain.Point{}, err
	}
	if !p.measured {
		rect, err := p.primaryDisplay(xu)
		if err != nil {
			p.reset()
			return domain.Point{}, fmt.Errorf("%w: display geometry: %v", domain.ErrPointerUnavailable, err)
		}
		p.display, p.measured = rect, true
	}
	reply, err := xproto.QueryPointer(xu.Conn(), p.root).Reply()
	if err != nil {
		p.reset()
		return domain.Point{}, fmt.Errorf("%w: query pointer: %v", domain.ErrPointerUnavailable, err)
	}
	return p.display.translate(int(reply.RootX), int(reply.RootY)), nil
}

// DisplaySize measures the primary monitor.
func (p *X11PointerSource) DisplaySize() (domain.Size, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	xu, err := p.conn()
	if err != nil {
		return domain.Size{}, err
	}
	rect, err := p.primaryDisplay(xu)
	if err != nil {
		p.reset()
		return domain.Size{}, fmt.Errorf("%w: display geometry: %v", domain.ErrPointerUnavailable, err)
	}
	p.display, p.measured = rect, true
	return rect.size(), nil
}

// Close disconnects from the X server.
func (p *X11PointerSource) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
