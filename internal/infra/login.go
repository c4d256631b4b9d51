package infra

import (
	"runtime"

	"github.com/firecorners/cornerd/internal/domain"
)

// NewLoginItemManager returns the login item manager for the current platform.
// activate controls whether launchctl is invoked on macOS; other platforms
// only write files.
func NewLoginItemManager(p *Paths, activate bool) domain.LoginItemManager {
	if runtime.GOOS == "darwin" {
		return NewLaunchdManager(p, &ExecCommandRunner{}, activate)
	}
	return NewXDGAutostartManager(p)
}
