package usecase

import (
	"fmt"

	"github.com/firecorners/cornerd/internal/domain"
)

// SyncLoginItem makes the login item match enabled. It reports whether
// anything was written or removed.
func SyncLoginItem(manager domain.LoginItemManager, enabled bool, execPath string) (bool, error) {
	if !enabled {
		if !manager.IsInstalled() {
			return false, nil
		}
		if err := manager.Uninstall(); err != nil {
			return false, fmt.Errorf("failed to remove login item: %w", err)
		}
		return true, nil
	}

	if !manager.IsInstalled() {
		if err := manager.Install(execPath); err != nil {
			return false, fmt.Errorf("failed to install login item: %w", err)
		}
		return true, nil
	}

	if manager.NeedsUpdate(execPath) {
		if err := manager.Update(execPath); err != nil {
			return false, fmt.Errorf("failed to update login item: %w", err)
		}
		return true, nil
	}
	return false, nil
}
