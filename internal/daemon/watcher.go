package daemon

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/domain"
)

// ConfigWatcher polls the document's modification time and publishes a
// freshly read document when it advances. A failed read keeps the active
// document.
type ConfigWatcher struct {
	store     domain.ConfigStore
	holder    *ConfigHolder
	interval  time.Duration
	overrides SettingsOverride
	logger    *zap.Logger

	mu      sync.Mutex
	lastMod time.Time

	// Serialises read+publish so an older read never replaces a newer one.
	reloadMu sync.Mutex
}

// NewConfigWatcher creates a watcher publishing into holder.
func NewConfigWatcher(store domain.ConfigStore, holder *ConfigHolder, interval time.Duration, overrides SettingsOverride, logger *zap.Logger) *ConfigWatcher {
	return &ConfigWatcher{
		store:     store,
		holder:    holder,
		interval:  interval,
		overrides: overrides,
		logger:    logger,
	}
}

// Prime records the modification time the current document was read at.
func (w *ConfigWatcher) Prime(mod time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastMod = mod
}

// Publish applies overrides to doc and makes it the active document.
func (w *ConfigWatcher) Publish(doc *domain.Document) *domain.Document {
	effective := doc.Clone()
	effective.Settings = w.overrides.Apply(effective.Settings)
	w.holder.Swap(effective)
	return effective
}

// Run polls until ctx is canceled.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("config watcher stopping")
			return nil
		case <-ticker.C:
			if _, err := w.Check(); err != nil {
				w.logger.Warn("config reload failed, keeping previous config", zap.Error(err))
			}
		}
	}
}

// Check reloads when the file's modification time has advanced.
// It reports whether a new document was published.
func (w *ConfigWatcher) Check() (bool, error) {
	mod, err := w.store.ModTime()
	if err != nil {
		w.logger.Debug("config stat failed", zap.String("path", w.store.Path()), zap.Error(err))
		return false, nil
	}

	w.mu.Lock()
	changed := mod.After(w.lastMod)
	if changed {
		// Recorded even if the read fails, so a broken file is reported once
		w.lastMod = mod
	}
	w.mu.Unlock()

	if !changed {
		return false, nil
	}
	w.logger.Info("config file changed", zap.Time("mtime", mod))
	if err := w.reload(); err != nil {
		return false, err
	}
	return true, nil
}

// Reload reads and publishes the document regardless of its modification time.
func (w *ConfigWatcher) Reload() error {
	if mod, err := w.store.ModTime(); err == nil {
		w.Prime(mod)
	}
	return w.reload()
}

func (w *ConfigWatcher) reload() error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	doc, err := w.store.Read()
	if err != nil {
		return err
	}
	effective := w.Publish(doc)
	w.logger.Info("config reloaded",
		zap.Int("actions", effective.ActionCount()),
		zap.Int("threshold", effective.Settings.Threshold),
		zap.Float64("dwell", float64(effective.Settings.Dwell)),
		zap.Float64("cooldown", float64(effective.Settings.Cooldown)))
	return nil
}
