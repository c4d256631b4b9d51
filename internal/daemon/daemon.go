package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/actions"
	"github.com/firecorners/cornerd/internal/domain"
	"github.com/firecorners/cornerd/internal/usecase"
)

// Deps are the collaborators the daemon is built from.
type Deps struct {
	Store      domain.ConfigStore
	Source     domain.PointerSource
	Runner     domain.ActionRunner
	LoginItems domain.LoginItemManager // optional
}

// Status describes the running daemon.
type Status struct {
	PID            int                  `json:"pid"`
	AppVersion     string               `json:"app_version,omitempty"`
	Running        bool                 `json:"running"`
	Paused         bool                 `json:"paused"`
	Corner         string               `json:"corner"`
	Position       domain.Point         `json:"position"`
	Display        domain.Size          `json:"display"`
	StartedAt      time.Time            `json:"started_at"`
	UptimeSeconds  float64              `json:"uptime_seconds"`
	ConfigPath     string               `json:"config_path"`
	Actions        int                  `json:"actions"`
	Settings       domain.Settings      `json:"settings"`
	LastTrigger    map[string]time.Time `json:"last_trigger,omitempty"`
	SampleFailures int                  `json:"sample_failures"`
}

var (
	// ErrAlreadyStarted is returned by Run when the daemon is already running.
	ErrAlreadyStarted = errors.New("daemon already started")

	// ErrDaemonStopped is returned by Run after Stop; a daemon cannot be restarted.
	ErrDaemonStopped = errors.New("daemon stopped")
)

// Daemon wires the sampler, the config watcher and the action dispatcher,
// and exposes the control surface used by the IPC server.
type Daemon struct {
	config     Config
	store      domain.ConfigStore
	registry   *actions.Registry
	dispatcher *usecase.Dispatcher
	holder     *ConfigHolder
	watcher    *ConfigWatcher
	sampler    *Sampler
	loginItems domain.LoginItemManager
	logger     *zap.Logger

	ready    chan struct{}
	stop     chan struct{}
	stopOnce sync.Once

	mu            sync.Mutex
	running       bool
	paused        bool
	startedAt     time.Time
	runCtx        context.Context
	samplerCancel context.CancelFunc
	samplerDone   chan struct{}
}

// New creates a daemon. Nothing runs until Run is called.
func New(config Config, deps Deps, logger *zap.Logger) *Daemon {
	registry := actions.NewRegistry()
	executor := usecase.NewExecutorWithTimeout(registry, deps.Runner, config.ActionTimeout, logger)
	dispatcher := usecase.NewDispatcher(executor, logger)
	holder := NewConfigHolder(domain.DefaultDocument())

	return &Daemon{
		config:     config,
		store:      deps.Store,
		registry:   registry,
		dispatcher: dispatcher,
		holder:     holder,
		watcher:    NewConfigWatcher(deps.Store, holder, config.ConfigCheckInterval, config.Overrides, logger),
		sampler:    NewSampler(deps.Source, holder, dispatcher, config, logger),
		loginItems: deps.LoginItems,
		logger:     logger,
		ready:      make(chan struct{}),
		stop:       make(chan struct{}),
	}
}

// OnResult registers a handler for finished triggers.
func (d *Daemon) OnResult(h usecase.ResultHandler) {
	d.dispatcher.OnResult(h)
}

// Ready is closed once Run has loaded the config and started sampling.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Holder returns the active config holder.
func (d *Daemon) Holder() *ConfigHolder {
	return d.holder
}

// Run loads the config, starts sampling and watching, and blocks until ctx
// is canceled or Stop is called. In-flight actions get StopGrace to finish
// and are never killed.
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.isStopped() {
		d.mu.Unlock()
		return ErrDaemonStopped
	}
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyStarted
	}
	d.running = true
	d.startedAt = time.Now()
	d.mu.Unlock()
	defer d.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	doc := d.store.Load()
	if mod, err := d.store.ModTime(); err == nil {
		d.watcher.Prime(mod)
	}
	effective := d.watcher.Publish(doc)

	d.logger.Info("daemon started",
		zap.Int("pid", os.Getpid()),
		zap.String("config", d.store.Path()),
		zap.Int("actions", effective.ActionCount()),
		zap.Int("threshold", effective.Settings.Threshold),
		zap.Float64("dwell", float64(effective.Settings.Dwell)),
		zap.Float64("cooldown", float64(effective.Settings.Cooldown)))

	if !d.config.SkipSelfTest {
		report, err := usecase.Preflight(effective, d.registry, d.logger)
		if err != nil {
			d.logger.Warn("self-test found invalid actions",
				zap.Int("checked", report.Checked),
				zap.Int("invalid", len(report.Invalid)),
				zap.Error(err))
		} else {
			d.logger.Info("self-test passed", zap.Int("checked", report.Checked))
		}
	}

	var wg sync.WaitGroup

	updates, unsubscribe := d.holder.Subscribe()
	defer unsubscribe()
	d.syncLoginItem(effective)
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.followConfig(ctx, updates)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = d.watcher.Run(ctx)
	}()

	d.mu.Lock()
	d.runCtx = ctx
	d.startSamplerLocked()
	d.mu.Unlock()
	close(d.ready)

	select {
	case <-ctx.Done():
	case <-d.stop:
	}
	d.logger.Info("daemon stopping")

	d.mu.Lock()
	d.running = false
	d.stopSamplerLocked()
	d.mu.Unlock()
	cancel()
	wg.Wait()

	d.dispatcher.Close()
	graceCtx, graceCancel := context.WithTimeout(context.Background(), d.config.StopGrace)
	defer graceCancel()
	if err := d.dispatcher.Wait(graceCtx); err != nil {
		d.logger.Warn("actions still running at exit", zap.Error(err))
	}

	d.logger.Info("daemon stopped")
	return nil
}

// Stop requests Run to return. Safe to call more than once.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

func (d *Daemon) isStopped() bool {
	select {
	case <-d.stop:
		return true
	default:
		return false
	}
}

// Pause suspends sampling without exiting.
func (d *Daemon) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return domain.ErrNotRunning
	}
	if d.paused {
		return nil
	}
	d.stopSamplerLocked()
	d.paused = true
	d.logger.Info("sampling paused")
	return nil
}

// Resume restarts sampling from the idle state.
func (d *Daemon) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return domain.ErrNotRunning
	}
	if !d.paused {
		return nil
	}
	d.paused = false
	d.startSamplerLocked()
	d.logger.Info("sampling resumed")
	return nil
}

// Reload re-reads the config file now. On failure the active config is kept.
func (d *Daemon) Reload() error {
	if !d.isRunning() {
		return domain.ErrNotRunning
	}
	if err := d.watcher.Reload(); err != nil {
		d.logger.Warn("config reload failed, keeping previous config", zap.Error(err))
		return err
	}
	return nil
}

// CurrentCorner returns the corner the pointer is in, or CornerNone.
func (d *Daemon) CurrentCorner() domain.Corner {
	return d.sampler.Snapshot().Corner
}

// Fire runs corner's actions now, bypassing dwell and cooldown.
func (d *Daemon) Fire(corner domain.Corner) (string, error) {
	if !d.isRunning() {
		return "", domain.ErrNotRunning
	}
	if _, err := domain.ParseCorner(string(corner)); err != nil {
		return "", err
	}
	actions := d.holder.Get().Actions(corner)
	triggerID, started := d.dispatcher.Dispatch(corner, actions)
	if !started {
		if d.dispatcher.Closed() {
			return "", domain.ErrNotRunning
		}
		return "", fmt.Errorf("%s: previous trigger still running", corner)
	}
	d.logger.Info("manual trigger",
		zap.String("corner", corner.String()),
		zap.String("trigger_id", triggerID),
		zap.Int("actions", len(actions)))
	return triggerID, nil
}

// Status returns a point-in-time view of the daemon.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	running, paused, startedAt := d.running, d.paused, d.startedAt
	d.mu.Unlock()

	snap := d.sampler.Snapshot()
	doc := d.holder.Get()

	st := Status{
		PID:            os.Getpid(),
		AppVersion:     d.config.AppVersion,
		Running:        running,
		Paused:         paused,
		Corner:         snap.Corner.String(),
		Position:       snap.Position,
		Display:        snap.Display,
		StartedAt:      startedAt,
		ConfigPath:     d.store.Path(),
		Actions:        doc.ActionCount(),
		Settings:       doc.Settings,
		SampleFailures: snap.Failures,
	}
	if !startedAt.IsZero() {
		st.UptimeSeconds = time.Since(startedAt).Seconds()
	}
	if len(snap.LastTrigger) > 0 {
		st.LastTrigger = make(map[string]time.Time, len(snap.LastTrigger))
		for c, t := range snap.LastTrigger {
			st.LastTrigger[c.String()] = t
		}
	}
	return st
}

func (d *Daemon) isRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// startSamplerLocked must be called with d.mu held.
func (d *Daemon) startSamplerLocked() {
	ctx, cancel := context.WithCancel(d.runCtx)
	done := make(chan struct{})
	d.samplerCancel = cancel
	d.samplerDone = done
	go func() {
		defer close(done)
		_ = d.sampler.Run(ctx)
	}()
}

// stopSamplerLocked must be called with d.mu held.
func (d *Daemon) stopSamplerLocked() {
	if d.samplerCancel == nil {
		return
	}
	d.samplerCancel()
	<-d.samplerDone
	d.samplerCancel = nil
	d.samplerDone = nil
}

// followConfig reacts to newly published documents until ctx is canceled.
func (d *Daemon) followConfig(ctx context.Context, updates <-chan *domain.Document) {
	for {
		select {
		case <-ctx.Done():
			return
		case doc := <-updates:
			d.syncLoginItem(doc)
		}
	}
}

func (d *Daemon) syncLoginItem(doc *domain.Document) {
	if d.loginItems == nil || d.config.ExecPath == "" {
		return
	}
	changed, err := usecase.SyncLoginItem(d.loginItems, doc.Settings.LaunchAtLogin, d.config.ExecPath)
	if err != nil {
		d.logger.Warn("failed to sync login item", zap.Error(err))
		return
	}
	if changed {
		d.logger.Info("login item updated",
			zap.Bool("launch_at_login", doc.Settings.LaunchAtLogin),
			zap.String("path", d.loginItems.GetPath()))
	}
}
