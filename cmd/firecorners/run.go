package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/daemon"
	"github.com/firecorners/cornerd/internal/domain"
	"github.com/firecorners/cornerd/internal/infra"
	"github.com/firecorners/cornerd/internal/ipc"
)

const (
	startWaitTimeout = 5 * time.Second
	stopWaitTimeout  = 5 * time.Second
	pollInterval     = 100 * time.Millisecond
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daemon in the foreground",
	Long: `Runs the hot corners daemon in the foreground until interrupted.

--threshold, --dwell and --cooldown override the values in the config file
for this process only; the file is never modified.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon in the background",
	Long:  `Spawns 'firecorners run' detached from the terminal and waits until it answers on the control socket.`,
	Args:  cobra.NoArgs,
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Long:  `Asks the daemon to exit over the control socket, falling back to SIGTERM on the recorded PID.`,
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var (
	runThreshold int
	runDwell     float64
	runCooldown  float64
	runNoTest    bool
	runLogLevel  string
)

func init() {
	addDaemonFlags(runCmd)
	addDaemonFlags(startCmd)
}

func addDaemonFlags(c *cobra.Command) {
	c.Flags().IntVar(&runThreshold, "threshold", domain.DefaultThreshold, "Corner size in pixels")
	c.Flags().Float64Var(&runDwell, "dwell", float64(domain.DefaultDwell), "Seconds the pointer must rest in a corner")
	c.Flags().Float64Var(&runCooldown, "cooldown", float64(domain.DefaultCooldown), "Seconds before the same corner can fire again")
	c.Flags().BoolVar(&runNoTest, "no-test", false, "Skip the action self-test at startup")
	c.Flags().StringVar(&runLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// overridesFromFlags returns only the settings explicitly given on the command line.
func overridesFromFlags(cmd *cobra.Command) (daemon.SettingsOverride, error) {
	var o daemon.SettingsOverride
	if cmd.Flags().Changed("threshold") {
		t := runThreshold
		o.Threshold = &t
	}
	if cmd.Flags().Changed("dwell") {
		d := domain.Seconds(runDwell)
		o.Dwell = &d
	}
	if cmd.Flags().Changed("cooldown") {
		c := domain.Seconds(runCooldown)
		o.Cooldown = &c
	}
	if err := o.Validate(); err != nil {
		return o, err
	}
	return o, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	overrides, err := overridesFromFlags(cmd)
	if err != nil {
		return err
	}
	level, err := parseLevel(runLogLevel)
	if err != nil {
		return err
	}

	paths := resolvePaths()
	logger := createLogger(paths, level)
	defer func() { _ = logger.Sync() }()

	pm := infra.NewProcessManager()
	instances := infra.NewFileInstanceRegistry(paths.LockPath, paths.InstancePath, pm)
	entry := domain.InstanceEntry{
		PID:        os.Getpid(),
		SessionID:  uuid.NewString(),
		AppVersion: Version,
		SocketPath: paths.SocketPath,
		ConfigPath: paths.ConfigPath,
		StartedAt:  time.Now().Unix(),
	}
	if err := instances.Acquire(entry); err != nil {
		if errors.Is(err, domain.ErrAlreadyRunning) {
			logger.Warn("another daemon holds the lock, exiting", zap.String("lock", paths.LockPath))
		}
		return err
	}
	defer func() {
		if err := instances.Release(); err != nil {
			logger.Warn("failed to release instance lock", zap.Error(err))
		}
	}()

	execPath, err := daemon.ExecutablePath()
	if err != nil {
		logger.Warn("cannot resolve executable, login item sync disabled", zap.Error(err))
		execPath = ""
	}

	config := daemon.DefaultConfig()
	config.SkipSelfTest = runNoTest
	config.Overrides = overrides
	config.ExecPath = execPath
	config.AppVersion = Version

	source := infra.NewPointerSource(logger)
	if closer, ok := source.(io.Closer); ok {
		defer closer.Close()
	}

	d := daemon.New(config, daemon.Deps{
		Store:      infra.NewFileConfigStore(paths.ConfigPath, logger),
		Source:     source,
		Runner:     infra.NewOSActionRunner(logger),
		LoginItems: infra.NewLoginItemManager(paths, false),
	}, logger)
	d.OnResult(func(corner domain.Corner, triggerID string, results []domain.ActionResult) {
		for _, r := range results {
			if !r.Success {
				logger.Warn("action failed",
					zap.String("corner", corner.String()),
					zap.String("trigger_id", triggerID),
					zap.String("action_type", string(r.Action.Type)),
					zap.String("value", r.Action.Value),
					zap.String("message", r.Message))
			}
		}
	})

	server := ipc.NewServer(paths.SocketPath, d, logger)
	if err := server.Start(); err != nil {
		logger.Error("control socket unavailable", zap.Error(err))
	} else {
		defer server.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigChan:
				if sig == syscall.SIGHUP {
					logger.Info("received SIGHUP, reloading config")
					_ = d.Reload()
					continue
				}
				logger.Info("received shutdown signal", zap.String("signal", sig.String()))
				cancel()
				return
			}
		}
	}()

	return d.Run(ctx)
}

// passthroughArgs rebuilds the run flags the user set on start.
func passthroughArgs(cmd *cobra.Command) []string {
	args := []string{"run"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		args = append(args, "--"+f.Name+"="+f.Value.String())
	})
	return args
}

func runStart(cmd *cobra.Command, args []string) error {
	if _, err := overridesFromFlags(cmd); err != nil {
		return err
	}
	paths := resolvePaths()
	client := ipc.NewClient(paths.SocketPath)

	if client.Ping() {
		fmt.Println("firecorners is already running")
		return nil
	}

	execPath, err := daemon.ExecutablePath()
	if err != nil {
		return fmt.Errorf("failed to resolve executable: %w", err)
	}

	pid, err := daemon.StartDetached(execPath, passthroughArgs(cmd)...)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(startWaitTimeout)
	for time.Now().Before(deadline) {
		if client.Ping() {
			fmt.Printf("firecorners started (pid %d)\n", pid)
			fmt.Printf("Config: %s\n", paths.ConfigPath)
			fmt.Printf("Log:    %s\n", paths.LogPath)
			return nil
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("daemon did not answer within %s; see %s", startWaitTimeout, paths.LogPath)
}

func runStop(cmd *cobra.Command, args []string) error {
	paths := resolvePaths()
	client := ipc.NewClient(paths.SocketPath)
	pm := infra.NewProcessManager()
	instances := infra.NewFileInstanceRegistry(paths.LockPath, paths.InstancePath, pm)

	entry, _ := instances.Get()

	err := client.Stop()
	if err == nil {
		if entry != nil {
			waitForExit(pm, entry.PID)
		}
		fmt.Println("firecorners stopped")
		return nil
	}
	if !errors.Is(err, domain.ErrNotRunning) {
		return err
	}

	// Socket is gone; fall back to the recorded PID
	if entry == nil || !pm.IsRunning(entry.PID) {
		fmt.Println("firecorners is not running")
		return nil
	}
	if name, nerr := pm.Name(entry.PID); nerr == nil && !strings.Contains(strings.ToLower(name), "firecorners") {
		return fmt.Errorf("pid %d belongs to %q, not firecorners; refusing to signal it", entry.PID, name)
	}
	if err := pm.Terminate(entry.PID); err != nil {
		return fmt.Errorf("failed to signal pid %d: %w", entry.PID, err)
	}
	if !waitForExit(pm, entry.PID) {
		return fmt.Errorf("pid %d did not exit within %s", entry.PID, stopWaitTimeout)
	}
	fmt.Println("firecorners stopped")
	return nil
}

func waitForExit(pm domain.ProcessManager, pid int) bool {
	deadline := time.Now().Add(stopWaitTimeout)
	for time.Now().Before(deadline) {
		if !pm.IsRunning(pid) {
			return true
		}
		time.Sleep(pollInterval)
	}
	return false
}
