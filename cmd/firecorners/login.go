package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/daemon"
	"github.com/firecorners/cornerd/internal/infra"
	"github.com/firecorners/cornerd/internal/usecase"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Manage launch at login",
}

var loginEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Start firecorners at login",
	Args:  cobra.NoArgs,
	RunE:  func(cmd *cobra.Command, args []string) error { return setLaunchAtLogin(true) },
}

var loginDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Do not start firecorners at login",
	Args:  cobra.NoArgs,
	RunE:  func(cmd *cobra.Command, args []string) error { return setLaunchAtLogin(false) },
}

var loginStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show launch at login state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := resolvePaths()
		manager := infra.NewLoginItemManager(paths, false)
		if manager.IsInstalled() {
			fmt.Printf("enabled: %s\n", manager.GetPath())
		} else {
			fmt.Println("disabled")
		}
		return nil
	},
}

func init() {
	loginCmd.AddCommand(loginEnableCmd, loginDisableCmd, loginStatusCmd)
}

// setLaunchAtLogin records the choice in the config file and applies it.
func setLaunchAtLogin(enabled bool) error {
	paths := resolvePaths()
	store := infra.NewFileConfigStore(paths.ConfigPath, zap.NewNop())

	doc, err := store.Read()
	if errors.Is(err, os.ErrNotExist) {
		doc = store.Load()
	} else if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if doc.Settings.LaunchAtLogin != enabled {
		doc.Settings.LaunchAtLogin = enabled
		if err := store.Save(doc); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}

	execPath, err := daemon.ExecutablePath()
	if err != nil {
		return fmt.Errorf("failed to resolve executable: %w", err)
	}

	manager := infra.NewLoginItemManager(paths, true)
	changed, err := usecase.SyncLoginItem(manager, enabled, execPath)
	if err != nil {
		return err
	}

	switch {
	case enabled && changed:
		fmt.Printf("launch at login enabled (%s)\n", manager.GetPath())
	case enabled:
		fmt.Println("launch at login already enabled")
	case changed:
		fmt.Println("launch at login disabled")
	default:
		fmt.Println("launch at login already disabled")
	}
	return nil
}
