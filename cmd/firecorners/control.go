package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/firecorners/cornerd/internal/domain"
	"github.com/firecorners/cornerd/internal/infra"
	"github.com/firecorners/cornerd/internal/ipc"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the config file now",
	Long:  `Asks the running daemon to re-read its config file. Edits are also picked up automatically within a few seconds.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().Reload(); err != nil {
			return explain(err)
		}
		fmt.Println("config reloaded")
		return nil
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Suspend corner detection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().Pause(); err != nil {
			return explain(err)
		}
		fmt.Println("paused")
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume corner detection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().Resume(); err != nil {
			return explain(err)
		}
		fmt.Println("resumed")
		return nil
	},
}

var fireCmd = &cobra.Command{
	Use:       "fire <corner>",
	Short:     "Run a corner's actions now",
	Long:      `Runs the actions bound to a corner (top_left, top_right, bottom_left, bottom_right) in the daemon, ignoring dwell and cooldown.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"top_left", "top_right", "bottom_left", "bottom_right"},
	RunE: func(cmd *cobra.Command, args []string) error {
		corner, err := domain.ParseCorner(args[0])
		if err != nil {
			return err
		}
		id, err := newClient().Fire(corner)
		if err != nil {
			return explain(err)
		}
		fmt.Printf("fired %s (trigger %s)\n", corner, id)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func newClient() *ipc.Client {
	return ipc.NewClient(resolvePaths().SocketPath)
}

func explain(err error) error {
	if errors.Is(err, domain.ErrNotRunning) {
		return fmt.Errorf("%w (start it with 'firecorners start')", domain.ErrNotRunning)
	}
	return err
}

func runStatus(cmd *cobra.Command, args []string) error {
	paths := resolvePaths()
	login := infra.NewLoginItemManager(paths, false)

	loginState := "disabled"
	if login.IsInstalled() {
		loginState = "enabled (" + login.GetPath() + ")"
	}

	st, err := ipc.NewClient(paths.SocketPath).Status()
	if err != nil {
		if !errors.Is(err, domain.ErrNotRunning) {
			return err
		}
		fmt.Println(renderKV([][]string{
			{"Status", "NOT RUNNING"},
			{"Config", paths.ConfigPath},
			{"Launch at login", loginState},
		}))
		return nil
	}

	state := "RUNNING"
	if st.Paused {
		state = "PAUSED"
	}
	rows := [][]string{
		{"Status", state},
		{"PID", strconv.Itoa(st.PID)},
		{"Version", st.AppVersion},
		{"Uptime", time.Duration(st.UptimeSeconds * float64(time.Second)).Round(time.Second).String()},
		{"Config", st.ConfigPath},
		{"Actions", strconv.Itoa(st.Actions)},
		{"Threshold", fmt.Sprintf("%d px", st.Settings.Threshold)},
		{"Dwell", fmt.Sprintf("%gs", float64(st.Settings.Dwell))},
		{"Cooldown", fmt.Sprintf("%gs", float64(st.Settings.Cooldown))},
		{"Display", fmt.Sprintf("%dx%d", st.Display.Width, st.Display.Height)},
		{"Corner", st.Corner},
		{"Launch at login", loginState},
	}
	if st.SampleFailures > 0 {
		rows = append(rows, []string{"Sample failures", strconv.Itoa(st.SampleFailures)})
	}

	corners := make([]string, 0, len(st.LastTrigger))
	for c := range st.LastTrigger {
		corners = append(corners, c)
	}
	sort.Strings(corners)
	for _, c := range corners {
		ago := time.Since(st.LastTrigger[c]).Round(time.Second)
		rows = append(rows, []string{"Last " + c, ago.String() + " ago"})
	}

	fmt.Println(renderKV(rows))
	return nil
}
