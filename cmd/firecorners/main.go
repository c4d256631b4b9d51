// Package main is the CLI entry point for firecorners.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/firecorners/cornerd/internal/infra"
)

var (
	// Version info (set via ldflags)
	Version   = "0.3.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "firecorners",
	Short: "Hot corners daemon - run actions when the pointer hits a screen corner",
	Long: `firecorners watches the pointer and, when it rests in a screen corner,
runs the actions bound to that corner: open a URL, launch an application,
run a shell command or an automation script.

Actions and settings live in ~/.firecorners/config.json. The running daemon
picks up edits to that file automatically.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath string
	jsonOutput bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default ~/.firecorners/config.json)")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(fireCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolvePaths returns the per-user paths, honouring --config.
func resolvePaths() *infra.Paths {
	return infra.DetectPaths().WithConfigPath(configPath)
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("firecorners %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
