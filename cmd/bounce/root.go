// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"bounce-cli/internal/config"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug-level reload logging
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// runtimeMode overrides the configured runtime (native|virtual)
	runtimeMode string
	// grace overrides how long a stop waits before escalating to a kill
	grace time.Duration
	// usePTY attaches the child process to a pseudo-terminal
	usePTY bool

	// rootCmd represents the base command
	rootCmd = &cobra.Command{
		Use:   "bounce <entry-point> [dir]... [includes=<pat,...>] [excludes=<pat,...>]",
		Short: "A restart-on-change development launcher",
		Long: TitleStyle.Render("bounce") + SubtitleStyle.Render(" - A restart-on-change development launcher") + `

bounce runs your application's entry point and watches a set of
directories for changes. Whenever a file matching the include patterns
changes, the running instance is stopped and a fresh one is started in
its place. Every qualifying change triggers exactly one restart.

Any argument after the entry point that names an existing directory is
watched; everything else must be a key=value option.

` + SubtitleStyle.Render("Examples:") + `
  bounce app                      Watch the default directories
  bounce app src assets           Watch src and assets
  bounce app 'includes=**/*.go'   Restart on Go file changes only
  bounce app 'excludes=**/*.log'  Ignore log file churn`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd.Context(), args)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/bounce/config.toml)")
	rootCmd.Flags().StringVar(&runtimeMode, "runtime", "", "runtime mode: native or virtual")
	rootCmd.Flags().DurationVar(&grace, "grace", 0, "wait between stop signal and kill")
	rootCmd.Flags().BoolVar(&usePTY, "pty", false, "attach the child process to a pseudo-terminal")
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// loadConfig reads the config file, warning and falling back to the defaults
// when the file is unreadable.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+err.Error())
		return config.DefaultConfig()
	}
	return cfg
}
