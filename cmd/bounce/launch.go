// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"bounce-cli/internal/config"
	"bounce-cli/internal/pathfilter"
	"bounce-cli/internal/reload"
	"bounce-cli/internal/target"
	"bounce-cli/internal/watch"

	"github.com/charmbracelet/log"
)

// launchOptions is the parsed positional-argument surface of the launcher.
type launchOptions struct {
	// Entry is the entry-point name (first positional argument).
	Entry string
	// Roots are the directories to watch.
	Roots []string
	// Includes and Excludes are comma-separated pattern lists.
	Includes string
	Excludes string
}

// parseLaunchArgs interprets the positional arguments. The first is the
// entry-point name. Every further argument that names an existing directory
// is watched; everything else must be a key=value option with key "includes"
// or "excludes" (case-insensitive). When no directory is named, the
// configured defaults apply, skipping entries that do not exist.
func parseLaunchArgs(args []string, defaults *config.Config) (*launchOptions, error) {
	opts := &launchOptions{
		Entry:    args[0],
		Includes: defaults.Includes,
		Excludes: defaults.Excludes,
	}

	for _, arg := range args[1:] {
		if isDir(arg) {
			opts.Roots = append(opts.Roots, arg)
			continue
		}

		key, value, found := strings.Cut(arg, "=")
		if !found {
			return nil, fmt.Errorf("argument %q is neither an existing directory nor a key=value option", arg)
		}
		switch strings.ToLower(key) {
		case "includes":
			opts.Includes = value
		case "excludes":
			opts.Excludes = value
		default:
			return nil, fmt.Errorf("unknown option %q (supported: includes, excludes)", key)
		}
	}

	if len(opts.Roots) == 0 {
		for _, root := range defaults.Roots {
			if isDir(root) {
				opts.Roots = append(opts.Roots, root)
			}
		}
	}
	if len(opts.Roots) == 0 {
		return nil, fmt.Errorf("no directories to watch: name at least one, or create one of %s",
			strings.Join(defaults.Roots, ", "))
	}

	return opts, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// runLaunch wires the launcher together and blocks until interrupted: parse
// the arguments, start the supervised application, then feed filesystem
// events into the reload manager.
func runLaunch(ctx context.Context, args []string) error {
	cfg := loadConfig()
	if runtimeMode != "" {
		cfg.Runtime = config.RuntimeMode(strings.ToLower(runtimeMode))
		if !cfg.Runtime.IsValid() {
			return fmt.Errorf("%w: %q (want %q or %q)",
				config.ErrInvalidRuntimeMode, runtimeMode, config.RuntimeNative, config.RuntimeVirtual)
		}
	}
	if grace > 0 {
		cfg.Grace = grace
	}
	if usePTY {
		cfg.PTY = true
	}

	opts, err := parseLaunchArgs(args, cfg)
	if err != nil {
		return err
	}

	rule, err := pathfilter.NewRule(opts.Includes, opts.Excludes)
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	mgr, err := reload.New(reload.Config{
		Loader: buildLoader(cfg),
		Entry:  opts.Entry,
		Roots:  opts.Roots,
		Rule:   rule,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	watcher, err := watch.New(watch.Config{
		Roots:   mgr.Roots(),
		OnEvent: mgr.OnChange,
	})
	if err != nil {
		closeErr := mgr.Close()
		return errors.Join(err, closeErr)
	}

	printBanner(opts, rule, mgr.Roots())

	// Initial start; later reloads come from the watcher.
	mgr.Reload()

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	runErr := watcher.Run(runCtx)
	return errors.Join(runErr, mgr.Close())
}

// buildLoader picks the generation loader for the configured runtime.
func buildLoader(cfg *config.Config) target.Loader {
	if cfg.Runtime == config.RuntimeVirtual {
		return &target.ShellLoader{}
	}
	return &target.ProcLoader{
		Grace:  cfg.Grace,
		UsePTY: cfg.PTY,
	}
}

// printBanner announces what the launcher is watching before the first start.
func printBanner(opts *launchOptions, rule pathfilter.Rule, roots []string) {
	redefine := "no (cold restart only)"
	if target.RedefineSupported() {
		redefine = "yes"
	}

	fmt.Println(TitleStyle.Render("bounce") + SubtitleStyle.Render(" - restarting on change"))
	fmt.Println(SubtitleStyle.Render("  entry point:       ") + ValueStyle.Render(opts.Entry))
	fmt.Println(SubtitleStyle.Render("  watching:          ") + ValueStyle.Render(strings.Join(roots, ", ")))
	fmt.Println(SubtitleStyle.Render("  includes:          ") + ValueStyle.Render(rule.Includes.String()))
	fmt.Println(SubtitleStyle.Render("  excludes:          ") + ValueStyle.Render(rule.Excludes.String()))
	fmt.Println(SubtitleStyle.Render("  live redefinition: ") + ValueStyle.Render(redefine))
}
