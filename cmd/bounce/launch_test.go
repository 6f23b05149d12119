// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"bounce-cli/internal/config"
	"bounce-cli/internal/target"
)

func testDefaults(roots ...string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Roots = roots
	return cfg
}

func TestParseLaunchArgsDirsBecomeRoots(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	assets := filepath.Join(dir, "assets")
	for _, d := range []string{src, assets} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	opts, err := parseLaunchArgs([]string{"app", src, assets}, testDefaults())
	if err != nil {
		t.Fatalf("parseLaunchArgs() error: %v", err)
	}
	if opts.Entry != "app" {
		t.Errorf("entry = %q, want app", opts.Entry)
	}
	if len(opts.Roots) != 2 || opts.Roots[0] != src || opts.Roots[1] != assets {
		t.Errorf("roots = %v, want [%s %s]", opts.Roots, src, assets)
	}
}

func TestParseLaunchArgsOptionsOverrideDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	opts, err := parseLaunchArgs(
		[]string{"app", dir, "includes=**/*.go", "excludes=**/vendor/**"},
		testDefaults(),
	)
	if err != nil {
		t.Fatalf("parseLaunchArgs() error: %v", err)
	}
	if opts.Includes != "**/*.go" {
		t.Errorf("includes = %q", opts.Includes)
	}
	if opts.Excludes != "**/vendor/**" {
		t.Errorf("excludes = %q", opts.Excludes)
	}
}

func TestParseLaunchArgsDefaultPatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	opts, err := parseLaunchArgs([]string{"app", dir}, testDefaults())
	if err != nil {
		t.Fatalf("parseLaunchArgs() error: %v", err)
	}
	if opts.Includes != "**/*.class,**/*.conf,**/*.properties" {
		t.Errorf("includes = %q, want defaults", opts.Includes)
	}
	if opts.Excludes != "" {
		t.Errorf("excludes = %q, want empty", opts.Excludes)
	}
}

func TestParseLaunchArgsKeysAreCaseInsensitive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	opts, err := parseLaunchArgs([]string{"app", dir, "Includes=**/*.go"}, testDefaults())
	if err != nil {
		t.Fatalf("parseLaunchArgs() error: %v", err)
	}
	if opts.Includes != "**/*.go" {
		t.Errorf("includes = %q", opts.Includes)
	}
}

func TestParseLaunchArgsEmptyOptionValue(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	opts, err := parseLaunchArgs([]string{"app", dir, "excludes="}, testDefaults())
	if err != nil {
		t.Fatalf("parseLaunchArgs() error: %v", err)
	}
	if opts.Excludes != "" {
		t.Errorf("excludes = %q, want empty", opts.Excludes)
	}
}

func TestParseLaunchArgsRejectsUnknownKey(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := parseLaunchArgs([]string{"app", dir, "pattern=**/*.go"}, testDefaults()); err == nil {
		t.Error("unknown option key should be rejected")
	}
}

func TestParseLaunchArgsRejectsMalformedToken(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := parseLaunchArgs([]string{"app", dir, "no-such-dir"}, testDefaults()); err == nil {
		t.Error("a token that is neither a directory nor key=value should be rejected")
	}
}

func TestParseLaunchArgsDefaultRootsFilterByExistence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	public := filepath.Join(dir, "public")
	if err := os.Mkdir(public, 0o755); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "target", "classes")

	opts, err := parseLaunchArgs([]string{"app"}, testDefaults(public, missing))
	if err != nil {
		t.Fatalf("parseLaunchArgs() error: %v", err)
	}
	if len(opts.Roots) != 1 || opts.Roots[0] != public {
		t.Errorf("roots = %v, want only %s", opts.Roots, public)
	}
}

func TestParseLaunchArgsNoWatchableDirectory(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope")
	if _, err := parseLaunchArgs([]string{"app"}, testDefaults(missing)); err == nil {
		t.Error("no watchable directory should be rejected")
	}
}

func TestBuildLoaderPicksRuntime(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	if _, ok := buildLoader(cfg).(*target.ProcLoader); !ok {
		t.Errorf("native runtime should use ProcLoader, got %T", buildLoader(cfg))
	}
	cfg.Runtime = config.RuntimeVirtual
	if _, ok := buildLoader(cfg).(*target.ShellLoader); !ok {
		t.Errorf("virtual runtime should use ShellLoader, got %T", buildLoader(cfg))
	}
}
