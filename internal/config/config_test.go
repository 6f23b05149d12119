// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Includes != "**/*.class,**/*.conf,**/*.properties" {
		t.Errorf("default includes = %q", cfg.Includes)
	}
	if cfg.Excludes != "" {
		t.Errorf("default excludes = %q, want empty", cfg.Excludes)
	}
	if cfg.Runtime != RuntimeNative {
		t.Errorf("default runtime = %q, want %q", cfg.Runtime, RuntimeNative)
	}
	if cfg.Grace != 5*time.Second {
		t.Errorf("default grace = %v, want 5s", cfg.Grace)
	}
	if cfg.PTY {
		t.Error("default pty should be off")
	}
}

func TestRuntimeModeIsValid(t *testing.T) {
	t.Parallel()

	for _, mode := range []RuntimeMode{RuntimeNative, RuntimeVirtual} {
		if !mode.IsValid() {
			t.Errorf("IsValid(%q) = false", mode)
		}
	}
	for _, mode := range []RuntimeMode{"", "jvm", "Native"} {
		if mode.IsValid() {
			t.Errorf("IsValid(%q) = true", mode)
		}
	}
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bounce.toml")
	content := `
includes = "**/*.go"
excludes = "**/vendor/**"
roots = ["src", "assets"]
runtime = "virtual"
grace = "2s"
pty = true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Includes != "**/*.go" {
		t.Errorf("includes = %q", cfg.Includes)
	}
	if cfg.Excludes != "**/vendor/**" {
		t.Errorf("excludes = %q", cfg.Excludes)
	}
	if len(cfg.Roots) != 2 || cfg.Roots[0] != "src" || cfg.Roots[1] != "assets" {
		t.Errorf("roots = %v", cfg.Roots)
	}
	if cfg.Runtime != RuntimeVirtual {
		t.Errorf("runtime = %q", cfg.Runtime)
	}
	if cfg.Grace != 2*time.Second {
		t.Errorf("grace = %v", cfg.Grace)
	}
	if !cfg.PTY {
		t.Error("pty should be on")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bounce.toml")
	if err := os.WriteFile(path, []byte(`includes = "**/*.rb"`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Includes != "**/*.rb" {
		t.Errorf("includes = %q", cfg.Includes)
	}
	if cfg.Runtime != RuntimeNative {
		t.Errorf("runtime = %q, want default %q", cfg.Runtime, RuntimeNative)
	}
	if cfg.Grace != 5*time.Second {
		t.Errorf("grace = %v, want default 5s", cfg.Grace)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() with a missing explicit file should fail")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bounce.toml")
	if err := os.WriteFile(path, []byte("includes = [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() with a malformed file should fail")
	}
}

func TestLoadRejectsUnknownRuntime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bounce.toml")
	if err := os.WriteFile(path, []byte(`runtime = "jvm"`), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() with an unknown runtime should fail")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BOUNCE_INCLUDES", "**/*.py")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Includes != "**/*.py" {
		t.Errorf("includes = %q, want env override **/*.py", cfg.Includes)
	}
}

func TestConfigDirIsAppScoped(t *testing.T) {
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error: %v", err)
	}
	if filepath.Base(dir) != AppName {
		t.Errorf("ConfigDir() = %q, want trailing %q", dir, AppName)
	}
}
