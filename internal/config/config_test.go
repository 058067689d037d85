package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv(EnvHome, "")

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}

	home, _ := os.UserHomeDir()
	expectedHome := filepath.Join(home, ".iwes-fetch")

	if cfg.HomeDir != expectedHome {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, expectedHome)
	}
	if cfg.VersionsDir != filepath.Join(expectedHome, "versions") {
		t.Errorf("VersionsDir = %q, want %q", cfg.VersionsDir, filepath.Join(expectedHome, "versions"))
	}
	if cfg.CacheDir != filepath.Join(expectedHome, "cache") {
		t.Errorf("CacheDir = %q, want %q", cfg.CacheDir, filepath.Join(expectedHome, "cache"))
	}
	if cfg.LockFile != filepath.Join(expectedHome, "install.lock") {
		t.Errorf("LockFile = %q, want %q", cfg.LockFile, filepath.Join(expectedHome, "install.lock"))
	}
	if cfg.ConfigFile != filepath.Join(expectedHome, "config.toml") {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, filepath.Join(expectedHome, "config.toml"))
	}
}

func TestDefaultConfig_WithHome(t *testing.T) {
	customHome := filepath.Join(t.TempDir(), "iwes")
	t.Setenv(EnvHome, customHome)

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}
	if cfg.HomeDir != customHome {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, customHome)
	}
	if cfg.VersionsDir != filepath.Join(customHome, "versions") {
		t.Errorf("VersionsDir = %q, want %q", cfg.VersionsDir, filepath.Join(customHome, "versions"))
	}
}

func TestDefaultConfig_HomeOverride(t *testing.T) {
	t.Setenv(EnvHome, "")
	orig := DefaultHomeOverride
	t.Cleanup(func() { DefaultHomeOverride = orig })

	DefaultHomeOverride = "/opt/iwes-dev"
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}
	if cfg.HomeDir != "/opt/iwes-dev" {
		t.Errorf("HomeDir = %q, want /opt/iwes-dev", cfg.HomeDir)
	}

	t.Setenv(EnvHome, "/from/env")
	cfg, _ = DefaultConfig()
	if cfg.HomeDir != "/from/env" {
		t.Errorf("IWES_HOME should take precedence, got %q", cfg.HomeDir)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := New(filepath.Join(t.TempDir(), "iwes"))

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() failed: %v", err)
	}

	for _, dir := range []string{cfg.HomeDir, cfg.VersionsDir, cfg.CacheDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("Directory %q does not exist: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%q is not a directory", dir)
		}
	}
}

func TestGetAPITimeout(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"default", "", DefaultAPITimeout},
		{"custom", "1m", time.Minute},
		{"invalid", "soon", DefaultAPITimeout},
		{"too low", "100ms", time.Second},
		{"too high", "1h", 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvAPITimeout, tt.value)
			if got := GetAPITimeout(); got != tt.want {
				t.Errorf("GetAPITimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDownloadTimeout(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"default", "", DefaultDownloadTimeout},
		{"custom", "90s", 90 * time.Second},
		{"invalid", "10 minutes", DefaultDownloadTimeout},
		{"too low", "1s", 10 * time.Second},
		{"too high", "3h", time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDownloadTimeout, tt.value)
			if got := GetDownloadTimeout(); got != tt.want {
				t.Errorf("GetDownloadTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetReleaseCacheTTL(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"default disabled", "", 0},
		{"explicit zero", "0s", 0},
		{"negative", "-5m", 0},
		{"custom", "15m", 15 * time.Minute},
		{"invalid", "forever", 0},
		{"too high", "72h", 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvReleaseCacheTTL, tt.value)
			if got := GetReleaseCacheTTL(); got != tt.want {
				t.Errorf("GetReleaseCacheTTL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetGitHubToken(t *testing.T) {
	t.Setenv(EnvGitHubToken, "ghp_test")
	if got := GetGitHubToken(); got != "ghp_test" {
		t.Errorf("GetGitHubToken() = %q, want ghp_test", got)
	}
}
