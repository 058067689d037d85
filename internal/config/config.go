package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// EnvHome is the environment variable to override the default iwes-fetch home directory
	EnvHome = "IWES_HOME"

	// EnvAPITimeout is the environment variable to configure release API request timeout
	EnvAPITimeout = "IWES_API_TIMEOUT"

	// EnvDownloadTimeout is the environment variable to configure the asset download timeout
	EnvDownloadTimeout = "IWES_DOWNLOAD_TIMEOUT"

	// EnvReleaseCacheTTL is the environment variable to configure release metadata cache TTL
	EnvReleaseCacheTTL = "IWES_RELEASE_CACHE_TTL"

	// EnvGitHubToken authenticates release lookups when set
	EnvGitHubToken = "GITHUB_TOKEN"

	// DefaultAPITimeout is the default timeout for API requests (30 seconds)
	DefaultAPITimeout = 30 * time.Second

	// DefaultDownloadTimeout is the default timeout for one asset download (10 minutes)
	DefaultDownloadTimeout = 10 * time.Minute

	// DefaultReleaseCacheTTL disables the release metadata cache
	DefaultReleaseCacheTTL = time.Duration(0)

	// DefaultRepo is the upstream repository publishing iwes releases
	DefaultRepo = "iwe-org/iwe"
)

// GetAPITimeout returns the configured API timeout from IWES_API_TIMEOUT environment variable.
// If not set or invalid, returns DefaultAPITimeout (30 seconds).
// Accepts duration strings like "30s", "1m", "2m30s".
func GetAPITimeout() time.Duration {
	return clampedDuration(EnvAPITimeout, DefaultAPITimeout, 1*time.Second, 10*time.Minute)
}

// GetDownloadTimeout returns the configured download timeout from IWES_DOWNLOAD_TIMEOUT.
// If not set or invalid, returns DefaultDownloadTimeout (10 minutes).
func GetDownloadTimeout() time.Duration {
	return clampedDuration(EnvDownloadTimeout, DefaultDownloadTimeout, 10*time.Second, time.Hour)
}

// GetReleaseCacheTTL returns the configured release cache TTL from IWES_RELEASE_CACHE_TTL.
// Zero (the default) disables caching; values above 24h are clamped.
func GetReleaseCacheTTL() time.Duration {
	envValue := os.Getenv(EnvReleaseCacheTTL)
	if envValue == "" {
		return DefaultReleaseCacheTTL
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, caching disabled\n",
			EnvReleaseCacheTTL, envValue)
		return DefaultReleaseCacheTTL
	}

	if duration <= 0 {
		return 0
	}
	if duration > 24*time.Hour {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 24h\n",
			EnvReleaseCacheTTL, duration)
		return 24 * time.Hour
	}

	return duration
}

// GetGitHubToken returns GITHUB_TOKEN, or "" when unset.
func GetGitHubToken() string {
	return os.Getenv(EnvGitHubToken)
}

func clampedDuration(env string, def, minimum, maximum time.Duration) time.Duration {
	envValue := os.Getenv(env)
	if envValue == "" {
		return def
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			env, envValue, def)
		return def
	}

	if duration < minimum {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum %v\n",
			env, duration, minimum)
		return minimum
	}
	if duration > maximum {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum %v\n",
			env, duration, maximum)
		return maximum
	}

	return duration
}

// DefaultHomeOverride can be set by the binary's main package to change the
// default home directory. IWES_HOME still takes precedence.
var DefaultHomeOverride string

// Config holds iwes-fetch paths
type Config struct {
	HomeDir     string // $IWES_HOME
	VersionsDir string // $IWES_HOME/versions (one directory per installed release)
	CacheDir    string // $IWES_HOME/cache (release metadata)
	LockFile    string // $IWES_HOME/install.lock
	ConfigFile  string // $IWES_HOME/config.toml
}

// DefaultConfig returns the default configuration
func DefaultConfig() (*Config, error) {
	home := os.Getenv(EnvHome)
	if home == "" {
		if DefaultHomeOverride != "" {
			home = DefaultHomeOverride
		} else {
			userHome, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			home = filepath.Join(userHome, ".iwes-fetch")
		}
	}

	return New(home), nil
}

// New lays out a Config under home.
func New(home string) *Config {
	return &Config{
		HomeDir:     home,
		VersionsDir: filepath.Join(home, "versions"),
		CacheDir:    filepath.Join(home, "cache"),
		LockFile:    filepath.Join(home, "install.lock"),
		ConfigFile:  filepath.Join(home, "config.toml"),
	}
}

// EnsureDirectories creates all necessary directories
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.HomeDir, c.VersionsDir, c.CacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
