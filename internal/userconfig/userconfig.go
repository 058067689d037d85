// Package userconfig provides user configuration management for iwes-fetch.
// Configuration is stored in $IWES_HOME/config.toml and can be modified
// via the `iwes-fetch config` command.
package userconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tsukumogami/iwes-fetch/internal/config"
	"github.com/tsukumogami/iwes-fetch/internal/secrets"
)

// SecretPrefix marks keys stored in the [secrets] table.
const SecretPrefix = "secrets."

// Release channels.
const (
	ChannelStable     = "stable"
	ChannelPrerelease = "prerelease"
)

// Config represents user-configurable settings.
type Config struct {
	// Repo is the GitHub repository ("owner/name") iwes releases come from.
	Repo string `toml:"repo"`

	// Channel is "stable" or "prerelease".
	Channel string `toml:"channel"`

	// UsePath lets an iwes already on PATH win over a managed install.
	// Default is true.
	UsePath bool `toml:"use_path"`

	// HTTPSProxy and NoProxy override the environment proxy settings.
	HTTPSProxy string `toml:"https_proxy,omitempty"`
	NoProxy    string `toml:"no_proxy,omitempty"`

	// Secrets holds credentials such as github_token. Environment variables
	// take precedence; see the secrets package.
	Secrets map[string]string `toml:"secrets,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Repo:    config.DefaultRepo,
		Channel: ChannelStable,
		UsePath: true,
	}
}

// AllowPrerelease reports whether the prerelease channel is selected.
func (c *Config) AllowPrerelease() bool {
	return c.Channel == ChannelPrerelease
}

// Load reads the config file and returns the configuration.
// Returns default values if the file doesn't exist.
// Returns an error only for file parsing issues, not missing files.
func Load() (*Config, error) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return DefaultConfig(), nil // Silently use defaults
	}

	return loadFromPath(cfg.ConfigFile)
}

// loadFromPath reads config from a specific file path (for testing).
func loadFromPath(path string) (*Config, error) {
	userCfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return userCfg, nil // File doesn't exist, use defaults
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), userCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := userCfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return userCfg, nil
}

func (c *Config) validate() error {
	if err := validateRepo(c.Repo); err != nil {
		return err
	}
	return validateChannel(c.Channel)
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	return c.saveToPath(cfg.ConfigFile)
}

// saveToPath writes config to a specific file path (for testing).
func (c *Config) saveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: the file may hold a GitHub token.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get returns the value of a config key as a string.
// Returns empty string and false if the key doesn't exist.
func (c *Config) Get(key string) (string, bool) {
	switch strings.ToLower(key) {
	case "repo":
		return c.Repo, true
	case "channel":
		return c.Channel, true
	case "use_path":
		return strconv.FormatBool(c.UsePath), true
	case "https_proxy":
		return c.HTTPSProxy, true
	case "no_proxy":
		return c.NoProxy, true
	}
	if name, ok := secretName(key); ok {
		return c.Secrets[name], true
	}
	return "", false
}

// Set updates a config value from a string.
// Returns an error if the key doesn't exist or the value is invalid.
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "repo":
		if err := validateRepo(value); err != nil {
			return err
		}
		c.Repo = value
	case "channel":
		v := strings.ToLower(value)
		if err := validateChannel(v); err != nil {
			return err
		}
		c.Channel = v
	case "use_path":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for use_path: must be true or false")
		}
		c.UsePath = b
	case "https_proxy":
		c.HTTPSProxy = value
	case "no_proxy":
		c.NoProxy = value
	default:
		name, ok := secretName(key)
		if !ok {
			return fmt.Errorf("unknown config key: %s", key)
		}
		c.setSecret(name, value)
	}
	return nil
}

// setSecret stores value under name; an empty value removes it.
func (c *Config) setSecret(name, value string) {
	if value == "" {
		delete(c.Secrets, name)
		return
	}
	if c.Secrets == nil {
		c.Secrets = make(map[string]string)
	}
	c.Secrets[name] = value
}

// IsSecretKey reports whether key addresses the [secrets] table.
func IsSecretKey(key string) bool {
	return strings.HasPrefix(strings.ToLower(key), SecretPrefix)
}

func secretName(key string) (string, bool) {
	if !IsSecretKey(key) {
		return "", false
	}
	name := strings.ToLower(key)[len(SecretPrefix):]
	return name, secrets.IsKnown(name)
}

// AvailableKeys returns a list of all configurable keys with descriptions.
func AvailableKeys() map[string]string {
	keys := map[string]string{
		"repo":        "GitHub repository iwes releases are published in (owner/name)",
		"channel":     "Release channel (stable/prerelease)",
		"use_path":    "Use an iwes already on PATH instead of downloading (true/false)",
		"https_proxy": "Proxy URL for GitHub API and downloads",
		"no_proxy":    "Comma-separated hosts that bypass the proxy",
	}
	for _, k := range secrets.KnownKeys() {
		keys[SecretPrefix+k.Name] = k.Desc
	}
	return keys
}

// SortedKeys returns the keys of AvailableKeys in order.
func SortedKeys() []string {
	keys := make([]string, 0, len(AvailableKeys()))
	for k := range AvailableKeys() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func validateRepo(repo string) error {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid value for repo: %q is not owner/name", repo)
	}
	return nil
}

func validateChannel(ch string) error {
	switch ch {
	case ChannelStable, ChannelPrerelease:
		return nil
	default:
		return fmt.Errorf("invalid value for channel: must be %s or %s", ChannelStable, ChannelPrerelease)
	}
}
