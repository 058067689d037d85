package release

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tsukumogami/iwes-fetch/internal/log"
)

// CachedIndex wraps an Index with a file-based cache of the last answer.
// Entries live in cacheDir/releases/<hash>.json and expire after ttl.
// Cache failures are logged and never returned.
type CachedIndex struct {
	underlying Index
	dir        string
	ttl        time.Duration
	now        func() time.Time
	logger     log.Logger
}

type cacheEntry struct {
	Repo            string    `json:"repo"`
	AllowPrerelease bool      `json:"allow_prerelease"`
	RequireAssets   bool      `json:"require_assets"`
	Release         *Release  `json:"release"`
	CachedAt        time.Time `json:"cached_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// NewCachedIndex returns idx unchanged when ttl is not positive.
func NewCachedIndex(idx Index, cacheDir string, ttl time.Duration, logger log.Logger) Index {
	if ttl <= 0 {
		return idx
	}
	return &CachedIndex{
		underlying: idx,
		dir:        filepath.Join(cacheDir, "releases"),
		ttl:        ttl,
		now:        time.Now,
		logger:     log.OrDefault(logger),
	}
}

// LatestRelease returns a fresh cached release or asks the underlying index.
func (c *CachedIndex) LatestRelease(ctx context.Context, repo string, opts Options) (*Release, error) {
	path := c.entryPath(repo, opts)

	if entry, err := c.read(path); err == nil && c.now().Before(entry.ExpiresAt) {
		c.logger.Debug("release cache hit", "repo", repo, "version", entry.Release.Version)
		return entry.Release, nil
	}

	rel, err := c.underlying.LatestRelease(ctx, repo, opts)
	if err != nil {
		return nil, err
	}

	if err := c.write(path, repo, opts, rel); err != nil {
		c.logger.Warn("failed to write release cache", "path", path, "error", err)
	}
	return rel, nil
}

// Clear removes every cached entry.
func (c *CachedIndex) Clear() error {
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("failed to clear release cache: %w", err)
	}
	return nil
}

func (c *CachedIndex) entryPath(repo string, opts Options) string {
	key := fmt.Sprintf("%s|pre=%t|assets=%t", repo, opts.AllowPrerelease, opts.RequireAssets)
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:8])+".json")
}

func (c *CachedIndex) read(path string) (*cacheEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	if entry.Release == nil {
		return nil, fmt.Errorf("cache entry %s has no release", path)
	}
	return &entry, nil
}

func (c *CachedIndex) write(path, repo string, opts Options, rel *Release) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	now := c.now()
	data, err := json.MarshalIndent(cacheEntry{
		Repo:            repo,
		AllowPrerelease: opts.AllowPrerelease,
		RequireAssets:   opts.RequireAssets,
		Release:         rel,
		CachedAt:        now,
		ExpiresAt:       now.Add(c.ttl),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

// ClearCache removes the release cache kept under cacheDir.
func ClearCache(cacheDir string) error {
	c := &CachedIndex{dir: filepath.Join(cacheDir, "releases")}
	return c.Clear()
}
