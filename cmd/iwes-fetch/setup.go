package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tsukumogami/iwes-fetch/internal/config"
	"github.com/tsukumogami/iwes-fetch/internal/download"
	"github.com/tsukumogami/iwes-fetch/internal/httputil"
	"github.com/tsukumogami/iwes-fetch/internal/install"
	"github.com/tsukumogami/iwes-fetch/internal/log"
	"github.com/tsukumogami/iwes-fetch/internal/platform"
	"github.com/tsukumogami/iwes-fetch/internal/probe"
	"github.com/tsukumogami/iwes-fetch/internal/progress"
	"github.com/tsukumogami/iwes-fetch/internal/provider"
	"github.com/tsukumogami/iwes-fetch/internal/release"
	"github.com/tsukumogami/iwes-fetch/internal/secrets"
	"github.com/tsukumogami/iwes-fetch/internal/userconfig"
)

// languageServerID is the id reported with status events.
const languageServerID provider.LanguageServerID = "iwes"

// session is everything one command invocation needs.
type session struct {
	cfg      *config.Config
	user     *userconfig.Config
	detector platform.Detector
	provider *provider.Provider
	status   *progress.StatusPrinter
	worktree provider.Worktree
}

// loadSettings reads paths and the user config, and records the repository
// for error messages.
func loadSettings() (*config.Config, *userconfig.Config, error) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return nil, nil, err
	}
	user, err := userconfig.Load()
	if err != nil {
		return nil, nil, err
	}
	errorContext.Repo = user.Repo
	return cfg, user, nil
}

// detectorFromFlags returns the system detector, or a fixed one when --os or
// --arch is given. A single override keeps the detected value for the other.
func detectorFromFlags(ctx context.Context, osName, archName string) (platform.Detector, error) {
	if osName == "" && archName == "" {
		return platform.SystemDetector{}, nil
	}

	host, err := platform.SystemDetector{}.Detect(ctx)
	if err != nil {
		return nil, err
	}
	if osName != "" {
		o, err := platform.ParseOS(osName)
		if err != nil {
			return nil, fmt.Errorf("invalid --os: %w", err)
		}
		if o != host.OS {
			host.Libc = ""
		}
		host.OS = o
	}
	if archName != "" {
		a, err := platform.ParseArch(archName)
		if err != nil {
			return nil, fmt.Errorf("invalid --arch: %w", err)
		}
		host.Arch = a
	}
	return platform.FixedDetector{Host: host}, nil
}

// newSession wires the provider from configuration and flags.
func newSession(ctx context.Context, args []string) (*session, error) {
	cfg, user, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, &install.Error{Kind: install.KindDirectoryCreate, Path: cfg.HomeDir, Err: err}
	}

	detector, err := detectorFromFlags(ctx, osFlag, archFlag)
	if err != nil {
		return nil, err
	}

	logger := log.Default()
	proxy := httputil.ProxyConfig(user.HTTPSProxy, user.NoProxy)

	token, source, err := secrets.Lookup(secrets.GitHubToken, user.Secrets)
	if err != nil {
		return nil, err
	}
	if source != "" {
		logger.Debug("using GitHub token", "source", source)
	}

	gh, err := release.NewGitHubIndex(
		release.WithHTTPClient(release.NewHTTPClient(proxy)),
		release.WithToken(token),
		release.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	index := release.NewCachedIndex(gh, cfg.CacheDir, config.GetReleaseCacheTTL(), logger)

	dlOpts := []download.Option{download.WithProxy(proxy), download.WithLogger(logger)}
	if !quietFlag {
		dlOpts = append(dlOpts, download.WithProgress(os.Stderr))
	}
	installer := install.New(cfg.VersionsDir, download.New(dlOpts...),
		install.WithLocker(install.NewFileLocker(cfg.LockFile)),
		install.WithLogger(logger),
	)

	status := progress.NewStatusPrinter(os.Stderr, quietFlag)
	p := provider.New(index, installer,
		provider.WithDetector(detector),
		provider.WithRepo(user.Repo),
		provider.WithReleaseOptions(release.Options{
			RequireAssets:   true,
			AllowPrerelease: user.AllowPrerelease(),
		}),
		provider.WithSearchPath(user.UsePath && !noPathFlag),
		provider.WithNotifier(newStatusNotifier(status)),
		provider.WithArgs(args...),
		provider.WithLogger(logger),
	)

	return &session{
		cfg:      cfg,
		user:     user,
		detector: detector,
		provider: p,
		status:   status,
		worktree: probe.ExecLookup{},
	}, nil
}

// resolve runs GetBinaryPath and clears the status line.
func (s *session) resolve(ctx context.Context) (string, error) {
	path, err := s.provider.GetBinaryPath(ctx, languageServerID, s.worktree)
	s.status.Finish("")
	return path, err
}

// command runs Command and clears the status line.
func (s *session) command(ctx context.Context) (provider.Command, error) {
	c, err := s.provider.Command(ctx, languageServerID, s.worktree)
	s.status.Finish("")
	return c, err
}
