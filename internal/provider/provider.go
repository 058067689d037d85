// Package provider resolves a runnable iwes binary for a host editor.
//
// A Provider is created once per host session. GetBinaryPath tries the
// in-memory path and the search path first, and only then looks up the
// latest release and installs it. The resolved path is remembered until the
// file disappears.
package provider

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/tsukumogami/iwes-fetch/internal/config"
	"github.com/tsukumogami/iwes-fetch/internal/log"
	"github.com/tsukumogami/iwes-fetch/internal/platform"
	"github.com/tsukumogami/iwes-fetch/internal/probe"
	"github.com/tsukumogami/iwes-fetch/internal/release"
)

// Worktree is the host's view of the execution environment.
type Worktree interface {
	// Which looks name up on the worktree's search path.
	Which(name string) (string, bool)
}

// Installer places a release asset on disk and returns the binary path.
type Installer interface {
	EnsureInstalled(ctx context.Context, rel *release.Release, asset release.Asset, desc platform.Descriptor, onDownload func()) (string, error)
}

// Command is what the host runs to start the language server.
type Command struct {
	Path string            `json:"path" yaml:"path"`
	Args []string          `json:"args" yaml:"args"`
	Env  map[string]string `json:"env" yaml:"env"`
}

// Provider owns the resolved binary path for one host session.
type Provider struct {
	index     release.Index
	installer Installer
	detector  platform.Detector
	notifier  Notifier
	repo      string
	opts      release.Options
	usePath   bool
	args      []string
	env       map[string]string
	logger    log.Logger

	mu         sync.Mutex
	cachedPath string
	group      singleflight.Group
}

// Option configures a Provider.
type Option func(*Provider)

// WithDetector overrides host platform detection.
func WithDetector(d platform.Detector) Option {
	return func(p *Provider) { p.detector = d }
}

// WithNotifier receives installation status events.
func WithNotifier(n Notifier) Option {
	return func(p *Provider) { p.notifier = n }
}

// WithRepo sets the "owner/name" repository releases are looked up in.
func WithRepo(repo string) Option {
	return func(p *Provider) { p.repo = repo }
}

// WithReleaseOptions controls which release counts as the latest.
func WithReleaseOptions(opts release.Options) Option {
	return func(p *Provider) { p.opts = opts }
}

// WithSearchPath enables or disables the search-path probe.
func WithSearchPath(enabled bool) Option {
	return func(p *Provider) { p.usePath = enabled }
}

// WithArgs sets the arguments returned by Command.
func WithArgs(args ...string) Option {
	return func(p *Provider) { p.args = args }
}

// WithEnv sets the environment returned by Command.
func WithEnv(env map[string]string) Option {
	return func(p *Provider) { p.env = env }
}

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l log.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// New creates a Provider that looks releases up in index and installs them
// with installer.
func New(index release.Index, installer Installer, opts ...Option) *Provider {
	p := &Provider{
		index:     index,
		installer: installer,
		detector:  platform.SystemDetector{},
		notifier:  discardNotifier{},
		repo:      config.DefaultRepo,
		opts:      release.DefaultOptions(),
		usePath:   true,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.notifier == nil {
		p.notifier = discardNotifier{}
	}
	p.logger = log.OrDefault(p.logger)
	return p
}

// CachedPath returns the remembered binary path, if any.
func (p *Provider) CachedPath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cachedPath
}

// Reset forgets the remembered path.
func (p *Provider) Reset() {
	p.setCached("")
}

func (p *Provider) setCached(path string) {
	p.mu.Lock()
	p.cachedPath = path
	p.mu.Unlock()
}

// GetBinaryPath returns a path to a runnable iwes binary.
//
// A remembered path that still exists is returned without further work, as
// is a binary found on the worktree's search path. Otherwise the latest
// release is located and installed. Errors from any stage are returned
// unchanged and leave the remembered path untouched. Concurrent callers
// share one resolution.
func (p *Provider) GetBinaryPath(ctx context.Context, id LanguageServerID, wt Worktree) (string, error) {
	var lookup probe.PathLookup
	if p.usePath && wt != nil {
		lookup = wt
	}

	res := probe.Probe(p.CachedPath(), lookup, platform.BinaryStem)
	if res.Found() {
		p.logger.Debug("using existing binary", "path", res.Path, "source", string(res.Source))
		p.setCached(res.Path)
		return res.Path, nil
	}

	v, err, shared := p.group.Do(string(id), func() (any, error) {
		return p.resolve(ctx, id)
	})
	if err != nil {
		return "", err
	}
	if shared {
		p.logger.Debug("joined in-flight resolution", "id", string(id))
	}
	return v.(string), nil
}

func (p *Provider) resolve(ctx context.Context, id LanguageServerID) (string, error) {
	p.notifier.Notify(id, StatusCheckingForUpdate)

	rel, err := release.Locate(ctx, p.index, p.repo, p.opts)
	if err != nil {
		return "", err
	}

	host, desc, err := platform.Current(ctx, p.detector)
	if err != nil {
		return "", err
	}
	if host.Libc == platform.LibcMusl {
		p.logger.Warn("iwes is built against glibc; it may not run on a musl system", "triple", desc.TargetTriple)
	}

	asset, err := release.SelectAsset(rel, desc)
	if err != nil {
		return "", err
	}

	path, err := p.installer.EnsureInstalled(ctx, rel, asset, desc, func() {
		p.notifier.Notify(id, StatusDownloading)
	})
	if err != nil {
		return "", err
	}

	p.setCached(path)
	p.logger.Info("resolved iwes binary", "version", rel.Version, "path", path)
	return path, nil
}

// Command resolves the binary and returns the command the host should run.
func (p *Provider) Command(ctx context.Context, id LanguageServerID, wt Worktree) (Command, error) {
	path, err := p.GetBinaryPath(ctx, id, wt)
	if err != nil {
		return Command{}, err
	}

	args := make([]string, len(p.args))
	copy(args, p.args)
	env := make(map[string]string, len(p.env))
	for k, v := range p.env {
		env[k] = v
	}
	return Command{Path: path, Args: args, Env: env}, nil
}
