package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v57/github"
	"golang.org/x/net/http/httpproxy"
	"golang.org/x/oauth2"

	"github.com/tsukumogami/iwes-fetch/internal/buildinfo"
	"github.com/tsukumogami/iwes-fetch/internal/config"
	"github.com/tsukumogami/iwes-fetch/internal/httputil"
	"github.com/tsukumogami/iwes-fetch/internal/log"
)

const (
	releasesPerPage = 50
	// defaultMaxPages bounds the prerelease scan to the newest 150 releases.
	defaultMaxPages = 3
)

// GitHubIndex resolves releases through the GitHub REST API.
type GitHubIndex struct {
	client        *github.Client
	authenticated bool
	maxPages      int
	logger        log.Logger
}

type githubSettings struct {
	httpClient *http.Client
	token      string
	baseURL    string
	maxPages   int
	logger     log.Logger
}

// GitHubOption configures a GitHubIndex.
type GitHubOption func(*githubSettings)

// WithHTTPClient replaces the default secure client.
func WithHTTPClient(c *http.Client) GitHubOption {
	return func(s *githubSettings) { s.httpClient = c }
}

// WithToken authenticates API requests. An empty token sends anonymous requests.
func WithToken(token string) GitHubOption {
	return func(s *githubSettings) { s.token = token }
}

// WithBaseURL points the index at another API root (GitHub Enterprise, tests).
func WithBaseURL(u string) GitHubOption {
	return func(s *githubSettings) { s.baseURL = u }
}

// WithMaxPages bounds how many release pages the prerelease scan reads.
func WithMaxPages(n int) GitHubOption {
	return func(s *githubSettings) { s.maxPages = n }
}

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l log.Logger) GitHubOption {
	return func(s *githubSettings) { s.logger = l }
}

// NewHTTPClient returns the hardened client used for API requests, with the
// IWES_API_TIMEOUT timeout. A nil proxy uses the environment.
func NewHTTPClient(proxy *httpproxy.Config) *http.Client {
	return httputil.NewSecureClient(httputil.ClientOptions{
		Timeout:      config.GetAPITimeout(),
		DialTimeout:  10 * time.Second,
		MaxRedirects: 5,
		Proxy:        proxy,
	})
}

// NewGitHubIndex creates an index. Without WithToken, GITHUB_TOKEN is used
// when set.
func NewGitHubIndex(opts ...GitHubOption) (*GitHubIndex, error) {
	s := githubSettings{
		token:    config.GetGitHubToken(),
		maxPages: defaultMaxPages,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.httpClient == nil {
		s.httpClient = NewHTTPClient(nil)
	}
	if s.maxPages < 1 {
		s.maxPages = 1
	}

	httpClient := s.httpClient
	if s.token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, s.httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.token}))
	}

	client := github.NewClient(httpClient)
	client.UserAgent = buildinfo.UserAgent()
	if s.baseURL != "" {
		base := s.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", s.baseURL, err)
		}
		client.BaseURL = u
	}

	return &GitHubIndex{
		client:        client,
		authenticated: s.token != "",
		maxPages:      s.maxPages,
		logger:        log.OrDefault(s.logger),
	}, nil
}

// Authenticated reports whether requests carry a token.
func (g *GitHubIndex) Authenticated() bool {
	return g.authenticated
}

// LatestRelease returns the newest release of repo.
//
// The stable channel asks GitHub for its "latest" release. If that release
// has no assets while assets are required, or the repository has no latest
// release at all, the release list is scanned instead. The prerelease channel
// always scans: drafts are skipped and the highest semantic version wins.
func (g *GitHubIndex) LatestRelease(ctx context.Context, repo string, opts Options) (*Release, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	if !opts.AllowPrerelease {
		rel, _, err := g.client.Repositories.GetLatestRelease(ctx, owner, name)
		switch {
		case err == nil && (!opts.RequireAssets || len(rel.Assets) > 0):
			g.logger.Debug("latest release", "repo", repo, "tag", rel.GetTagName())
			return convertRelease(rel), nil
		case err == nil:
			g.logger.Info("latest release has no assets, scanning older releases", "repo", repo, "tag", rel.GetTagName())
		case isNotFound(err):
			g.logger.Debug("no latest release, scanning release list", "repo", repo)
		default:
			return nil, g.wrapError(err, repo, "failed to fetch latest release")
		}
	}

	return g.scanReleases(ctx, owner, name, opts)
}

func (g *GitHubIndex) scanReleases(ctx context.Context, owner, name string, opts Options) (*Release, error) {
	repo := owner + "/" + name
	var (
		best    *github.RepositoryRelease
		bestVer *semver.Version
	)

	listOpts := &github.ListOptions{PerPage: releasesPerPage}
	for page := 0; page < g.maxPages; page++ {
		releases, resp, err := g.client.Repositories.ListReleases(ctx, owner, name, listOpts)
		if err != nil {
			return nil, g.wrapError(err, repo, "failed to list releases")
		}

		for _, r := range releases {
			if r.GetDraft() {
				continue
			}
			if r.GetPrerelease() && !opts.AllowPrerelease {
				continue
			}
			if opts.RequireAssets && len(r.Assets) == 0 {
				continue
			}
			v := parseTag(r.GetTagName())
			switch {
			case best == nil:
				best, bestVer = r, v
			case v != nil && (bestVer == nil || v.GreaterThan(bestVer)):
				best, bestVer = r, v
			}
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}

	if best == nil {
		return nil, &LookupError{
			Type:          ErrTypeNotFound,
			Repo:          repo,
			Message:       "no matching release published",
			Authenticated: g.authenticated,
		}
	}
	g.logger.Debug("selected release from list", "repo", repo, "tag", best.GetTagName())
	return convertRelease(best), nil
}

func (g *GitHubIndex) wrapError(err error, repo, msg string) *LookupError {
	lookupErr := &LookupError{
		Type:          ClassifyError(err),
		Repo:          repo,
		Message:       msg,
		Err:           err,
		Authenticated: g.authenticated,
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	switch {
	case errors.As(err, &rateErr):
		lookupErr.Type = ErrTypeRateLimit
		lookupErr.ResetTime = rateErr.Rate.Reset.Time
	case errors.As(err, &abuseErr):
		lookupErr.Type = ErrTypeRateLimit
		if d := abuseErr.GetRetryAfter(); d > 0 {
			lookupErr.ResetTime = time.Now().Add(d)
		}
	case isNotFound(err):
		lookupErr.Type = ErrTypeNotFound
	}
	return lookupErr
}

func isNotFound(err error) bool {
	var respErr *github.ErrorResponse
	return errors.As(err, &respErr) && respErr.Response != nil &&
		respErr.Response.StatusCode == http.StatusNotFound
}

func splitRepo(repo string) (string, string, error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &LookupError{
			Type:    ErrTypeInvalidRepo,
			Repo:    repo,
			Message: "expected owner/name",
		}
	}
	return parts[0], parts[1], nil
}

// parseTag reads a semantic version from a tag, ignoring any prefix before
// the first digit ("v1.2.3", "iwe-v0.0.30"). Returns nil if none is found.
func parseTag(tag string) *semver.Version {
	i := strings.IndexFunc(tag, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		return nil
	}
	v, err := semver.NewVersion(tag[i:])
	if err != nil {
		return nil
	}
	return v
}

// IsPrerelease reports whether a tag carries a semver prerelease suffix.
func IsPrerelease(tag string) bool {
	v := parseTag(tag)
	return v != nil && v.Prerelease() != ""
}

func convertRelease(r *github.RepositoryRelease) *Release {
	rel := &Release{Version: r.GetTagName()}
	for _, a := range r.Assets {
		rel.Assets = append(rel.Assets, Asset{
			Name:        a.GetName(),
			DownloadURL: a.GetBrowserDownloadURL(),
		})
	}
	return rel
}
