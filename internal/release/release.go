// Package release finds the newest published iwes release and the one asset
// in it built for the current platform.
package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/tsukumogami/iwes-fetch/internal/platform"
)

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name        string `json:"name" yaml:"name"`
	DownloadURL string `json:"download_url" yaml:"download_url"`
}

// Release is a published version and its assets.
type Release struct {
	// Version is the release tag, used verbatim for the version directory.
	Version string  `json:"version" yaml:"version"`
	Assets  []Asset `json:"assets" yaml:"assets"`
}

// Options controls which release counts as the latest.
type Options struct {
	// RequireAssets skips releases that have no assets attached.
	RequireAssets bool
	// AllowPrerelease lets prerelease tags win over stable ones.
	AllowPrerelease bool
}

// DefaultOptions requires assets and excludes prereleases.
func DefaultOptions() Options {
	return Options{RequireAssets: true}
}

// Index looks up releases published for a repository ("owner/name").
type Index interface {
	LatestRelease(ctx context.Context, repo string, opts Options) (*Release, error)
}

// Locate returns the newest release of repo matching opts.
// Every failure, including an empty release when assets are required,
// is returned as a *LookupError.
func Locate(ctx context.Context, idx Index, repo string, opts Options) (*Release, error) {
	rel, err := idx.LatestRelease(ctx, repo, opts)
	if err != nil {
		var lookupErr *LookupError
		if errors.As(err, &lookupErr) {
			return nil, err
		}
		return nil, &LookupError{
			Type:    ClassifyError(err),
			Repo:    repo,
			Message: "failed to fetch latest release",
			Err:     err,
		}
	}
	if rel == nil {
		return nil, &LookupError{Type: ErrTypeNotFound, Repo: repo, Message: "no release published"}
	}
	if opts.RequireAssets && len(rel.Assets) == 0 {
		return nil, &LookupError{
			Type:    ErrTypeNoAssets,
			Repo:    repo,
			Message: fmt.Sprintf("release %s has no assets", rel.Version),
		}
	}
	return rel, nil
}

// ExpectedAssetName is "<version>-<targetTriple>.<archiveExtension>".
func ExpectedAssetName(version string, desc platform.Descriptor) string {
	return fmt.Sprintf("%s-%s.%s", version, desc.TargetTriple, desc.ArchiveExtension)
}

// SelectAsset returns the asset whose name equals ExpectedAssetName exactly.
// Near matches are never accepted.
func SelectAsset(rel *Release, desc platform.Descriptor) (Asset, error) {
	want := ExpectedAssetName(rel.Version, desc)
	for _, a := range rel.Assets {
		if a.Name == want {
			return a, nil
		}
	}

	available := make([]string, 0, len(rel.Assets))
	for _, a := range rel.Assets {
		available = append(available, a.Name)
	}
	return Asset{}, &AssetNotFoundError{
		Expected:  want,
		Version:   rel.Version,
		Available: available,
	}
}
