package functional

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/tsukumogami/iwes-fetch/internal/download"
	"github.com/tsukumogami/iwes-fetch/internal/errmsg"
	"github.com/tsukumogami/iwes-fetch/internal/install"
	"github.com/tsukumogami/iwes-fetch/internal/log"
	"github.com/tsukumogami/iwes-fetch/internal/platform"
	"github.com/tsukumogami/iwes-fetch/internal/provider"
	"github.com/tsukumogami/iwes-fetch/internal/release"
	"github.com/tsukumogami/iwes-fetch/internal/testutil"
)

type searchPath map[string]string

func (p searchPath) Which(name string) (string, bool) {
	v, ok := p[name]
	return v, ok
}

func theHostIs(ctx context.Context, osName, archName string) (context.Context, error) {
	state := getState(ctx)
	o, err := platform.ParseOS(osName)
	if err != nil {
		return ctx, err
	}
	a, err := platform.ParseArch(archName)
	if err != nil {
		return ctx, err
	}
	state.host = platform.Host{OS: o, Arch: a}
	return ctx, nil
}

// archiveFor builds a fixture archive holding the binary for the asset's format.
func (s *testState) archiveFor(name string) []byte {
	if strings.HasSuffix(name, ".zip") {
		return testutil.Zip(s.t, testutil.File{Name: "iwes.exe", Content: "MZ"})
	}
	return testutil.TarGz(s.t, testutil.File{Name: "iwes", Content: "#!/bin/sh\n", Mode: 0o755})
}

func theLatestReleaseIsWithAssets(ctx context.Context, version string, table *godog.Table) (context.Context, error) {
	state := getState(ctx)
	rel := &ghRelease{Tag: version}
	for i, row := range table.Rows {
		if i == 0 {
			continue // header
		}
		name := row.Cells[0].Value
		state.assets["/"+name] = state.archiveFor(name)
		rel.Assets = append(rel.Assets, ghAsset{Name: name, URL: state.files.URL + "/" + name})
	}
	state.latest = rel
	return ctx, nil
}

func theLatestReleaseHasEmptyArchive(ctx context.Context, version string) (context.Context, error) {
	state := getState(ctx)
	desc, err := platform.Resolve(state.host.OS, state.host.Arch)
	if err != nil {
		return ctx, err
	}
	name := release.ExpectedAssetName(version, desc)
	state.assets["/"+name] = testutil.TarGz(state.t, testutil.File{Name: "README.md", Content: "docs"})
	state.latest = &ghRelease{Tag: version, Assets: []ghAsset{{Name: name, URL: state.files.URL + "/" + name}}}
	return ctx, nil
}

func isOnTheSearchPath(ctx context.Context, name string) (context.Context, error) {
	state := getState(ctx)
	state.onPath = filepath.Join(state.homeDir, "path-bin", name)
	if err := os.MkdirAll(filepath.Dir(state.onPath), 0o755); err != nil {
		return ctx, err
	}
	return ctx, os.WriteFile(state.onPath, []byte("#!/bin/sh\n"), 0o755)
}

func versionIsAlreadyInstalled(ctx context.Context, version string) (context.Context, error) {
	state := getState(ctx)
	desc, err := platform.Resolve(state.host.OS, state.host.Arch)
	if err != nil {
		return ctx, err
	}
	dir := filepath.Join(state.versionsDir(), version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ctx, err
	}
	return ctx, os.WriteFile(filepath.Join(dir, desc.BinaryFileName), []byte("old"), 0o755)
}

func (s *testState) newProvider() (*provider.Provider, error) {
	if err := os.MkdirAll(s.versionsDir(), 0o755); err != nil {
		return nil, err
	}

	index, err := release.NewGitHubIndex(
		release.WithHTTPClient(s.api.Client()),
		release.WithBaseURL(s.api.URL),
		release.WithToken(""),
		release.WithLogger(log.NewNoop()),
	)
	if err != nil {
		return nil, err
	}

	d := download.New(
		download.WithClient(s.files.Client()),
		download.WithRetries(1, time.Millisecond),
		download.WithLogger(log.NewNoop()),
	)
	installer := install.New(s.versionsDir(), d,
		install.WithLocker(install.NewFileLocker(filepath.Join(s.homeDir, "install.lock"))),
		install.WithLogger(log.NewNoop()),
	)

	return provider.New(index, installer,
		provider.WithDetector(platform.FixedDetector{Host: s.host}),
		provider.WithLogger(log.NewNoop()),
	), nil
}

func iResolveTheBinaryPath(ctx context.Context) (context.Context, error) {
	state := getState(ctx)
	if state.provider == nil {
		p, err := state.newProvider()
		if err != nil {
			return ctx, err
		}
		state.provider = p
	}

	wt := searchPath{}
	if state.onPath != "" {
		wt[platform.BinaryStem] = state.onPath
	}
	state.path, state.err = state.provider.GetBinaryPath(ctx, "iwes", wt)
	return ctx, nil
}

func iResolveInANewSession(ctx context.Context) (context.Context, error) {
	getState(ctx).provider = nil
	return iResolveTheBinaryPath(ctx)
}

func theResolvedBinaryIsDeleted(ctx context.Context) (context.Context, error) {
	state := getState(ctx)
	if state.path == "" {
		return ctx, errors.New("nothing was resolved")
	}
	return ctx, os.Remove(state.path)
}

func theResolvedPathIs(ctx context.Context, want string) error {
	state := getState(ctx)
	if state.err != nil {
		return fmt.Errorf("resolution failed: %v", state.err)
	}
	rel, err := filepath.Rel(state.versionsDir(), state.path)
	if err != nil {
		return err
	}
	if filepath.ToSlash(rel) != want {
		return fmt.Errorf("expected resolved path %q, got %q", want, filepath.ToSlash(rel))
	}
	if _, err := os.Stat(state.path); err != nil {
		return fmt.Errorf("resolved path does not exist: %v", err)
	}
	return nil
}

func theResolvedPathIsTheSearchPathBinary(ctx context.Context) error {
	state := getState(ctx)
	if state.err != nil {
		return fmt.Errorf("resolution failed: %v", state.err)
	}
	if state.path != state.onPath {
		return fmt.Errorf("expected %q, got %q", state.onPath, state.path)
	}
	return nil
}

func resolutionFailsWith(ctx context.Context, kind string) error {
	state := getState(ctx)
	if state.err == nil {
		return fmt.Errorf("expected %s, resolution succeeded with %q", kind, state.path)
	}
	if got := errmsg.Classify(state.err).String(); got != kind {
		return fmt.Errorf("expected %s, got %s: %v", kind, got, state.err)
	}
	return nil
}

func theErrorMentions(ctx context.Context, text string) error {
	state := getState(ctx)
	if state.err == nil || !strings.Contains(state.err.Error(), text) {
		return fmt.Errorf("expected error to mention %q, got: %v", text, state.err)
	}
	return nil
}

func theReleaseIndexWasQueried(ctx context.Context, n int) error {
	if got := getState(ctx).apiCalls.Load(); got != int64(n) {
		return fmt.Errorf("expected %d release lookups, got %d", n, got)
	}
	return nil
}

func downloadsHappened(ctx context.Context, n int) error {
	if got := getState(ctx).files.Hits(); got != int64(n) {
		return fmt.Errorf("expected %d downloads, got %d", n, got)
	}
	return nil
}

func listVersions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func theVersionsDirectoryContainsOnly(ctx context.Context, version string) error {
	names, err := listVersions(getState(ctx).versionsDir())
	if err != nil {
		return err
	}
	if len(names) != 1 || names[0] != version {
		return fmt.Errorf("expected only %q, got %v", version, names)
	}
	return nil
}

func theVersionsDirectoryIsEmpty(ctx context.Context) error {
	names, err := listVersions(getState(ctx).versionsDir())
	if err != nil {
		return err
	}
	if len(names) != 0 {
		return fmt.Errorf("expected no versions, got %v", names)
	}
	return nil
}
