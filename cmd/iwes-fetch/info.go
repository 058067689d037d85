package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/iwes-fetch/internal/config"
	"github.com/tsukumogami/iwes-fetch/internal/httputil"
	"github.com/tsukumogami/iwes-fetch/internal/install"
	"github.com/tsukumogami/iwes-fetch/internal/platform"
	"github.com/tsukumogami/iwes-fetch/internal/probe"
	"github.com/tsukumogami/iwes-fetch/internal/release"
	"github.com/tsukumogami/iwes-fetch/internal/secrets"
	"github.com/tsukumogami/iwes-fetch/internal/userconfig"
)

var (
	infoJSON   bool
	infoRemote bool
)

// infoReport is the output of `iwes-fetch info`.
type infoReport struct {
	OS            platform.OS          `json:"os"`
	Arch          platform.Arch        `json:"arch"`
	Libc          string               `json:"libc,omitempty"`
	Supported     bool                 `json:"supported"`
	Descriptor    *platform.Descriptor `json:"descriptor,omitempty"`
	Home          string               `json:"home"`
	Repo          string               `json:"repo"`
	Channel       string               `json:"channel"`
	Installed     []string             `json:"installed"`
	OnPath        string               `json:"on_path,omitempty"`
	LatestVersion string               `json:"latest_version,omitempty"`
	ExpectedAsset string               `json:"expected_asset,omitempty"`
	AssetFound    *bool                `json:"asset_found,omitempty"`
	TokenSource   string               `json:"github_token_source,omitempty"`
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show platform, artifact, and installation details",
	Long: `Show the detected platform, the release artifact it maps to, and what is
installed under $IWES_HOME.

With --remote, also look up the latest release and check that it carries
this platform's asset.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg, user, err := loadSettings()
		if err != nil {
			fail(err)
		}
		detector, err := detectorFromFlags(ctx, osFlag, archFlag)
		if err != nil {
			printError(err)
			exitWithCode(ExitUsage)
		}

		var index release.Index
		if infoRemote {
			proxy := httputil.ProxyConfig(user.HTTPSProxy, user.NoProxy)
			token, _, _ := secrets.Lookup(secrets.GitHubToken, user.Secrets)
			index, err = release.NewGitHubIndex(
				release.WithHTTPClient(release.NewHTTPClient(proxy)),
				release.WithToken(token),
			)
			if err != nil {
				fail(err)
			}
		}

		report, err := buildInfo(ctx, cfg, user, detector, probe.ExecLookup{}, index)
		if err != nil {
			fail(err)
		}

		if infoJSON {
			printJSON(report)
			return
		}
		printInfoReport(cmd.OutOrStdout(), report)
	},
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Output in JSON format")
	infoCmd.Flags().BoolVar(&infoRemote, "remote", false, "Look up the latest release")
}

// buildInfo gathers the report. A nil index skips the release lookup.
func buildInfo(ctx context.Context, cfg *config.Config, user *userconfig.Config, d platform.Detector, lookup probe.PathLookup, index release.Index) (*infoReport, error) {
	host, err := d.Detect(ctx)
	if err != nil {
		return nil, err
	}

	r := &infoReport{
		OS:      host.OS,
		Arch:    host.Arch,
		Libc:    host.Libc,
		Home:    cfg.HomeDir,
		Repo:    user.Repo,
		Channel: user.Channel,
	}

	binaryName := platform.BinaryStem
	desc, err := platform.Resolve(host.OS, host.Arch)
	if err == nil {
		r.Supported = true
		r.Descriptor = &desc
		binaryName = desc.BinaryFileName
	}

	r.Installed, err = install.Installed(cfg.VersionsDir, binaryName)
	if err != nil {
		return nil, err
	}
	if r.Installed == nil {
		r.Installed = []string{}
	}

	if p, ok := lookup.Which(platform.BinaryStem); ok {
		r.OnPath = p
	}

	if _, source, err := secrets.Lookup(secrets.GitHubToken, user.Secrets); err == nil {
		r.TokenSource = source
	}

	if index == nil {
		return r, nil
	}

	rel, err := release.Locate(ctx, index, user.Repo, release.Options{
		RequireAssets:   true,
		AllowPrerelease: user.AllowPrerelease(),
	})
	if err != nil {
		return nil, err
	}
	r.LatestVersion = rel.Version
	if r.Supported {
		r.ExpectedAsset = release.ExpectedAssetName(rel.Version, desc)
		_, selErr := release.SelectAsset(rel, desc)
		found := selErr == nil
		r.AssetFound = &found
	}
	return r, nil
}

func printInfoReport(w io.Writer, r *infoReport) {
	fmt.Fprintf(w, "Platform:    %s/%s", r.OS, r.Arch)
	if r.Libc != "" {
		fmt.Fprintf(w, " (%s)", r.Libc)
	}
	fmt.Fprintln(w)

	if r.Descriptor != nil {
		fmt.Fprintf(w, "Triple:      %s\n", r.Descriptor.TargetTriple)
		fmt.Fprintf(w, "Archive:     %s\n", r.Descriptor.ArchiveExtension)
		fmt.Fprintf(w, "Binary:      %s\n", r.Descriptor.BinaryFileName)
	} else {
		fmt.Fprintln(w, "Triple:      (unsupported platform)")
	}

	fmt.Fprintf(w, "Home:        %s\n", r.Home)
	fmt.Fprintf(w, "Repository:  %s (%s)\n", r.Repo, r.Channel)
	if r.TokenSource != "" {
		fmt.Fprintf(w, "Token:       from %s\n", r.TokenSource)
	} else {
		fmt.Fprintln(w, "Token:       (anonymous)")
	}

	if len(r.Installed) == 0 {
		fmt.Fprintln(w, "Installed:   (none)")
	} else {
		fmt.Fprintf(w, "Installed:   %s\n", r.Installed[0])
		for _, v := range r.Installed[1:] {
			fmt.Fprintf(w, "             %s\n", v)
		}
	}
	if r.OnPath != "" {
		fmt.Fprintf(w, "On PATH:     %s\n", r.OnPath)
	}

	if r.LatestVersion != "" {
		fmt.Fprintf(w, "Latest:      %s\n", r.LatestVersion)
	}
	if r.ExpectedAsset != "" {
		status := "missing"
		if r.AssetFound != nil && *r.AssetFound {
			status = "published"
		}
		fmt.Fprintf(w, "Asset:       %s (%s)\n", r.ExpectedAsset, status)
	}
}
