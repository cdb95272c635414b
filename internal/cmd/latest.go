package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamancini/sideload/internal/exitcodes"
	"github.com/adamancini/sideload/internal/output"
	"github.com/adamancini/sideload/internal/update"
)

type latestOptions struct {
	repo    string
	current string
	asset   string
	apiURL  string
	install bool
}

// releaseView renders a release check as text.
type releaseView struct {
	*update.ReleaseInfo
}

func (v releaseView) RenderText(s output.Styles) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", s.Label.Render("Current:"), orDash(v.CurrentVersion))
	fmt.Fprintf(&b, "%s  %s\n", s.Label.Render("Latest:"), v.LatestVersion)
	fmt.Fprintf(&b, "%s   %s\n", s.Label.Render("Asset:"), v.AssetName)
	if v.Available {
		fmt.Fprintf(&b, "%s", s.OK.Render("A newer release is available"))
	} else {
		fmt.Fprintf(&b, "%s", s.Dim.Render("Already up to date"))
	}
	return b.String()
}

func writeRelease(out *output.Writer, info *update.ReleaseInfo) error {
	if out.Format() == output.FormatText {
		return out.Write(releaseView{info})
	}
	return out.Write(info)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newLatestCmd() *cobra.Command {
	opts := latestOptions{}

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Check a GitHub repository for a newer package release",
		Long: `Looks up the latest GitHub release of a repository and picks its package
asset. With --install a newer package is downloaded and installed the same way
as 'sideload install'.

A token in GITHUB_TOKEN is sent with the API request when set.`,
		Example: `  sideload latest --repo example/app --current 1.2.0
  sideload latest --repo example/app --current 1.2.0 --install`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLatest(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.repo, "repo", "", "GitHub repository as owner/name")
	cmd.Flags().StringVar(&opts.current, "current", "", "Installed version to compare against")
	cmd.Flags().StringVar(&opts.asset, "asset", "", "Exact asset name (default: first "+update.PackageExtension+" asset)")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "GitHub API base URL")
	cmd.Flags().BoolVar(&opts.install, "install", false, "Download and install the release when it is newer")
	_ = cmd.MarkFlagRequired("repo")

	return cmd
}

func runLatest(ctx context.Context, stdout, stderr io.Writer, opts latestOptions) error {
	owner, repo, ok := strings.Cut(opts.repo, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return exitcodes.InvalidArgsError(fmt.Sprintf("--repo must be owner/name, got %q", opts.repo))
	}

	out, err := newOutputWriter(stdout)
	if err != nil {
		return err
	}

	checker := update.NewReleaseChecker(opts.current, owner, repo).
		WithToken(os.Getenv("GITHUB_TOKEN")).
		WithAsset(opts.asset)
	if opts.apiURL != "" {
		checker = checker.WithBaseURL(opts.apiURL)
	}

	info, err := checker.Check(ctx)
	if err != nil {
		return exitcodes.WrapError(exitcodes.NetworkError, err)
	}

	if !opts.install || !info.Available {
		if opts.install && quiet {
			return nil
		}
		return writeRelease(out, info)
	}

	if out.Format() == output.FormatText && !quiet {
		fmt.Fprintf(stderr, "Installing %s %s\n", info.AssetName, info.LatestVersion)
	}
	req := info.Request()
	return runInstall(ctx, stdout, stderr, installOptions{url: req.URL, fileName: req.FileName})
}
