package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/adamancini/sideload/internal/exitcodes"
	"github.com/adamancini/sideload/internal/update"
)

type installOptions struct {
	url      string
	fileName string
}

func newInstallCmd() *cobra.Command {
	opts := installOptions{}

	cmd := &cobra.Command{
		Use:   "install [url]",
		Short: "Download a package and launch the installer",
		Long: `Downloads the package at the given URL into the cache directory and hands
it to the platform installer.

Release builds accept https only. Debug builds also accept http unless the
policy forbids it. Redirects are followed up to fetch.max_hops times and each
target is checked against the same policy.

Exit codes:
  0  installer launched
  2  URL rejected
  3  unknown-sources permission missing (settings screen opened)
  4  redirect, HTTP status or transport failure
  5  installer could not be started`,
		Example: `  sideload install https://example.com/app-1.2.0.apk
  sideload install --url https://example.com/latest --file-name app.apk
  sideload install -o json https://example.com/app.apk`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if opts.url != "" {
					return exitcodes.InvalidArgsError("give the URL either as an argument or with --url")
				}
				opts.url = args[0]
			}
			return runInstall(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "URL of the package to download")
	cmd.Flags().StringVar(&opts.fileName, "file-name", "", "Name of the cached file (default "+update.DefaultFileName+")")

	return cmd
}

// runInstall hands the request to the Updater as given. A missing URL is
// rejected there so it is reported like every other outcome.
func runInstall(ctx context.Context, stdout, stderr io.Writer, opts installOptions) error {
	out, err := newOutputWriter(stdout)
	if err != nil {
		return err
	}

	rt, err := newSession(nil)
	if err != nil {
		return err
	}
	defer rt.close()

	var progress update.ProgressFunc
	bar := newProgress(stderr, out.Format(), update.SanitizeFileName(opts.fileName))
	if bar != nil {
		progress = bar.Update
	}

	res, err := rt.newUpdater(progress).DownloadAndInstall(ctx, update.Request{URL: opts.url, FileName: opts.fileName})
	if bar != nil {
		bar.Done()
	}
	return reportOutcome(out, res, err)
}
