package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adamancini/sideload/internal/cache"
	"github.com/adamancini/sideload/internal/output"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage downloaded packages",
		Long: `Cache manages the packages downloaded into the cache directory (cache_dir).

Packages stay in the cache after the installer was launched. Use
'sideload cache prune' to remove old ones.

On unix hosts each package has a <name>.lock file that serializes concurrent
installs of the same name. Deleting a package removes its lock file, and prune
also removes lock files whose package is gone.`,
	}

	cmd.AddCommand(newCacheListCmd())
	cmd.AddCommand(newCacheDeleteCmd())
	cmd.AddCommand(newCachePruneCmd())

	return cmd
}

func newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheList(cmd.OutOrStdout())
		},
	}
}

func newCacheDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a cached package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheDelete(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func newCachePruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old packages",
		Long: `Prune deletes old packages, keeping only the most recent N.

A package that is being downloaded or handed to the installer is deleted only
after that invocation has issued its install request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCachePrune(cmd.Context(), cmd.OutOrStdout(), keep)
		},
	}

	cmd.Flags().IntVar(&keep, "keep", cache.DefaultKeepCount, "Number of packages to keep")

	return cmd
}

func newCacheManager() (*cache.Manager, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return cache.NewManager(cfg.CacheDir), nil
}

func runCacheList(stdout io.Writer) error {
	manager, err := newCacheManager()
	if err != nil {
		return err
	}

	pkgs, err := manager.List()
	if err != nil {
		return err
	}

	out, err := newOutputWriter(stdout)
	if err != nil {
		return err
	}
	if out.Format() != output.FormatText {
		return out.Write(pkgs)
	}

	if len(pkgs) == 0 {
		fmt.Fprintln(stdout, "No cached packages.")
		fmt.Fprintf(stdout, "Cache directory: %s\n", manager.Dir())
		return nil
	}

	fmt.Fprintf(stdout, "Packages cached in %s:\n\n", manager.Dir())

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "Name\tModified\tSize")
	for _, p := range pkgs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n",
			p.Name,
			p.ModifiedAt.Format("2006-01-02 15:04:05"),
			output.HumanBytes(p.Size),
		)
	}
	return w.Flush()
}

func runCacheDelete(ctx context.Context, stdout io.Writer, name string) error {
	manager, err := newCacheManager()
	if err != nil {
		return err
	}

	if err := manager.Delete(ctx, name); err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(stdout, "Deleted %s\n", name)
	}
	return nil
}

func runCachePrune(ctx context.Context, stdout io.Writer, keep int) error {
	manager, err := newCacheManager()
	if err != nil {
		return err
	}

	result, err := manager.Prune(ctx, keep)
	if err != nil {
		return err
	}

	out, err := newOutputWriter(stdout)
	if err != nil {
		return err
	}
	if out.Format() != output.FormatText {
		return out.Write(result)
	}

	if quiet {
		return nil
	}
	if result.LocksRemoved > 0 {
		fmt.Fprintf(stdout, "Removed %d orphaned lock files\n", result.LocksRemoved)
	}
	if len(result.Deleted) == 0 {
		fmt.Fprintf(stdout, "Nothing to prune (%d packages)\n", result.Kept)
		return nil
	}
	for _, p := range result.Deleted {
		fmt.Fprintf(stdout, "Deleted %s\n", p.Name)
	}
	fmt.Fprintf(stdout, "Kept %d, freed %s\n", result.Kept, output.HumanBytes(result.Freed()))
	return nil
}
