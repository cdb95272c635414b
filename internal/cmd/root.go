package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adamancini/sideload/internal/types"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	buildFlag    string
	verbose      bool
	quiet        bool
)

// buildInfo is set by Execute from the linker flags of main.
type buildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Execute runs the CLI. Interrupts cancel the running command's context.
func Execute(version, commit, date string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(buildInfo{Version: version, Commit: commit, Date: date}).ExecuteContext(ctx)
}

func newRootCmd(info buildInfo) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sideload",
		Short: "Download application packages and hand them to the platform installer",
		Long: `sideload downloads an application package over https, stores it in a private
cache directory and asks the platform installer to install it.

Installs from unknown sources need a one-time permission. When it is missing,
sideload opens the settings screen and reports NEEDS_UNKNOWN_SOURCES_PERMISSION
instead of downloading.`,
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml, toml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&buildFlag, "build", "", "Build type of the host: release, debug (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	// Add subcommands
	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newLatestCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newVersionCmd(info))
	rootCmd.AddCommand(newCompletionCmd())

	// Register completion functions for enum flags
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml", "toml"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("build", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, b := range types.AllBuildTypes() {
			names = append(names, b.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd
}
