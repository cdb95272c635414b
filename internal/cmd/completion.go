package cmd

import (
	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for sideload.

To load completions:

Bash:
  $ source <(sideload completion bash)

  # To load completions for each session, execute once:
  $ sideload completion bash > /etc/bash_completion.d/sideload

Zsh:
  $ sideload completion zsh > "${fpath[1]}/_sideload"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ sideload completion fish > ~/.config/fish/completions/sideload.fish
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			}
			return nil
		},
	}
}
