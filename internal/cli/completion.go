package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for tableau.

Bash:
  $ source <(tableau completion bash)

Zsh:
  $ tableau completion zsh > "${fpath[1]}/_tableau"

Fish:
  $ tableau completion fish | source

PowerShell:
  PS> tableau completion powershell | Out-String | Invoke-Expression

Knowledge base arguments complete to *.toml files.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
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
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}

	return cmd
}

// completeKB limits shell completion of the knowledge base argument to
// TOML files.
func completeKB(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"toml"}, cobra.ShellCompDirectiveFilterFileExt
}

// completeBlocking completes the --blocking flag.
func completeBlocking(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"auto\tpick from the role box",
		"subset\tblocker labels contained in the blocked node's",
		"equality\tidentical labels",
		"double\tpairwise, for inverse roles with functional or transitive ones",
	}, cobra.ShellCompDirectiveNoFileComp
}
