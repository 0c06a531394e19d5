package commands

import (
	"github.com/spf13/cobra"
)

// NewCompletionCommand creates the completion command for shell completions
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for the fyeah CLI.

To load completions:

Bash:

  $ source <(fyeah completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ fyeah completion bash > /etc/bash_completion.d/fyeah
  # macOS:
  $ fyeah completion bash > $(brew --prefix)/etc/bash_completion.d/fyeah

Zsh:

  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:

  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ fyeah completion zsh > "${fpath[1]}/_fyeah"

  # You will need to start a new shell for this setup to take effect.

Fish:

  $ fyeah completion fish | source

  # To load completions for each session, execute once:
  $ fyeah completion fish > ~/.config/fish/completions/fyeah.fish

PowerShell:

  PS> fyeah completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> fyeah completion powershell > fyeah.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// shell scripts do not depend on fyeah.yaml
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			out := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}
