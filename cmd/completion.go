package cmd

import (
	"github.com/spf13/cobra"

	"github.com/msalah0e/lombard/internal/config"
	"github.com/msalah0e/lombard/internal/layout"
)

// completionCmd generates shell completion scripts.
func completionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate completion scripts for your shell.

  # Bash (add to ~/.bashrc)
  eval "$(lombard completion bash)"

  # Zsh (add to ~/.zshrc)
  eval "$(lombard completion zsh)"

  # Fish
  lombard completion fish | source

  # PowerShell
  lombard completion powershell | Out-String | Invoke-Expression`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				_ = rootCmd.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				_ = rootCmd.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				_ = rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				_ = rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}

	return cmd
}

// layoutCompletionFunc completes layout names.
func layoutCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var completions []string
	for _, n := range layout.Names() {
		s, _ := layout.Lookup(string(n))
		completions = append(completions, string(n)+"\t"+s.Kind().String())
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// entityCompletionFunc completes entity names from the snapshot.
func entityCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if cfg == nil {
		cfg = config.Load()
	}
	e, err := openNetwork()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var completions []string
	for _, n := range e.Nodes() {
		completions = append(completions, n.Name+"\t"+string(n.Category))
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
