package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightfastai/cchooks/internal/config"
	"github.com/lightfastai/cchooks/internal/registry"
	"github.com/lightfastai/cchooks/internal/settings"
	"github.com/lightfastai/cchooks/internal/templates"
	"github.com/lightfastai/cchooks/pkg/hooks"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish]",
	Short: "Generate completion script",
	Long: `To load completions:

Bash:

  $ source <(cchooks completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ cchooks completion bash > /etc/bash_completion.d/cchooks
  # macOS:
  $ cchooks completion bash > $(brew --prefix)/etc/bash_completion.d/cchooks

Zsh:

  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:

  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ cchooks completion zsh > "${fpath[1]}/_cchooks"

  # You will need to start a new shell for this setup to take effect.

Fish:

  $ cchooks completion fish | source

  # To load completions for each session, execute once:
  $ cchooks completion fish > ~/.config/fish/completions/cchooks.fish
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(out)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		default:
			return fmt.Errorf("unsupported shell type %q", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// eventCompletion completes the first positional argument with hook event names
func eventCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 && cmd.Flags().Lookup("event") == nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	return hooks.EventNames(), cobra.ShellCompDirectiveNoFileComp
}

// levelCompletion provides the settings levels
func levelCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	levels := settings.Levels()
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = string(l)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// templateCompletion provides built-in and registered template names. It
// runs before setup, so it loads the config itself.
func templateCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}

	c, err := config.Load(flagConfigPath)
	if err != nil {
		return templates.Names(nil), cobra.ShellCompDirectiveNoFileComp
	}
	dir, err := c.TemplatesPath()
	if err != nil {
		return templates.Names(nil), cobra.ShellCompDirectiveNoFileComp
	}
	reg, err := registry.LoadRegistry(dir)
	if err != nil {
		return templates.Names(nil), cobra.ShellCompDirectiveNoFileComp
	}
	defer reg.Close()

	return templates.Names(reg), cobra.ShellCompDirectiveNoFileComp
}

// backupCompletion provides backup names of the default settings file
func backupCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	if err := setup(cmd, args); err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	path, _, err := backupTarget.resolve()
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	backups, err := store.Backups(path)
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, len(backups))
	for i, b := range backups {
		names[i] = b.Name
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
