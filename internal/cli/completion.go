package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/docdesigner/pkg/designer"
	"github.com/matzehuels/docdesigner/pkg/persist"
	"github.com/matzehuels/docdesigner/pkg/registry"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for docdesigner.

Template, module and kind arguments complete from the local collection.

To load completions:

Bash:
  $ source <(docdesigner completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ docdesigner completion bash > /etc/bash_completion.d/docdesigner
  # macOS:
  $ docdesigner completion bash > $(brew --prefix)/etc/bash_completion.d/docdesigner

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ docdesigner completion zsh > "${fpath[1]}/_docdesigner"

Fish:
  $ docdesigner completion fish | source

  # To load completions for each session, execute once:
  $ docdesigner completion fish > ~/.config/fish/completions/docdesigner.fish

PowerShell:
  PS> docdesigner completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// completionStore opens the local collection for completions. It never
// connects the mirror and logs nothing.
func (c *CLI) completionStore(ctx context.Context) (*designer.Store, bool) {
	cfg, err := c.config()
	if err != nil {
		return nil, false
	}
	backend, err := persist.NewFileBackend(cfg.Storage.Dir, cfg.Storage.Key)
	if err != nil {
		return nil, false
	}
	return designer.Open(ctx, backend, designer.WithLogger(log.New(io.Discard))), true
}

// completeTemplates completes template ids, described by name.
func (c *CLI) completeTemplates(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	s, ok := c.completionStore(cmd.Context())
	if !ok {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, t := range s.Templates() {
		out = append(out, t.ID+"\t"+t.Name)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeModules completes module positions of the active template,
// described by kind.
func (c *CLI) completeModules(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	s, ok := c.completionStore(cmd.Context())
	if !ok {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for i, m := range s.ActiveTemplate().Layout {
		out = append(out, fmt.Sprintf("%d\t%s", i, kindName(s.Registry(), m.Type)))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeKinds completes registry kind names.
func (c *CLI) completeKinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, k := range registry.Default().Kinds() {
		out = append(out, k.Name+"\t"+k.DisplayName)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
