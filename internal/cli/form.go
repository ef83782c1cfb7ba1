package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/docdesigner/pkg/form"
)

// formCommand shows the configuration form of a module.
func (c *CLI) formCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "form <module>",
		Short: "Show the configuration form of a module",
		Long: `Show the configuration form of a module: every field of its kind with the
effective value. Edited fields are highlighted. Change values with
"module set".`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeModules,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				m, err := resolveModule(e.store, args[0])
				if err != nil {
					return err
				}
				entries, err := form.Fields(e.store.Registry(), m)
				if err != nil {
					return err
				}
				fmt.Println(StyleTitle.Render(kindName(e.store.Registry(), m.Type)) + " " + StyleDim.Render(m.ID))
				fmt.Println(renderForm(entries))
				return nil
			})
		},
	}
}

// renderForm renders form entries as a table.
func renderForm(entries []form.Entry) string {
	t := newTable("", "Key", "Label", "Type", "Value")
	for _, en := range entries {
		mark := ""
		value := fmt.Sprint(en.Value)
		if en.Overridden() {
			mark = iconActive
			value = StyleNumber.Render(value)
		}
		t.Row(mark, en.Key, en.Label, string(en.Type), value)
	}
	return t.Render()
}
