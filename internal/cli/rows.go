package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// rowsCommand prints how the active layout packs into rows.
func (c *CLI) rowsCommand() *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Show the active layout packed into rows",
		Long: `Show the active layout packed into rows.

Modules flow left to right. A row closes when the next module would overflow
the page, when the row is exactly full, or around a full-width module.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				rows := e.store.Rows()
				fmt.Println(StyleTitle.Render(e.store.ActiveTemplate().Name))
				if len(rows) == 0 {
					printInfo("Layout is empty")
					return nil
				}
				fmt.Print(renderRows(rows, e.store.Registry(), width))
				printDetail("%d rows", len(rows))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&width, "width", 72, "page width in columns")
	return cmd
}
