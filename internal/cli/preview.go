package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/docdesigner/pkg/errors"
	"github.com/matzehuels/docdesigner/pkg/preview"
)

const (
	formatSVG = "svg"
	formatDOT = "dot"
)

// previewCommand renders the active layout as a graph.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the active layout as SVG or DOT",
		Long: `Render the active layout as a Graphviz diagram, one rank per row, boxes
sized by module width and tinted with the template's primary color.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatSVG && format != formatDOT {
				return errors.New(errors.ErrCodeUnsupported, "unsupported format %q (want svg or dot)", format)
			}
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				t := e.store.ActiveTemplate()
				prog := newProgress(e.log)
				dot := preview.ToDOT(t, e.store.Registry(), preview.Options{Detailed: detailed})

				data := []byte(dot)
				if format == formatSVG {
					svg, err := preview.RenderSVG(ctx, dot)
					if err != nil {
						return errors.Wrap(errors.ErrCodeInternal, err, "render preview")
					}
					data = svg
				}

				if output == "-" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				path := output
				if path == "" {
					path = fmt.Sprintf("%s.%s", t.ID, format)
				}
				if err := os.WriteFile(path, data, 0644); err != nil {
					return fmt.Errorf("write preview: %w", err)
				}
				prog.done("Rendered " + t.Name)
				printFile(path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default <template-id>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", formatSVG, "output format: svg or dot")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label boxes with width and edited field count")
	cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{formatSVG, formatDOT}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}
