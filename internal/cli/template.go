package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/docdesigner/pkg/designer"
	"github.com/matzehuels/docdesigner/pkg/errors"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// templateCommand creates the template management command.
func (c *CLI) templateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"tpl"},
		Short:   "Manage invoice templates",
		Long: `Manage the template collection.

Templates are referenced by id or by name. Exactly one template is active;
module commands edit the active template.`,
	}

	cmd.AddCommand(c.templateListCommand())
	cmd.AddCommand(c.templateShowCommand())
	cmd.AddCommand(c.templateCreateCommand())
	cmd.AddCommand(c.templateDuplicateCommand())
	cmd.AddCommand(c.templateRenameCommand())
	cmd.AddCommand(c.templateDeleteCommand())
	cmd.AddCommand(c.templateDefaultCommand())
	cmd.AddCommand(c.templateActivateCommand())
	cmd.AddCommand(c.templateResetCommand())
	cmd.AddCommand(c.templateExportCommand())
	cmd.AddCommand(c.templateImportCommand())

	return cmd
}

// resolveTemplate finds a template by id, then by case-insensitive name.
// An empty ref selects the active template.
func resolveTemplate(s *designer.Store, ref string) (*template.Template, error) {
	if ref == "" {
		return s.ActiveTemplate(), nil
	}
	if t, ok := s.Template(ref); ok {
		return t, nil
	}
	var found *template.Template
	for _, t := range s.Templates() {
		if !strings.EqualFold(t.Name, ref) {
			continue
		}
		if found != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "template name %q is ambiguous, use its id", ref)
		}
		found = t
	}
	if found == nil {
		return nil, errors.New(errors.ErrCodeTemplateNotFound, "template %q not found", ref)
	}
	return found, nil
}

func (c *CLI) templateListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List templates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				fmt.Println(renderTemplates(e.store.Templates(), e.store.ActiveID()))
				printDetail("%s active  %s default", iconActive, iconDefault)
				return nil
			})
		},
	}
}

func (c *CLI) templateShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "show [template]",
		Short:             "Show a template's settings and layout",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeTemplates,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				t, err := resolveTemplate(e.store, optionalArg(args))
				if err != nil {
					return err
				}
				ps := t.PageSettings
				fmt.Println(StyleTitle.Render(t.Name))
				printKeyValue("ID", t.ID)
				printKeyValue("Default", fmt.Sprint(t.IsDefault))
				printKeyValue("Page", fmt.Sprintf("%s %s", ps.Size, ps.Orientation))
				printKeyValue("Margins", fmt.Sprintf("%d %d %d %d", ps.Margins.Top, ps.Margins.Right, ps.Margins.Bottom, ps.Margins.Left))
				for _, k := range sortedKeys(t.Styles) {
					printKeyValue(k, fmt.Sprint(t.Styles[k]))
				}
				printKeyValue("Updated", t.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
				printNewline()

				selected := ""
				if t.ID == e.store.ActiveID() {
					selected = e.store.Selected()
				}
				fmt.Println(renderLayout(t.Layout, e.store.Registry(), selected))
				return nil
			})
		},
	}
}

func (c *CLI) templateCreateCommand() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a template and make it active",
		Long: `Create a template and make it active.

Without --from the template starts from the built-in defaults; with --from it
copies the layout, page settings and styles of an existing template.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if err := errors.ValidateTemplateName(name); err != nil {
				return err
			}
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				src := ""
				if from != "" {
					t, err := resolveTemplate(e.store, from)
					if err != nil {
						return err
					}
					src = t.ID
				}
				t := e.store.CreateTemplate(name, src)
				printSuccess("Created %s", StyleHighlight.Render(t.Name))
				printDetail("ID: %s", t.ID)
				printNextStep("Add modules", appName+" module add lineItems")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "copy an existing template")
	cmd.RegisterFlagCompletionFunc("from", c.completeTemplates)
	return cmd
}

func (c *CLI) templateDuplicateCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "duplicate [template]",
		Aliases:           []string{"dup"},
		Short:             "Copy a template as \"<name> (Copy)\"",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeTemplates,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				t, err := resolveTemplate(e.store, optionalArg(args))
				if err != nil {
					return err
				}
				dup, _ := e.store.DuplicateTemplate(t.ID)
				printSuccess("Created %s", StyleHighlight.Render(dup.Name))
				printDetail("ID: %s", dup.ID)
				return nil
			})
		},
	}
}

func (c *CLI) templateRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rename <template> <name>",
		Short:             "Rename a template",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completeTemplates,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[1])
			if err := errors.ValidateTemplateName(name); err != nil {
				return err
			}
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				t, err := resolveTemplate(e.store, args[0])
				if err != nil {
					return err
				}
				old := t.Name
				e.store.RenameTemplate(t.ID, name)
				printSuccess("Renamed %s %s %s", old, iconArrow, StyleHighlight.Render(name))
				return nil
			})
		},
	}
}

func (c *CLI) templateDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <template>",
		Aliases:           []string{"rm"},
		Short:             "Delete a template",
		Long:              `Delete a template. The last remaining template cannot be deleted.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeTemplates,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				t, err := resolveTemplate(e.store, args[0])
				if err != nil {
					return err
				}
				if !e.store.DeleteTemplate(t.ID) {
					return errors.New(errors.ErrCodeInvalidInput, "cannot delete the only template")
				}
				printSuccess("Deleted %s", t.Name)
				printDetail("Active: %s", e.store.ActiveTemplate().Name)
				return nil
			})
		},
	}
}

func (c *CLI) templateDefaultCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "default <template>",
		Short:             "Mark a template as the default",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeTemplates,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				t, err := resolveTemplate(e.store, args[0])
				if err != nil {
					return err
				}
				e.store.SetDefaultTemplate(t.ID)
				printSuccess("%s is now the default template", StyleHighlight.Render(t.Name))
				return nil
			})
		},
	}
}

func (c *CLI) templateActivateCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "activate <template>",
		Aliases:           []string{"use"},
		Short:             "Make a template the active one",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeTemplates,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				t, err := resolveTemplate(e.store, args[0])
				if err != nil {
					return err
				}
				e.store.SetActiveTemplate(t.ID)
				printSuccess("Editing %s", StyleHighlight.Render(t.Name))
				return nil
			})
		},
	}
}

func (c *CLI) templateResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset [template]",
		Short: "Restore a template's page settings and styles",
		Long: `Restore a template's page settings and styles to the built-in defaults.
The layout is kept.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeTemplates,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				t, err := resolveTemplate(e.store, optionalArg(args))
				if err != nil {
					return err
				}
				e.store.ResetTemplate(t.ID)
				printSuccess("Reset %s", t.Name)
				return nil
			})
		},
	}
}

func (c *CLI) templateExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [template]",
		Short: "Export a template as JSON",
		Long: `Export a template as a standalone JSON document.

The file is named after the template unless -o is given. Use -o - to write
to stdout.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeTemplates,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				t, err := resolveTemplate(e.store, optionalArg(args))
				if err != nil {
					return err
				}
				if output == "-" {
					return e.store.ExportTemplate(t.ID, cmd.OutOrStdout())
				}
				path := output
				if path == "" {
					path = template.ExportFilename(t)
				}
				if err := template.ExportJSON(t, path); err != nil {
					return err
				}
				printSuccess("Exported %s", t.Name)
				printFile(path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default invoice-template-<name>.json)")
	return cmd
}

func (c *CLI) templateImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a template from JSON",
		Long: `Import a template exported by "template export". The import becomes a
new active template named "<name> (Imported)". Use - to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				in := cmd.InOrStdin()
				if args[0] != "-" {
					f, err := os.Open(args[0])
					if err != nil {
						return fmt.Errorf("open import: %w", err)
					}
					defer f.Close()
					in = f
				}
				res := e.store.ImportTemplate(in)
				if !res.OK {
					return errors.New(errors.ErrCodeInvalidImport, "import failed: %s", res.Reason)
				}
				printSuccess("Imported %s", StyleHighlight.Render(res.Template.Name))
				printDetail("ID: %s · %d modules", res.Template.ID, len(res.Template.Layout))
				return nil
			})
		},
	}
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
