package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/docdesigner/pkg/designer"
	"github.com/matzehuels/docdesigner/pkg/dragdrop"
	"github.com/matzehuels/docdesigner/pkg/errors"
	"github.com/matzehuels/docdesigner/pkg/form"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// moduleCommand creates the module editing command. All subcommands act on
// the active template.
func (c *CLI) moduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "module",
		Aliases: []string{"mod"},
		Short:   "Edit the modules of the active template",
		Long: `Edit the modules of the active template.

Modules are referenced by id or by their position in the layout (0-based).`,
	}

	cmd.AddCommand(c.moduleListCommand())
	cmd.AddCommand(c.moduleAddCommand())
	cmd.AddCommand(c.moduleRemoveCommand())
	cmd.AddCommand(c.moduleSetCommand())
	cmd.AddCommand(c.moduleWidthCommand())
	cmd.AddCommand(c.moduleDuplicateCommand())
	cmd.AddCommand(c.moduleMoveCommand())
	cmd.AddCommand(c.moduleReorderCommand())
	cmd.AddCommand(c.moduleDropCommand())

	return cmd
}

// resolveModule finds a module of the active template by id or index.
func resolveModule(s *designer.Store, ref string) (template.Module, error) {
	if m, ok := s.Module(ref); ok {
		return m, nil
	}
	if i, err := strconv.Atoi(ref); err == nil {
		layout := s.ActiveTemplate().Layout
		if i >= 0 && i < len(layout) {
			return layout[i], nil
		}
		return template.Module{}, errors.New(errors.ErrCodeModuleNotFound, "no module at position %d (layout has %d)", i, len(layout))
	}
	return template.Module{}, errors.New(errors.ErrCodeModuleNotFound, "module %q not found", ref)
}

func (c *CLI) moduleListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the modules of the active template",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				t := e.store.ActiveTemplate()
				fmt.Println(StyleTitle.Render(t.Name))
				if len(t.Layout) == 0 {
					printInfo("No modules yet")
					printNextStep("Add one", appName+" module add <kind>")
					return nil
				}
				fmt.Println(renderLayout(t.Layout, e.store.Registry(), ""))
				return nil
			})
		},
	}
}

func (c *CLI) moduleAddCommand() *cobra.Command {
	var at int

	cmd := &cobra.Command{
		Use:               "add <kind>",
		Short:             "Add a module with its kind's defaults",
		Long:              `Add a module to the active template. Without --at it is appended.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				k, ok := e.store.Registry().Lookup(args[0])
				if !ok {
					return errors.New(errors.ErrCodeUnknownKind, "unknown module kind %q (see \"%s registry list\")", args[0], appName)
				}
				m, _ := e.store.AddModule(k.Name, at)
				printSuccess("Added %s", StyleHighlight.Render(k.DisplayName))
				printDetail("ID: %s · width %s", m.ID, m.Width)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&at, "at", -1, "insert position (default: end)")
	return cmd
}

func (c *CLI) moduleRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "remove <module>",
		Aliases:           []string{"rm"},
		Short:             "Remove a module",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeModules,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				m, err := resolveModule(e.store, args[0])
				if err != nil {
					return err
				}
				e.store.RemoveModule(m.ID)
				printSuccess("Removed %s", kindName(e.store.Registry(), m.Type))
				return nil
			})
		},
	}
}

func (c *CLI) moduleSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <module> <key=value>...",
		Short: "Set configuration fields of a module",
		Long: `Set configuration fields of a module.

Values are parsed for the field's type: booleans accept true/false, numbers
are clamped into the field's range and select fields must name an option.
Run "form <module>" to list the fields.`,
		Example:           `  docdesigner module set 0 showLogo=false title=Rechnung`,
		Args:              cobra.MinimumNArgs(2),
		ValidArgsFunction: c.completeModules,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				m, err := resolveModule(e.store, args[0])
				if err != nil {
					return err
				}
				f, err := form.New(e.store.Registry(), m, e.store)
				if err != nil {
					return err
				}
				for _, kv := range args[1:] {
					key, raw, ok := strings.Cut(kv, "=")
					if !ok {
						return errors.New(errors.ErrCodeInvalidInput, "expected key=value, got %q", kv)
					}
					if err := f.SetInput(key, raw); err != nil {
						return err
					}
					v, _ := f.Value(key)
					printSuccess("%s = %s", key, StyleValue.Render(fmt.Sprint(v)))
				}
				return nil
			})
		},
	}
}

func (c *CLI) moduleWidthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "width <module> <width>",
		Short: "Change a module's width",
		Long:  fmt.Sprintf("Change a module's width. Widths: %s.", joinWidths()),
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 1 {
				return widthNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return c.completeModules(cmd, args, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := template.Width(args[1])
			if !w.Valid() {
				return errors.New(errors.ErrCodeInvalidWidth, "invalid width %q (want one of %s)", args[1], joinWidths())
			}
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				m, err := resolveModule(e.store, args[0])
				if err != nil {
					return err
				}
				e.store.UpdateModuleWidth(m.ID, w)
				printSuccess("%s is now %s", kindName(e.store.Registry(), m.Type), StyleHighlight.Render(string(w)))
				return nil
			})
		},
	}
}

func (c *CLI) moduleDuplicateCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "duplicate <module>",
		Aliases:           []string{"dup"},
		Short:             "Insert a copy of a module right after it",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeModules,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				m, err := resolveModule(e.store, args[0])
				if err != nil {
					return err
				}
				dup, _ := e.store.DuplicateModule(m.ID)
				printSuccess("Duplicated %s", kindName(e.store.Registry(), m.Type))
				printDetail("ID: %s", dup.ID)
				return nil
			})
		},
	}
}

func (c *CLI) moduleMoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "move <module> up|down",
		Short:             "Move a module one step",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completeModules,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := designer.Direction(args[1])
			if dir != designer.Up && dir != designer.Down {
				return errors.New(errors.ErrCodeInvalidInput, "direction must be up or down")
			}
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				m, err := resolveModule(e.store, args[0])
				if err != nil {
					return err
				}
				if !e.store.MoveModule(m.ID, dir) {
					printInfo("%s is already at the %s", kindName(e.store.Registry(), m.Type), edge(dir))
					return nil
				}
				printSuccess("Moved %s %s", kindName(e.store.Registry(), m.Type), dir)
				return nil
			})
		},
	}
}

func edge(dir designer.Direction) string {
	if dir == designer.Up {
		return "top"
	}
	return "bottom"
}

func (c *CLI) moduleReorderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <from> <to>",
		Short: "Move the module at one position to another",
		Long: `Move the module at position <from> so that it ends up at position <to>.
Positions past the end append.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parsePositions(args[0], args[1])
			if err != nil {
				return err
			}
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				if !e.store.ReorderModules(from, to) {
					printInfo("Nothing to move")
					return nil
				}
				printSuccess("Moved %d %s %d", from, iconArrow, to)
				return nil
			})
		},
	}
}

func (c *CLI) moduleDropCommand() *cobra.Command {
	var (
		kind string
		from int
	)

	cmd := &cobra.Command{
		Use:   "drop <zone>",
		Short: "Drop a new or existing module on a drop zone",
		Long: `Drop a module on a drop zone, the way the designer canvas does.

Zone i sits before the module at position i; zone n (the layout length)
sits after the last module. Dropping a module on the zones directly around
itself leaves the layout unchanged.`,
		Example: `  docdesigner module drop 0 --kind companyInfo
  docdesigner module drop 4 --from 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zone, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.New(errors.ErrCodeInvalidInput, "zone must be a number")
			}
			var src dragdrop.Source
			switch {
			case kind != "":
				src = dragdrop.NewModule(kind)
			case cmd.Flags().Changed("from"):
				src = dragdrop.Existing(from)
			default:
				return errors.New(errors.ErrCodeInvalidInput, "drop needs --kind or --from")
			}
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				if src.IsNew() {
					if _, ok := e.store.Registry().Lookup(src.Kind); !ok {
						return errors.New(errors.ErrCodeUnknownKind, "unknown module kind %q", src.Kind)
					}
				}
				res := dragdrop.Apply(e.store, src, zone)
				if !res.Applied {
					printInfo("Layout unchanged")
					return nil
				}
				if src.IsNew() {
					printSuccess("Inserted %s at %d", kindName(e.store.Registry(), src.Kind), res.To)
				} else {
					printSuccess("Moved %d %s %d", res.From, iconArrow, res.To)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "module kind to insert")
	cmd.Flags().IntVar(&from, "from", 0, "position of the module to move")
	cmd.MarkFlagsMutuallyExclusive("kind", "from")
	cmd.RegisterFlagCompletionFunc("kind", c.completeKinds)
	return cmd
}

func parsePositions(a, b string) (int, int, error) {
	from, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "position %q is not a number", a)
	}
	to, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "position %q is not a number", b)
	}
	return from, to, nil
}

func widthNames() []string {
	out := make([]string, len(template.Widths))
	for i, w := range template.Widths {
		out[i] = string(w)
	}
	return out
}

func joinWidths() string { return strings.Join(widthNames(), ", ") }

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
