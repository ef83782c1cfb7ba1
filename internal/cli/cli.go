package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/docdesigner/internal/config"
	"github.com/matzehuels/docdesigner/pkg/buildinfo"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "docdesigner"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noMirror   bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "docdesigner edits invoice layout templates",
		Long:         `docdesigner manages invoice layout templates: ordered modules packed into rows, per-module configuration, presets, import/export and an optional Redis or MongoDB mirror.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if c.Logger.GetLevel() <= log.DebugLevel {
			installLogHooks(c.Logger)
		}
		return nil
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/docdesigner/config.toml)")
	root.PersistentFlags().BoolVar(&c.noMirror, "no-mirror", false, "disable the remote mirror for this run")

	root.AddCommand(c.templateCommand())
	root.AddCommand(c.moduleCommand())
	root.AddCommand(c.rowsCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.registryCommand())
	root.AddCommand(c.formCommand())
	root.AddCommand(c.designCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.syncCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the configuration once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// withEnv opens the store for cmd, runs fn and waits for mirror writes.
func (c *CLI) withEnv(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	ctx := withLogger(cmd.Context(), c.Logger)
	e, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(ctx, e)
}
