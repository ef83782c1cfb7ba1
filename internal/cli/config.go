package cli

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/docdesigner/internal/config"
	"github.com/matzehuels/docdesigner/pkg/errors"
	"github.com/matzehuels/docdesigner/pkg/persist"
)

// configCommand creates the configuration management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configInitCommand())

	return cmd
}

// configFile returns the config path in effect.
func (c *CLI) configFile() (string, error) {
	if c.configPath != "" {
		return c.configPath, nil
	}
	return config.DefaultPath()
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the config file and storage locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configFile()
			if err != nil {
				return err
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			backend, err := persist.NewFileBackend(cfg.Storage.Dir, cfg.Storage.Key)
			if err != nil {
				return err
			}
			printKeyValue("Config", path)
			printKeyValue("Templates", backend.Path())
			return nil
		},
	}
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Long:  `Print the effective configuration: file values over defaults, with environment overrides applied.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
}

func (c *CLI) configInitCommand() *cobra.Command {
	var (
		force   bool
		backend string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configFile()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", path)
			}

			cfg := config.Default()
			cfg.Mirror.Backend = backend
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Write(path); err != nil {
				return err
			}
			printSuccess("Wrote config")
			printFile(path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().StringVar(&backend, "mirror", "", "mirror backend: redis or mongo (default none)")
	cmd.RegisterFlagCompletionFunc("mirror", cobra.FixedCompletions([]string{config.BackendRedis, config.BackendMongo}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}
