package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/docdesigner/pkg/errors"
	"github.com/matzehuels/docdesigner/pkg/mirror"
)

// watchCommand follows the Redis change channel.
func (c *CLI) watchCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow template changes published to Redis",
		Long: `Follow template changes published on the Redis mirror's change channel.
Runs until interrupted. Requires the redis mirror backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				if e.redis == nil {
					return errors.New(errors.ErrCodeUnsupported, "watch needs a reachable redis mirror (backend is %q)", e.cfg.MirrorBackend())
				}
				err := e.redis.Watch(ctx, func(ev mirror.Event) {
					if ev.Origin == e.origin && !all {
						return
					}
					name := ev.TemplateID
					if t, ok := e.store.Template(ev.TemplateID); ok {
						name = t.Name
					}
					fmt.Printf("%s %s %s\n",
						StyleDim.Render(ev.At.Local().Format(time.TimeOnly)),
						StyleHighlight.Render(fmt.Sprintf("%-9s", ev.Op)),
						name)
				})
				if err != nil {
					return errors.Wrap(errors.ErrCodeRemoteUnavailable, err, "subscribe")
				}
				printInfo("Watching %s", StyleValue.Render(e.redis.Channel()))
				<-ctx.Done()
				return ctx.Err()
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include changes made by this process")
	return cmd
}
