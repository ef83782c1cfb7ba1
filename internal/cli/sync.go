package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/docdesigner/internal/config"
	"github.com/matzehuels/docdesigner/pkg/errors"
)

// syncCommand inspects and replays the mirror sync queue.
func (c *CLI) syncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Inspect and replay queued mirror writes",
		Long: `Remote mirror writes that fail are parked in a local sync queue. The queue
holds template ids only; a replay sends the current local state.`,
	}

	cmd.AddCommand(c.syncStatusCommand())
	cmd.AddCommand(c.syncFlushCommand())

	return cmd
}

func (c *CLI) syncStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queued writes and the remote copy of the active template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				backend := e.cfg.MirrorBackend()
				if backend == config.BackendNone {
					printInfo("No mirror configured")
					return nil
				}
				printKeyValue("Mirror", backend)

				ops, err := e.backend.LoadQueue(ctx)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "read sync queue")
				}
				if len(ops) == 0 {
					printSuccess("Sync queue is empty")
				} else {
					t := newTable("Op", "Template", "Queued", "Attempts")
					for _, op := range ops {
						name := op.TemplateID
						if tpl, ok := e.store.Template(op.TemplateID); ok {
							name = tpl.Name
						}
						t.Row(string(op.Kind), name, op.QueuedAt.Local().Format("2006-01-02 15:04:05"), fmt.Sprint(op.Attempts))
					}
					fmt.Println(t.Render())
				}

				if e.remote == nil {
					printWarning("Mirror not reachable")
					return nil
				}
				active := e.store.ActiveTemplate()
				remote, ok, err := e.remote.Fetch(ctx, active.ID)
				switch {
				case err != nil:
					printWarning("Could not read %s from the mirror: %v", active.Name, err)
				case !ok:
					printWarning("%s is not mirrored yet", active.Name)
				case remote.UpdatedAt.Equal(active.UpdatedAt):
					printSuccess("%s is up to date", active.Name)
				default:
					printWarning("%s differs from the mirror", active.Name)
					printDetail("local %s · remote %s", active.UpdatedAt.Local().Format("15:04:05"), remote.UpdatedAt.Local().Format("15:04:05"))
				}
				return nil
			})
		},
	}
}

func (c *CLI) syncFlushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Replay queued writes against the mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				if e.dispatcher == nil {
					printInfo("No mirror configured")
					return nil
				}
				if e.remote == nil {
					return errors.New(errors.ErrCodeRemoteUnavailable, "%s mirror is not reachable", e.cfg.MirrorBackend())
				}

				prog := newProgress(e.log)
				spin := newSpinnerWithContext(ctx, "Replaying sync queue...")
				spin.Start()
				n, err := e.dispatcher.Flush(ctx, e.store.Snapshot())
				if err != nil {
					spin.StopWithError("Replay failed")
					return err
				}
				spin.Stop()

				pending, _ := e.dispatcher.Pending(ctx)
				prog.done(fmt.Sprintf("Replayed %d queued writes", n))
				if len(pending) > 0 {
					printWarning("%d writes still queued", len(pending))
					return nil
				}
				printSuccess("Mirror is in sync")
				return nil
			})
		},
	}
}
