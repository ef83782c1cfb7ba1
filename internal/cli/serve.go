package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/docdesigner/internal/server"
)

// serveCommand runs the HTTP API over the local collection.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the designer over HTTP",
		Long: `Serve the template collection as a JSON API.

Queued mirror writes are replayed before the server starts. The server stops
gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				if addr == "" {
					addr = e.cfg.Server.Addr
				}
				if e.dispatcher != nil {
					if n, err := e.dispatcher.Flush(ctx, e.store.Snapshot()); err != nil {
						e.log.Warn("sync queue replay failed", "error", err)
					} else if n > 0 {
						e.log.Info("replayed queued writes", "count", n)
					}
				}

				srv := server.New(e.store, server.WithLogger(e.log))
				printInfo("Listening on %s", StyleLink.Render(displayURL(addr)))
				printDetail("Templates: %d · active: %s", len(e.store.Templates()), e.store.ActiveTemplate().Name)
				err := srv.ListenAndServe(ctx, addr, e.cfg.Server.ShutdownTimeout.Duration)
				if err == nil {
					printSuccess("Server stopped")
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func displayURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
