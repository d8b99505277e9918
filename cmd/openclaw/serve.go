package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openclaw/openclaw/internal/app"
	"github.com/openclaw/openclaw/internal/logging"
	"github.com/openclaw/openclaw/internal/version"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server, chat bot and scheduled jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := opts.build(ctx, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			logging.For("main").WithField("version", version.Get().Version).Info("OpenClaw starting")
			return a.Serve(ctx)
		},
	}
}
