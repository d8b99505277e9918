package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/openclaw/openclaw/internal/app"
	"github.com/openclaw/openclaw/internal/config"
	"github.com/openclaw/openclaw/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "openclaw",
		Short:         "Personal automation agent with a Telegram chat brain",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (env defaults apply when omitted)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level from the config")

	cmd.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts),
		newPreviewCmd(opts),
		newTriggerCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads the config and sets up logging for every subcommand.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	if err := logging.Setup(level, cfg.Log.Format, os.Stderr); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *rootOptions) build(ctx context.Context, appOpts app.Options) (*app.App, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, appOpts)
}
