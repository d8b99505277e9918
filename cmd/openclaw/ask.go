package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/openclaw/internal/actor"
	"github.com/openclaw/openclaw/internal/app"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message to the assistant and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.build(cmd.Context(), app.Options{SkipStore: true})
			if err != nil {
				return err
			}
			defer a.Close()

			// Whoever runs the binary is the owner.
			ctx := actor.WithActor(cmd.Context(), actor.Actor{ChannelID: "cli", SenderID: "local", Owner: true})
			reply := a.Router.Handle(ctx, strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
}
