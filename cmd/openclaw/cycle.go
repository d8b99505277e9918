package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/openclaw/openclaw/internal/app"
)

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Print the LinkedIn and Twitter drafts without posting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.build(cmd.Context(), app.Options{SkipStore: true})
			if err != nil {
				return err
			}
			defer a.Close()

			li, tw, err := a.Cycle.Preview(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "LinkedIn:\n%s\n\nTwitter:\n%s\n", li, tw)
			return nil
		},
	}
}

func newTriggerCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger",
		Short: "Run one monitoring cycle now and post the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.build(cmd.Context(), app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			run, err := a.Cycle.Run(cmd.Context())
			if err != nil {
				return err
			}
			platforms := make([]string, 0, len(run.Outcomes))
			for p := range run.Outcomes {
				platforms = append(platforms, p)
			}
			sort.Strings(platforms)
			for _, p := range platforms {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p, run.Outcomes[p])
			}
			return nil
		},
	}
}
