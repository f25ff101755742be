package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newPurgeCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete the account's posts and comments",
		Long: "Deletes every post and comment of the configured account, " +
			"except items in whitelisted subreddits. Destructive and not reversible.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to purge without the --yes flag")
			}

			d, err := initDeps()
			if err != nil {
				return err
			}
			defer func() { _ = d.log.Sync() }()

			if d.cfg.MetricsAddr != "" {
				srv := d.metrics.Serve(d.cfg.MetricsAddr)
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(ctx)
				}()
			}

			if err := d.app.Purge(cmd.Context()); err != nil {
				return err
			}

			fmt.Println("Successfully nuked your Reddit account.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the purge; the command does nothing without it")

	return cmd
}
