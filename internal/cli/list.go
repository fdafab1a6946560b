package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-reminder-bot/internal/gateway"
	"github.com/tbourn/go-reminder-bot/internal/services"
)

const cliTimeout = 15 * time.Second

func newListCmd() *cobra.Command {
	var channel string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending scheduled messages in a channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, channel)
		},
	}
	cmd.Flags().StringVarP(&channel, "channel", "c", "", "channel ID")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}

func runList(cmd *cobra.Command, channel string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
	defer cancel()

	sched := services.NewSchedulingService(gateway.New(cfg.Slack), &cfg)
	items, err := sched.ListScheduled(ctx, channel)
	if err != nil {
		return err
	}

	entries := services.NewListFormatter(&cfg).Format(items)
	if len(entries) == 1 && entries[0].Info {
		fmt.Fprintln(cmd.OutOrStdout(), entries[0].Text)
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tMENTION\tBODY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.When, e.Mention, e.Body)
	}
	return tw.Flush()
}

func newDeleteCmd() *cobra.Command {
	var channel, id string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a pending scheduled message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()
			if err := gateway.New(cfg.Slack).DeleteScheduledMessage(ctx, channel, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&channel, "channel", "c", "", "channel ID")
	cmd.Flags().StringVar(&id, "id", "", "scheduled message ID (from list)")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
