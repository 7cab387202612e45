package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/event_research/internal/storage"
)

var showDays int

var showCmd = &cobra.Command{
	Use:   "show <ticker>",
	Short: "Print the newest report for an event from the last few days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		defer store.Close(context.Background())

		report, err := storage.FindRecent(ctx, store, args[0], time.Now(), showDays)
		if err != nil {
			return err
		}
		if report == nil {
			return fmt.Errorf("no report for %s in the last %d days", args[0], showDays)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n\n%s\n", report.EventTicker, report.Timestamp, report.Text)
		return nil
	},
}

func init() {
	showCmd.Flags().IntVar(&showDays, "days", 3, "How many day stamps to look back, starting today")
	rootCmd.AddCommand(showCmd)
}
