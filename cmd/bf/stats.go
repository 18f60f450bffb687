package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"nickandperla.net/bfopt"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize runs recorded by bf suite --record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		persist, err := bfopt.NewPersistence(toolConfig.Persistence)
		if err != nil {
			return fmt.Errorf("Failed to create or initialize Persistence: %w", err)
		}
		defer persist.Shutdown()

		stats, err := persist.QueryStats()
		if err != nil {
			return err
		}
		passes, err := persist.QueryPassSummaries()
		if err != nil {
			return err
		}

		fmt.Printf("Runs recorded:          %s\n", humanize.Comma(int64(stats.RunCount)))
		fmt.Printf("Runs passed:            %s\n", humanize.Comma(int64(stats.PassedCount)))
		fmt.Printf("Distinct programs:      %s\n", humanize.Comma(int64(stats.ProgramCount)))
		fmt.Printf("Avg executed (raw):     %s\n", humanize.CommafWithDigits(stats.AvgExecutedRaw, 1))
		fmt.Printf("Avg executed (opt):     %s\n", humanize.CommafWithDigits(stats.AvgExecutedOptimized, 1))
		fmt.Printf("Avg executed opt/raw:   %.3f\n", stats.AvgExecutedRatio)
		for _, ps := range passes {
			fmt.Printf("  %-22s applied %s times, avg shrink %.1f, avg %s\n",
				ps.Pass, humanize.Comma(int64(ps.Count)), ps.AvgShrink, time.Duration(ps.AvgElapsedNs))
		}
		return nil
	},
}
