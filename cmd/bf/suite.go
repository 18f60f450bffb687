package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nickandperla.net/bfopt"
)

var suiteRecord bool

var suiteCmd = &cobra.Command{
	Use:   "suite [DIR]",
	Short: "Run every fixture in DIR unoptimized and optimized and compare outputs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := toolConfig.Suite
		if len(args) == 1 {
			config.Dir = args[0]
		}

		fixtures, err := bfopt.LoadFixtures(config.Dir, toolConfig.Machine)
		if err != nil {
			return err
		}
		if len(fixtures) == 0 {
			return fmt.Errorf("No fixtures found in [%s]", config.Dir)
		}
		log.Infof("Loaded %d fixtures from %s", len(fixtures), config.Dir)

		var persistor bfopt.ResultPersistor
		if suiteRecord {
			persist, err := bfopt.NewPersistence(toolConfig.Persistence)
			if err != nil {
				return fmt.Errorf("Failed to create or initialize Persistence: %w", err)
			}
			defer persist.Shutdown()
			persistor = persist.GetResultPersistor()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		context.AfterFunc(ctx, stop)

		results, err := bfopt.NewSuite(config, persistor).Run(ctx, fixtures)
		if err != nil {
			return err
		}

		for _, r := range results {
			status := "ok"
			if !r.Passed() {
				status = "FAIL " + r.Reason.String()
			}
			line := fmt.Sprintf("%-24s %s", r.Fixture.Name, status)
			if r.Raw != nil && r.Optimized != nil {
				line += fmt.Sprintf("  executed %s -> %s", humanize.Comma(int64(r.Raw.InstructionsExecuted)), humanize.Comma(int64(r.Optimized.InstructionsExecuted)))
			}
			if r.Err != nil {
				line += fmt.Sprintf("  (%v)", r.Err)
			}
			fmt.Println(line)
		}

		summary := bfopt.Summarize(results)
		fmt.Println(summary)
		if summary.Passed != summary.Total {
			return fmt.Errorf("%d fixtures failed", summary.Total-summary.Passed)
		}
		return nil
	},
}

func init() {
	suiteCmd.Flags().BoolVar(&suiteRecord, "record", false, "Store every run in the configured database")
}
