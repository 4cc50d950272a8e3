package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"rdscraper/pkg/checkpoint"
	"rdscraper/pkg/logger"
	"rdscraper/pkg/scraper"
	"rdscraper/pkg/ui"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Continue an interrupted run",
	Long: `Continue the run recorded in the checkpoint file.

The current account restarts at the image after the last one saved; queued
accounts follow in their original order. Declining discards the checkpoint.`,
	Args: cobra.NoArgs,
	RunE: runResume,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the interrupted run, if any",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(statusCmd)

	resumeCmd.Flags().IntVarP(&countFlag, "count", "n", -1, "images to download per account (default: ask, or all when not interactive)")
	resumeCmd.Flags().BoolVar(&allFlag, "all", false, "download every remaining image without asking")
	resumeCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "resume without asking")
	addRunFlags(resumeCmd)

	statusCmd.Flags().StringVar(&checkpointArg, "checkpoint", "", "checkpoint file path")
}

func runResume(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, newTerminalOperator(yesFlag, allFlag, countFlag))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()

	resumed, err := a.scraper.Resume(ctx)
	switch {
	case errors.Is(err, scraper.ErrResumeDeclined):
		ui.PrintWarning("Checkpoint discarded")
		return nil
	case err != nil:
		return a.finish(err, 0)
	case !resumed:
		ui.PrintInfo("Status", "nothing to resume")
		return nil
	}
	ui.PrintSuccess("Interrupted run finished")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := checkpoint.NewStore(cfg.Checkpoint.Path, logger.GetLogger())
	if err != nil {
		return err
	}

	cp, err := store.Load()
	if err != nil {
		return err
	}
	ui.PrintInfo("Checkpoint", store.Path())
	if cp == nil {
		ui.PrintInfo("Status", "no interrupted run")
		return nil
	}
	describeCheckpoint(os.Stdout, cp)
	return nil
}
