package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/velalab/vela/internal/logger"
	"github.com/velalab/vela/internal/report"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage archived backtest runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Print the stored report of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete [run-id]",
	Short: "Delete the artifacts of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

func newArchiver() (*report.Archiver, error) {
	log := logger.Must(debug)

	cfg, err := loadConfig(log)
	if err != nil {
		return nil, err
	}
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	return report.NewArchiver(store, log), nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	arch, err := newArchiver()
	if err != nil {
		return err
	}

	runs, err := arch.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs")
		return nil
	}
	for _, id := range runs {
		fmt.Println(id)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	arch, err := newArchiver()
	if err != nil {
		return err
	}

	rep, err := arch.LoadReport(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("loading report for %s: %w", args[0], err)
	}
	fmt.Println(report.FormatText(rep))
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	arch, err := newArchiver()
	if err != nil {
		return err
	}

	if err := arch.DeleteRun(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("deleting %s: %w", args[0], err)
	}
	fmt.Printf("Deleted run %s\n", args[0])
	return nil
}
