package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-gplus/internal/report"
	"github.com/pable/go-gplus/internal/storage"
)

var (
	runsCompetition string
	runsLimit       int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded snapshot runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().StringVarP(&runsCompetition, "competition", "c", "", "only runs of this competition")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "max runs to list (0 for all)")
}

func runRuns(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(runsCompetition, runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "No runs recorded yet. Run 'gplus pull' to build a snapshot.")
		return nil
	}
	report.PrintRuns(os.Stdout, runs)
	return nil
}
