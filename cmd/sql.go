package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-gplus/internal/report"
	"github.com/pable/go-gplus/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the run registry",
	Long: `Run an arbitrary SQL query against the run registry and print results as a table.

Schema overview:
  runs(id, competition, started_at, finished_at, status, player_rows, zone_rows,
    leaderboard_rows, error)
  leaderboard(competition, run_id, season_name, player_id, total, total_rank, p96,
    p96_rank, team_id, position, action_type, rank_type, player_name)
  team_breakdown(competition, run_id, season_name, team_id, general_position,
    total_avg, p96_avg, p96_weighted_avg, total_avg_rank, p96_avg_rank,
    p96_weighted_avg_rank)
  player_lookup(competition, player_id, player_name)
  team_lookup(competition, team_id, team_name, team_abbreviation)

Unfiltered scope dimensions are stored as 'All': WHERE team_id = 'All'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	report.PrintRaw(os.Stdout, cols, rows)
	return nil
}
