package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-gplus/internal/model"
	"github.com/pable/go-gplus/internal/report"
	"github.com/pable/go-gplus/internal/storage"
)

var (
	leadersCompetition string
	leadersSeason      string
	leadersTeam        string
	leadersPosition    string
	leadersAction      string
	leadersBy          string
	leadersPlayer      string
	leadersBreakdown   bool
)

// leadersCmd prints stored leaderboards or the team position breakdown of
// the latest successful run.
var leadersCmd = &cobra.Command{
	Use:   "leaders",
	Short: "Show stored leaderboards for a competition",
	Long: `Show the top players of the latest successful run of a competition.
Scope flags left empty select the unfiltered (All) board. With --breakdown the
team position breakdown is shown instead.`,
	Args: cobra.NoArgs,
	RunE: runLeaders,
}

func init() {
	leadersCmd.Flags().StringVarP(&leadersCompetition, "competition", "c", "mls", "competition")
	leadersCmd.Flags().StringVar(&leadersSeason, "season", "", "season name (default every season)")
	leadersCmd.Flags().StringVar(&leadersTeam, "team", "", "team id")
	leadersCmd.Flags().StringVar(&leadersPosition, "position", "", "general position, e.g. CM")
	leadersCmd.Flags().StringVar(&leadersAction, "action", "", "action type, e.g. Passing")
	leadersCmd.Flags().StringVar(&leadersBy, "by", "", "rank type: total or p96 (default both)")
	leadersCmd.Flags().StringVar(&leadersPlayer, "player", "", "player id to highlight")
	leadersCmd.Flags().BoolVar(&leadersBreakdown, "breakdown", false, "show the team position breakdown")
}

func runLeaders(cmd *cobra.Command, args []string) error {
	switch model.RankType(leadersBy) {
	case "", model.RankByTotal, model.RankByP96:
	default:
		return fmt.Errorf("--by must be total or p96, got %q", leadersBy)
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	run, err := db.LatestRun(leadersCompetition)
	if errors.Is(err, storage.ErrNoRun) {
		fmt.Fprintf(os.Stdout, "No successful run for %s yet. Run 'gplus pull -c %s' first.\n",
			leadersCompetition, leadersCompetition)
		return nil
	}
	if err != nil {
		return fmt.Errorf("latest run: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Run %s  finished %s\n", run.ID, run.FinishedAt.Local().Format("2006-01-02 15:04"))

	if leadersBreakdown {
		rows, err := db.Breakdown(leadersCompetition, leadersSeason, leadersPosition)
		if err != nil {
			return fmt.Errorf("query breakdown: %w", err)
		}
		names, err := db.TeamNames(leadersCompetition)
		if err != nil {
			return fmt.Errorf("query team names: %w", err)
		}
		report.PrintBreakdown(os.Stdout, rows, names)
		return nil
	}

	entries, err := db.Leaderboard(storage.LeaderboardQuery{
		Competition: leadersCompetition,
		SeasonName:  leadersSeason,
		Team:        leadersTeam,
		Position:    leadersPosition,
		ActionType:  leadersAction,
		RankType:    model.RankType(leadersBy),
	})
	if err != nil {
		return fmt.Errorf("query leaderboard: %w", err)
	}
	report.PrintScopeHeader(os.Stdout, leadersCompetition, orAll(leadersSeason), orAll(leadersTeam),
		orAll(leadersPosition), orAll(leadersAction))
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "No qualified players for this scope.")
		return nil
	}
	report.PrintLeaderboard(os.Stdout, entries, leadersPlayer)
	return nil
}

func orAll(v string) string {
	if v == "" {
		return model.All
	}
	return v
}
