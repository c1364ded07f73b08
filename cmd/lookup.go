package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-gplus/internal/logger"
	"github.com/pable/go-gplus/internal/pipeline"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Combine every competition's ranks into the player and team lookups",
	Long: `Read <out>/<competition>/player-g+-ranks for every configured competition
and write the combined player_lookup and team_lookup files into <out>.
Competitions that were never pulled are skipped.`,
	Args: cobra.NoArgs,
	RunE: runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	l, err := pipeline.CombineLookups(cmd.Context(), logger.Named("lookup"), cfg.OutDir, format, cfg.Competitions)
	if err != nil {
		return fmt.Errorf("combine lookups: %w", err)
	}
	files, err := pipeline.WriteLookups(cfg.OutDir, format, l)
	if err != nil {
		return fmt.Errorf("write lookups: %w", err)
	}
	fmt.Fprintf(os.Stdout, "%d player seasons, %d team seasons\n", len(l.Players), len(l.Teams))
	for _, f := range files {
		fmt.Fprintf(os.Stdout, "  %s\n", f)
	}
	return nil
}
