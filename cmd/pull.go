package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-gplus/internal/asa"
	"github.com/pable/go-gplus/internal/config"
	"github.com/pable/go-gplus/internal/logger"
	"github.com/pable/go-gplus/internal/metrics"
	"github.com/pable/go-gplus/internal/pipeline"
	"github.com/pable/go-gplus/internal/publish"
	"github.com/pable/go-gplus/internal/snapshot"
	"github.com/pable/go-gplus/internal/storage"
)

var (
	pullCompetitions []string
	pullEndYear      int
	pullFormat       string
	pullWorkers      int
	pullGameStates   bool
	pullMirror       string
	pullKeepGoing    bool
)

// pullCmd builds the snapshot of one or more competitions.
var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull g+ data and write competition snapshots",
	Long: `Pull every season of each competition from the ASA API, derive the
percentile, leaderboard, team breakdown and zone tables, and write them under
<out>/<competition>/. Finished runs are recorded in the SQLite registry and,
when redis_addr is set, published to Redis.`,
	Args: cobra.NoArgs,
	RunE: runPull,
}

func init() {
	pullCmd.Flags().StringSliceVarP(&pullCompetitions, "competition", "c", nil, "competition to pull (repeatable; default all configured)")
	pullCmd.Flags().IntVar(&pullEndYear, "end-year", time.Now().Year(), "last season to pull")
	pullCmd.Flags().StringVar(&pullFormat, "format", "", "output format: csv, json or parquet (overrides format)")
	pullCmd.Flags().IntVar(&pullWorkers, "workers", 0, "leaderboard sweep workers (overrides workers)")
	pullCmd.Flags().BoolVar(&pullGameStates, "zone-game-states", false, "split team zone pulls by game state")
	pullCmd.Flags().StringVar(&pullMirror, "mirror", "", "zone transposition: team or league (overrides zone_mirror)")
	pullCmd.Flags().BoolVar(&pullKeepGoing, "keep-going", false, "continue with the next competition after a failure")
}

func runPull(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.Named("pull")

	comps, err := selectCompetitions(pullCompetitions)
	if err != nil {
		return err
	}
	if pullFormat != "" {
		cfg.Format = pullFormat
	}
	if pullWorkers > 0 {
		cfg.Workers = pullWorkers
	}
	if cmd.Flags().Changed("zone-game-states") {
		cfg.ZoneGameStates = pullGameStates
	}
	if pullMirror != "" {
		cfg.ZoneMirror = pullMirror
	}
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	m := metrics.NewManager()
	client := asa.NewClient(asa.Options{
		BaseURL:      cfg.BaseURL,
		Delay:        cfg.RequestDelay(),
		Timeout:      cfg.RequestTimeout(),
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff(),
		ChunkSize:    cfg.LookupChunkSize,
		Observer:     m,
		Logger:       logger.Get(),
	})

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	deps := pipeline.Deps{Store: db, Metrics: m, Logger: logger.Get()}
	if cfg.RedisAddr != "" {
		rdb, err := publish.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		deps.Publisher = publish.NewWriter(rdb, cfg.RedisTTL())
	}

	runner := pipeline.NewRunner(client, opts, deps)
	var failed []string
	for _, comp := range comps {
		res, err := runner.Run(ctx, comp, pullEndYear)
		if err != nil {
			if !pullKeepGoing {
				writeMetrics(ctx, m)
				return err
			}
			log.Error(ctx, "competition failed", logger.String("competition", comp.Name), logger.Error(err))
			failed = append(failed, comp.Name)
			continue
		}
		fmt.Fprintf(os.Stdout, "%-6s  run %s  seasons %d-%d  %d player rows  %d zone rows  %d files\n",
			comp.Name, res.RunID[:8], comp.StartYear, pullEndYear, res.PlayerRows, res.ZoneRows, len(res.Files))
	}
	writeMetrics(ctx, m)
	if len(failed) > 0 {
		return fmt.Errorf("%d competition(s) failed: %v", len(failed), failed)
	}
	return nil
}

// selectCompetitions resolves names against the configured competitions;
// no names selects all of them.
func selectCompetitions(names []string) ([]config.Competition, error) {
	if len(names) == 0 {
		return cfg.Competitions, nil
	}
	out := make([]config.Competition, 0, len(names))
	for _, name := range names {
		comp, ok := cfg.Competition(name)
		if !ok {
			return nil, fmt.Errorf("unknown competition %q", name)
		}
		out = append(out, comp)
	}
	return out, nil
}

func writeMetrics(ctx context.Context, m *metrics.Manager) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Get().Warn(ctx, "metrics textfile not written", logger.Error(err))
	}
}

// outputFormat is the configured snapshot format.
func outputFormat() (snapshot.Format, error) {
	return snapshot.ParseFormat(cfg.Format)
}
