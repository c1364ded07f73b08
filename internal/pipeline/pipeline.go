// Package pipeline builds the goals-added snapshot of a competition: it
// pulls every season from the upstream API, derives the percentile,
// leaderboard, breakdown and zone tables, and writes them out.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pable/go-gplus/internal/config"
	"github.com/pable/go-gplus/internal/flatten"
	"github.com/pable/go-gplus/internal/leaderboard"
	"github.com/pable/go-gplus/internal/logger"
	"github.com/pable/go-gplus/internal/metrics"
	"github.com/pable/go-gplus/internal/model"
	"github.com/pable/go-gplus/internal/publish"
	"github.com/pable/go-gplus/internal/snapshot"
	"github.com/pable/go-gplus/internal/storage"
	"github.com/pable/go-gplus/internal/zones"
)

// Source is the upstream API.
type Source interface {
	PlayerGoalsAdded(ctx context.Context, league string, season int) ([]flatten.Record, error)
	GoalkeeperGoalsAdded(ctx context.Context, league string, season int) ([]flatten.Record, error)
	TeamZoneGoalsAdded(ctx context.Context, league string, season, zone int, gameState *int) ([]flatten.Record, error)
	TeamGoalsAdded(ctx context.Context, league string, season int) ([]flatten.Record, error)
	Players(ctx context.Context, league string, ids []string) ([]flatten.Record, error)
	Teams(ctx context.Context, league string, ids []string) ([]flatten.Record, error)
}

// Store records runs and keeps the latest derived tables.
type Store interface {
	StartRun(competition string, at time.Time) (string, error)
	FinishRun(run model.Run) error
	ReplaceSnapshot(competition, runID string, s storage.Snapshot) error
}

// Publisher pushes finished tables to consumers.
type Publisher interface {
	Publish(ctx context.Context, competition, runID string, tables []publish.Table) error
}

// Options tunes a Runner.
type Options struct {
	OutDir         string
	Format         snapshot.Format
	Workers        int
	Leaderboard    leaderboard.Options
	Shapes         []leaderboard.Shape
	Excluded       []string
	Mirror         zones.Mode
	ZoneGameStates bool
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// OptionsFromConfig maps the process configuration onto runner options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	format, err := snapshot.ParseFormat(cfg.Format)
	if err != nil {
		return Options{}, err
	}
	mode, err := zones.ParseMode(cfg.ZoneMirror)
	if err != nil {
		return Options{}, err
	}
	fraction := cfg.QualifyFraction
	if fraction == 0 {
		fraction = leaderboard.NoQualification
	}
	return Options{
		OutDir:  cfg.OutDir,
		Format:  format,
		Workers: cfg.Workers,
		Leaderboard: leaderboard.Options{
			TopN:            cfg.TopN,
			QualifyFraction: fraction,
		},
		Shapes:         leaderboard.DefaultShapes(),
		Excluded:       cfg.ExcludedActionTypes,
		Mirror:         mode,
		ZoneGameStates: cfg.ZoneGameStates,
	}, nil
}

// Deps are the optional collaborators of a Runner. Nil fields disable the
// corresponding step.
type Deps struct {
	Store     Store
	Publisher Publisher
	Metrics   *metrics.Manager
	Logger    logger.Logger
}

// Runner builds competition snapshots.
type Runner struct {
	src     Source
	store   Store
	pub     Publisher
	metrics *metrics.Manager
	log     logger.Logger
	opts    Options
}

// NewRunner returns a runner reading from src.
func NewRunner(src Source, opts Options, deps Deps) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Format == "" {
		opts.Format = snapshot.CSV
	}
	if opts.Shapes == nil {
		opts.Shapes = leaderboard.DefaultShapes()
	}
	if opts.Mirror == "" {
		opts.Mirror = zones.TeamScoped
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.Nop()
	}
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		src:     src,
		store:   deps.Store,
		pub:     deps.Publisher,
		metrics: m,
		log:     log.Named("pipeline"),
		opts:    opts,
	}
}

// Result summarizes a finished competition run.
type Result struct {
	RunID       string
	Competition string
	Seasons     []int
	Files       []string
	PlayerRows  int
	ZoneRows    int
	RankRows    int
	Missing     int
}

// Seasons lists the years from start to end inclusive.
func Seasons(start, end int) []int {
	if end < start {
		return nil
	}
	out := make([]int, 0, end-start+1)
	for y := start; y <= end; y++ {
		out = append(out, y)
	}
	return out
}

// Run builds and writes the snapshot of comp for seasons up to endYear.
// Files are written stage by stage. The publisher only sees a run once
// every file is written, and the store only once publishing succeeded.
func (r *Runner) Run(ctx context.Context, comp config.Competition, endYear int) (*Result, error) {
	started := r.opts.Now()
	res := &Result{Competition: comp.Name, Seasons: Seasons(comp.StartYear, endYear)}
	log := r.log.With(logger.String("competition", comp.Name))

	if r.store != nil {
		id, err := r.store.StartRun(comp.Name, started)
		if err != nil {
			return nil, err
		}
		res.RunID = id
	} else {
		res.RunID = uuid.NewString()
	}
	log = log.With(logger.String("run_id", res.RunID))
	log.Info(ctx, "run started", logger.Int("seasons", len(res.Seasons)))

	err := r.build(ctx, log, comp.Name, res)

	finished := r.opts.Now()
	r.metrics.RunFinished(comp.Name, finished, err)
	if r.store != nil {
		run := model.Run{
			ID:              res.RunID,
			FinishedAt:      finished,
			Status:          model.RunSuccess,
			PlayerRows:      res.PlayerRows,
			ZoneRows:        res.ZoneRows,
			LeaderboardRows: res.RankRows,
		}
		if err != nil {
			run.Status = model.RunFailed
			run.Error = err.Error()
		}
		if ferr := r.store.FinishRun(run); ferr != nil && err == nil {
			err = ferr
		}
	}
	if err != nil {
		log.Error(ctx, "run failed", logger.Error(err))
		return res, fmt.Errorf("%s: %w", comp.Name, err)
	}
	log.Info(ctx, "run finished",
		logger.Int("files", len(res.Files)),
		logger.Any("duration", finished.Sub(started).Round(time.Millisecond)))
	return res, nil
}

// stage times fn under name.
func (r *Runner) stage(ctx context.Context, log logger.Logger, competition, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	r.metrics.ObserveStage(competition, name, d)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Debug(ctx, "stage done", logger.String("stage", name), logger.Any("duration", d.Round(time.Millisecond)))
	return nil
}

func (r *Runner) dir(competition string) string {
	return filepath.Join(r.opts.OutDir, competition)
}

// write stores one table in the competition directory and records it.
func write[T any](r *Runner, res *Result, t snapshot.Table[T], rows []T) error {
	path, err := snapshot.Write(r.dir(res.Competition), r.opts.Format, t, rows)
	if err != nil {
		return err
	}
	res.Files = append(res.Files, path)
	r.metrics.AddRowsWritten(res.Competition, t.Name, len(rows))
	return nil
}
