package pipeline

import (
	"context"

	"github.com/pable/go-gplus/internal/breakdown"
	"github.com/pable/go-gplus/internal/flatten"
	"github.com/pable/go-gplus/internal/leaderboard"
	"github.com/pable/go-gplus/internal/logger"
	"github.com/pable/go-gplus/internal/lookup"
	"github.com/pable/go-gplus/internal/model"
	"github.com/pable/go-gplus/internal/percentile"
	"github.com/pable/go-gplus/internal/publish"
	"github.com/pable/go-gplus/internal/snapshot"
	"github.com/pable/go-gplus/internal/storage"
	"github.com/pable/go-gplus/internal/zones"
)

// Fact kinds for metrics.
const (
	kindPlayer = "player"
	kindZone   = "zone"
)

func (r *Runner) build(ctx context.Context, log logger.Logger, competition string, res *Result) error {
	var (
		facts    []model.PlayerAction
		totals   []model.EntityTotal
		entries  []model.LeaderboardEntry
		players  []model.Player
		teams    []model.Team
		bd       []model.TeamBreakdown
		zoneRows []model.TeamZoneAction
		records  []model.ZoneRecord
	)

	err := r.stage(ctx, log, competition, "fetch_players", func() error {
		var err error
		facts, err = r.fetchPlayers(ctx, log, competition, res.Seasons)
		return err
	})
	if err != nil {
		return err
	}
	res.PlayerRows = len(facts)

	err = r.stage(ctx, log, competition, "percentiles", func() error {
		if err := write(r, res, snapshot.ActionPercentileTable, percentile.ActionTable(facts)); err != nil {
			return err
		}
		totals = breakdown.EntityTotals(facts)
		return write(r, res, snapshot.PlayerPercentileTable, percentile.PlayerTable(totals))
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, log, competition, "leaderboards", func() error {
		boards, err := leaderboard.Sweep(ctx, facts, r.opts.Shapes, r.opts.Leaderboard, r.opts.Workers)
		if err != nil {
			return err
		}
		entries = leaderboard.Entries(boards)
		log.Debug(ctx, "leaderboards ranked", logger.Int("boards", len(boards)), logger.Int("rows", len(entries)))
		return nil
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, log, competition, "player_lookup", func() error {
		recs, err := r.src.Players(ctx, competition, lookup.PlayerIDs(facts))
		if err != nil {
			return err
		}
		players = lookup.Players(recs)
		var missing int
		entries, missing = lookup.JoinPlayers(entries, players)
		res.Missing = missing
		if missing > 0 {
			log.Warn(ctx, "leaderboard rows without a player name", logger.Int("rows", missing))
		}
		res.RankRows = len(entries)
		if err := write(r, res, snapshot.LeaderboardTable, entries); err != nil {
			return err
		}
		return write(r, res, snapshot.PlayerLookupTable, players)
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, log, competition, "team_breakdown", func() error {
		bd = breakdown.TeamPositions(totals)
		if err := write(r, res, snapshot.BreakdownTable, bd); err != nil {
			return err
		}
		recs, err := r.src.Teams(ctx, competition, lookup.TeamIDs(bd))
		if err != nil {
			return err
		}
		teams = lookup.Teams(recs)
		return write(r, res, snapshot.TeamLookupTable, teams)
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, log, competition, "fetch_zones", func() error {
		var err error
		zoneRows, err = r.fetchZones(ctx, log, competition, res.Seasons)
		if err != nil {
			return err
		}
		return write(r, res, snapshot.ZoneFactTable, flatten.ZoneFacts(zoneRows))
	})
	if err != nil {
		return err
	}
	res.ZoneRows = len(zoneRows)

	err = r.stage(ctx, log, competition, "zones", func() error {
		records = zones.Build(zoneRows, r.opts.Excluded, r.opts.Mirror)
		return write(r, res, snapshot.ZonePercentileTable(r.opts.ZoneGameStates), percentile.ZoneTable(records))
	})
	if err != nil {
		return err
	}

	if r.pub != nil {
		err = r.stage(ctx, log, competition, "publish", func() error {
			return r.pub.Publish(ctx, competition, res.RunID, []publish.Table{
				{Name: snapshot.PlayerRanks, Rows: entries},
				{Name: snapshot.TeamBreakdown, Rows: bd},
				{Name: snapshot.PlayerLookup, Rows: players},
				{Name: snapshot.TeamLookup, Rows: teams},
			})
		})
		if err != nil {
			return err
		}
	}

	// The store goes last: its tables must only ever hold a run that
	// otherwise succeeded.
	if r.store != nil {
		err = r.stage(ctx, log, competition, "store", func() error {
			return r.store.ReplaceSnapshot(competition, res.RunID, storage.Snapshot{
				Leaderboard: entries,
				Breakdown:   bd,
				Players:     players,
				Teams:       teams,
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// fetchPlayers pulls field players and goalkeepers for every season and
// flattens them into fact rows.
func (r *Runner) fetchPlayers(ctx context.Context, log logger.Logger, competition string, seasons []int) ([]model.PlayerAction, error) {
	var acc model.Accumulator[model.PlayerAction]
	for _, season := range seasons {
		field, err := r.src.PlayerGoalsAdded(ctx, competition, season)
		if err != nil {
			return nil, err
		}
		keepers, err := r.src.GoalkeeperGoalsAdded(ctx, competition, season)
		if err != nil {
			return nil, err
		}
		rows := flatten.Explode(append(field, keepers...), flatten.DataField)
		facts, dropped := flatten.PlayerActions(rows, season)
		r.metrics.AddFactRows(competition, kindPlayer, len(facts), dropped)
		if dropped > 0 {
			log.Debug(ctx, "dropped player rows", logger.Int("season", season), logger.Int("rows", dropped))
		}
		log.Info(ctx, "season pulled",
			logger.Int("season", season),
			logger.Int("players", len(field)+len(keepers)),
			logger.Int("facts", len(facts)))
		acc.Add(facts)
	}
	return acc.Rows(), nil
}

// gameStates lists the game states to pull; a single nil entry pulls every
// game state at once.
func (r *Runner) gameStates() []*int {
	if !r.opts.ZoneGameStates {
		return []*int{nil}
	}
	var out []*int
	for g := zones.MinGameState; g <= zones.MaxGameState; g++ {
		out = append(out, &g)
	}
	return out
}

// fetchZones pulls every zone of every season, per game state when split.
func (r *Runner) fetchZones(ctx context.Context, log logger.Logger, competition string, seasons []int) ([]model.TeamZoneAction, error) {
	var acc model.Accumulator[model.TeamZoneAction]
	states := r.gameStates()
	for _, season := range seasons {
		before := acc.Len()
		for zone := zones.MinZone; zone <= zones.MaxZone; zone++ {
			for _, gs := range states {
				recs, err := r.src.TeamZoneGoalsAdded(ctx, competition, season, zone, gs)
				if err != nil {
					return nil, err
				}
				facts, dropped := flatten.TeamZoneActions(flatten.Explode(recs, flatten.DataField), season, zone, gs)
				r.metrics.AddFactRows(competition, kindZone, len(facts), dropped)
				acc.Add(facts)
			}
		}
		log.Info(ctx, "zones pulled", logger.Int("season", season), logger.Int("facts", acc.Len()-before))
	}
	return acc.Rows(), nil
}
