// Package percentile builds the percentile curve tables: for every group of
// the fact table it evaluates the interpolated empirical quantile of the
// season totals and of the per-96 rates at each point of a fixed grid.
package percentile

import (
	"github.com/pable/go-gplus/internal/model"
	"github.com/pable/go-gplus/internal/stats"
)

// GridSize is the number of percentile points per curve.
const GridSize = 100

// Grid returns the 100 evenly spaced points from 0.01 to 1.00 inclusive.
func Grid() []float64 {
	const start, stop = 0.01, 1.0
	step := (stop - start) / float64(GridSize-1)
	g := make([]float64, GridSize)
	for i := range g {
		g[i] = start + float64(i)*step
	}
	g[GridSize-1] = stop
	return g
}

// ordered records the distinct values of one dimension in first-seen order.
type ordered[T comparable] struct {
	seen map[T]struct{}
	vals []T
}

func (o *ordered[T]) add(v T) {
	if o.seen == nil {
		o.seen = make(map[T]struct{})
	}
	if _, ok := o.seen[v]; ok {
		return
	}
	o.seen[v] = struct{}{}
	o.vals = append(o.vals, v)
}

// series is the sample of one group: one slice per value column.
type series [][]float64

func (s series) add(values ...float64) series {
	if s == nil {
		s = make(series, len(values))
	}
	for i, v := range values {
		s[i] = append(s[i], v)
	}
	return s
}

// curves evaluates every column over the grid. ok is false for an empty
// group, which produces no rows.
func curves(s series, grid []float64) ([][]float64, bool) {
	if len(s) == 0 {
		return nil, false
	}
	out := make([][]float64, len(s))
	for i, col := range s {
		q := stats.Quantiles(col, grid)
		if q == nil {
			return nil, false
		}
		out[i] = q
	}
	return out, true
}

type actionKey struct {
	actionType string
	position   string
	season     int
}

// ActionTable computes one curve per (action type, position, season) over
// the players' raw season totals and their per-96 rates.
func ActionTable(rows []model.PlayerAction) []model.ActionPercentile {
	var actions, positions ordered[string]
	var seasons ordered[int]
	groups := make(map[actionKey]series)
	for _, r := range rows {
		rate, ok := stats.Per96(r.GoalsAddedRaw, r.MinutesPlayed)
		if !ok {
			continue
		}
		actions.add(r.ActionType)
		positions.add(r.Position)
		seasons.add(r.Season)
		k := actionKey{r.ActionType, r.Position, r.Season}
		groups[k] = groups[k].add(rate, r.GoalsAddedRaw)
	}

	grid := Grid()
	var acc model.Accumulator[model.ActionPercentile]
	for _, t := range actions.vals {
		for _, p := range positions.vals {
			for _, y := range seasons.vals {
				c, ok := curves(groups[actionKey{t, p, y}], grid)
				if !ok {
					continue
				}
				batch := make([]model.ActionPercentile, len(grid))
				for i, pct := range grid {
					batch[i] = model.ActionPercentile{
						Position:   p,
						ActionType: t,
						Season:     y,
						Pct:        pct,
						P96:        c[0][i],
						PSzn:       c[1][i],
					}
				}
				acc.Add(batch)
			}
		}
	}
	return acc.Rows()
}

type playerKey struct {
	position string
	season   int
}

// PlayerTable computes one curve per (position, season) over players'
// season totals summed across action types.
func PlayerTable(totals []model.EntityTotal) []model.PlayerPercentile {
	var positions ordered[string]
	var seasons ordered[int]
	groups := make(map[playerKey]series)
	for _, e := range totals {
		rate, ok := stats.Per96(e.Total, e.Minutes)
		if !ok {
			continue
		}
		positions.add(e.Position)
		seasons.add(e.Season)
		k := playerKey{e.Position, e.Season}
		groups[k] = groups[k].add(rate, e.Total)
	}

	grid := Grid()
	var acc model.Accumulator[model.PlayerPercentile]
	for _, p := range positions.vals {
		for _, y := range seasons.vals {
			c, ok := curves(groups[playerKey{p, y}], grid)
			if !ok {
				continue
			}
			batch := make([]model.PlayerPercentile, len(grid))
			for i, pct := range grid {
				batch[i] = model.PlayerPercentile{
					Position: p,
					Season:   y,
					Pct:      pct,
					P96:      c[0][i],
					PSzn:     c[1][i],
				}
			}
			acc.Add(batch)
		}
	}
	return acc.Rows()
}

type zoneKey struct {
	zone      int
	season    int
	gameState int
}

// ZoneTable computes one curve per (zone, season, game state) over team
// zone records, for the for, against, net and transposed-net columns.
func ZoneTable(records []model.ZoneRecord) []model.ZonePercentile {
	var zones, seasons, states ordered[int]
	groups := make(map[zoneKey]series)
	for _, r := range records {
		zones.add(r.Zone)
		seasons.add(r.Season)
		states.add(r.GameState)
		k := zoneKey{r.Zone, r.Season, r.GameState}
		groups[k] = groups[k].add(
			r.ForP96, r.ForTotal,
			r.AgainstP96, r.AgainstTotal,
			r.NetP96, r.NetTotal,
			r.TransNetP96, r.TransNetTotal,
		)
	}

	grid := Grid()
	var acc model.Accumulator[model.ZonePercentile]
	for _, z := range zones.vals {
		for _, y := range seasons.vals {
			for _, g := range states.vals {
				c, ok := curves(groups[zoneKey{z, y, g}], grid)
				if !ok {
					continue
				}
				gs := model.ZoneKey{GameState: g}.GameStatePtr()
				batch := make([]model.ZonePercentile, len(grid))
				for i, pct := range grid {
					batch[i] = model.ZonePercentile{
						Season:       y,
						Zone:         z,
						GameState:    gs,
						Pct:          pct,
						ForP96:       c[0][i],
						ForPSzn:      c[1][i],
						AgainstP96:   c[2][i],
						AgainstPSzn:  c[3][i],
						NetP96:       c[4][i],
						NetPSzn:      c[5][i],
						TransNetP96:  c[6][i],
						TransNetPSzn: c[7][i],
					}
				}
				acc.Add(batch)
			}
		}
	}
	return acc.Rows()
}
