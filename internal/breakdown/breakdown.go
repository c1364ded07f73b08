// Package breakdown rolls player facts up to per-entity season totals and
// to team position-group strength.
package breakdown

import (
	"github.com/pable/go-gplus/internal/model"
	"github.com/pable/go-gplus/internal/stats"
)

type entityKey struct {
	season   int
	team     string
	player   string
	position string
}

// EntityTotals sums raw goals added across action types for each (season,
// team, player, position). Minutes repeat on every action row, so they are
// averaged. Entities whose rate is undefined are skipped.
func EntityTotals(rows []model.PlayerAction) []model.EntityTotal {
	type agg struct {
		e       model.EntityTotal
		minutes float64
		n       int
	}
	byKey := make(map[entityKey]*agg)
	var order []entityKey
	for _, r := range rows {
		k := entityKey{r.Season, r.TeamID, r.PlayerID, r.Position}
		a, ok := byKey[k]
		if !ok {
			a = &agg{e: model.EntityTotal{
				Season:     r.Season,
				SeasonName: r.SeasonName,
				TeamID:     r.TeamID,
				PlayerID:   r.PlayerID,
				Position:   r.Position,
			}}
			byKey[k] = a
			order = append(order, k)
		}
		a.e.Total += r.GoalsAddedRaw
		a.minutes += r.MinutesPlayed
		a.n++
	}

	out := make([]model.EntityTotal, 0, len(order))
	for _, k := range order {
		a := byKey[k]
		e := a.e
		e.Minutes = a.minutes / float64(a.n)
		rate, ok := stats.Per96(e.Total, e.Minutes)
		if !ok {
			continue
		}
		e.P96 = rate
		out = append(out, e)
	}
	return out
}

type groupKey struct {
	season   int
	team     string
	position string
}

type rankKey struct {
	season   int
	position string
}

// TeamPositions averages entity totals per (season, team, position) and
// ranks each average against the other teams' same position group in that
// season, highest first with average ranks for ties.
func TeamPositions(totals []model.EntityTotal) []model.TeamBreakdown {
	type group struct {
		seasonName string
		totals     []float64
		rates      []float64
		minutes    []float64
	}
	groups := make(map[groupKey]*group)
	var order []groupKey
	for _, e := range totals {
		k := groupKey{e.Season, e.TeamID, e.Position}
		g, ok := groups[k]
		if !ok {
			g = &group{seasonName: e.SeasonName}
			groups[k] = g
			order = append(order, k)
		}
		g.totals = append(g.totals, e.Total)
		g.rates = append(g.rates, e.P96)
		g.minutes = append(g.minutes, e.Minutes)
	}

	out := make([]model.TeamBreakdown, len(order))
	members := make(map[rankKey][]int)
	var rankOrder []rankKey
	for i, k := range order {
		g := groups[k]
		out[i] = model.TeamBreakdown{
			SeasonName:     g.seasonName,
			TeamID:         k.team,
			Position:       k.position,
			TotalAvg:       stats.Mean(g.totals),
			P96Avg:         stats.Mean(g.rates),
			P96WeightedAvg: stats.WeightedMean(g.rates, g.minutes),
		}
		rk := rankKey{k.season, k.position}
		if _, ok := members[rk]; !ok {
			rankOrder = append(rankOrder, rk)
		}
		members[rk] = append(members[rk], i)
	}

	for _, rk := range rankOrder {
		idx := members[rk]
		rankInto(out, idx, func(b model.TeamBreakdown) float64 { return b.TotalAvg },
			func(b *model.TeamBreakdown, r float64) { b.TotalAvgRank = r })
		rankInto(out, idx, func(b model.TeamBreakdown) float64 { return b.P96Avg },
			func(b *model.TeamBreakdown, r float64) { b.P96AvgRank = r })
		rankInto(out, idx, func(b model.TeamBreakdown) float64 { return b.P96WeightedAvg },
			func(b *model.TeamBreakdown, r float64) { b.P96WeightedAvgRank = r })
	}
	return out
}

func rankInto(rows []model.TeamBreakdown, idx []int, get func(model.TeamBreakdown) float64, set func(*model.TeamBreakdown, float64)) {
	values := make([]float64, len(idx))
	for i, j := range idx {
		values[i] = get(rows[j])
	}
	for i, r := range stats.RankDescending(values) {
		set(&rows[idx[i]], r)
	}
}
