// Package leaderboard ranks qualified players within a season scope and
// sweeps every configured scope combination.
package leaderboard

import (
	"sort"
	"strconv"

	"github.com/pable/go-gplus/internal/model"
	"github.com/pable/go-gplus/internal/stats"
)

// Default ranking parameters.
const (
	DefaultTopN            = 10
	DefaultQualifyFraction = 0.25
)

// Scope selects the rows a board is ranked over. An empty dimension, or
// model.All, leaves it unfiltered.
type Scope struct {
	Season     int
	SeasonName string
	Team       string
	Position   string
	ActionType string
}

func dim(v string) string {
	if v == "" {
		return model.All
	}
	return v
}

// Normalize renders unfiltered dimensions as model.All.
func (s Scope) Normalize() Scope {
	s.Team, s.Position, s.ActionType = dim(s.Team), dim(s.Position), dim(s.ActionType)
	if s.SeasonName == "" {
		s.SeasonName = strconv.Itoa(s.Season)
	}
	return s
}

func (s Scope) match(r model.PlayerAction) bool {
	return r.Season == s.Season &&
		(s.Team == model.All || s.Team == r.TeamID) &&
		(s.Position == model.All || s.Position == r.Position) &&
		(s.ActionType == model.All || s.ActionType == r.ActionType)
}

// Options tunes Rank.
type Options struct {
	// TopN is the depth of each ranking.
	TopN int
	// QualifyFraction is the share of the season's max games required.
	// Zero means DefaultQualifyFraction; NoQualification ranks everyone
	// with positive minutes.
	QualifyFraction float64
}

// NoQualification disables the minutes threshold.
const NoQualification = -1.0

func (o Options) withDefaults() Options {
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	switch {
	case o.QualifyFraction == 0:
		o.QualifyFraction = DefaultQualifyFraction
	case o.QualifyFraction < 0:
		o.QualifyFraction = 0
	}
	return o
}

// Standing is one player's aggregate inside a scope.
type Standing struct {
	PlayerID  string
	Total     float64
	Minutes   float64
	P96       float64
	TotalRank float64
	P96Rank   float64
}

// Board is the ranked result for one scope.
type Board struct {
	Scope     Scope
	Threshold float64
	Qualified int
	ByTotal   []Standing
	ByP96     []Standing
}

// Threshold is the minutes needed to qualify: fraction of the season's
// maximum whole games, in minutes.
func Threshold(maxMinutes, fraction float64) float64 {
	return stats.Games(maxMinutes) * fraction * stats.MinutesPerGame
}

// Rank qualifies, aggregates and ranks the rows of one scope. The
// qualification threshold comes from the whole season, not just the scope.
// Players with no positive minutes or below the threshold are excluded
// entirely. An empty scope yields empty lists.
func Rank(rows []model.PlayerAction, scope Scope, opts Options) Board {
	opts = opts.withDefaults()
	scope = scope.Normalize()

	var maxMinutes float64
	for _, r := range rows {
		if r.Season == scope.Season && r.MinutesPlayed > maxMinutes {
			maxMinutes = r.MinutesPlayed
		}
	}
	board := Board{Scope: scope, Threshold: Threshold(maxMinutes, opts.QualifyFraction)}

	type agg struct {
		total   float64
		minutes float64
		n       int
	}
	byPlayer := make(map[string]*agg)
	var order []string
	for _, r := range rows {
		if !scope.match(r) || r.MinutesPlayed <= 0 || r.MinutesPlayed < board.Threshold {
			continue
		}
		a, ok := byPlayer[r.PlayerID]
		if !ok {
			a = &agg{}
			byPlayer[r.PlayerID] = a
			order = append(order, r.PlayerID)
		}
		a.total += r.GoalsAddedRaw
		a.minutes += r.MinutesPlayed
		a.n++
	}

	standings := make([]Standing, 0, len(order))
	for _, id := range order {
		a := byPlayer[id]
		minutes := a.minutes / float64(a.n)
		rate, ok := stats.Per96(a.total, minutes)
		if !ok {
			continue
		}
		standings = append(standings, Standing{PlayerID: id, Total: a.total, Minutes: minutes, P96: rate})
	}
	board.Qualified = len(standings)
	if len(standings) == 0 {
		return board
	}

	totals := make([]float64, len(standings))
	rates := make([]float64, len(standings))
	for i, s := range standings {
		totals[i], rates[i] = s.Total, s.P96
	}
	totalRanks := stats.RankDescending(totals)
	rateRanks := stats.RankDescending(rates)
	for i := range standings {
		standings[i].TotalRank = totalRanks[i]
		standings[i].P96Rank = rateRanks[i]
	}

	board.ByTotal = top(standings, opts.TopN, func(s Standing) float64 { return s.TotalRank })
	board.ByP96 = top(standings, opts.TopN, func(s Standing) float64 { return s.P96Rank })
	return board
}

// top returns the n best standings by rank, ties broken by player id.
func top(standings []Standing, n int, rank func(Standing) float64) []Standing {
	sorted := make([]Standing, len(standings))
	copy(sorted, standings)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := rank(sorted[i]), rank(sorted[j])
		if ri != rj {
			return ri < rj
		}
		return sorted[i].PlayerID < sorted[j].PlayerID
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Entries renders boards as leaderboard rows: the by-total list then the
// by-p96 list of each board, in board order. Player names are left empty
// for the lookup join.
func Entries(boards []Board) []model.LeaderboardEntry {
	var acc model.Accumulator[model.LeaderboardEntry]
	for _, b := range boards {
		acc.Add(entries(b.Scope, b.ByTotal, model.RankByTotal))
		acc.Add(entries(b.Scope, b.ByP96, model.RankByP96))
	}
	return acc.Rows()
}

func entries(scope Scope, standings []Standing, rt model.RankType) []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, len(standings))
	for i, s := range standings {
		out[i] = model.LeaderboardEntry{
			SeasonName: scope.SeasonName,
			PlayerID:   s.PlayerID,
			Total:      s.Total,
			TotalRank:  s.TotalRank,
			P96:        s.P96,
			P96Rank:    s.P96Rank,
			TeamID:     scope.Team,
			Position:   scope.Position,
			ActionType: scope.ActionType,
			RankType:   rt,
		}
	}
	return out
}
