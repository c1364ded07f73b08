// Package zones aggregates team zone facts and computes the mirrored-zone
// differentials. The pitch is split into 30 zones; zone z faces zone 31-z
// from the opponent's point of view.
package zones

import (
	"fmt"
	"strings"

	"github.com/pable/go-gplus/internal/model"
	"github.com/pable/go-gplus/internal/stats"
)

// Zone bounds.
const (
	MinZone = 1
	MaxZone = 30
)

// Game state bounds of gamestate_trunc.
const (
	MinGameState = -2
	MaxGameState = 2
)

// DefaultExcluded are the action types left out of zone aggregates.
var DefaultExcluded = []string{"Fouling"}

// Mirror returns the zone facing z.
func Mirror(z int) int { return MaxZone + 1 - z }

// Mode selects how the mirrored against value is found.
type Mode string

const (
	// TeamScoped mirrors against the same team, season and game state.
	TeamScoped Mode = "team"
	// LeagueBaseline mirrors against the league mean for the season and
	// game state.
	LeagueBaseline Mode = "league"
)

// ParseMode reads a mode name; empty means TeamScoped.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", TeamScoped:
		return TeamScoped, nil
	case LeagueBaseline:
		return LeagueBaseline, nil
	default:
		return "", fmt.Errorf("unknown zone mirror mode %q", s)
	}
}

func keyOf(r model.TeamZoneAction) model.ZoneKey {
	k := model.ZoneKey{Season: r.Season, TeamID: r.TeamID, Zone: r.Zone, GameState: model.NoGameState}
	if r.GameState != nil {
		k.GameState = *r.GameState
	}
	return k
}

// Aggregate sums team zone facts over action types, skipping the excluded
// ones. Minutes are averaged since every action row of a team repeats them.
// Records come back in first-seen key order.
func Aggregate(rows []model.TeamZoneAction, excluded []string) []model.ZoneRecord {
	skip := make(map[string]bool, len(excluded))
	for _, t := range excluded {
		skip[t] = true
	}

	type agg struct {
		rec     model.ZoneRecord
		minutes float64
		n       int
	}
	byKey := make(map[model.ZoneKey]*agg)
	var order []model.ZoneKey
	for _, r := range rows {
		if skip[r.ActionType] {
			continue
		}
		k := keyOf(r)
		a, ok := byKey[k]
		if !ok {
			a = &agg{rec: model.ZoneRecord{ZoneKey: k, SeasonName: r.SeasonName}}
			byKey[k] = a
			order = append(order, k)
		}
		a.rec.ForTotal += r.ForTotal
		a.rec.AgainstTotal += r.Against
		a.minutes += r.Minutes
		a.n++
	}

	out := make([]model.ZoneRecord, 0, len(order))
	for _, k := range order {
		a := byKey[k]
		rec := a.rec
		rec.Minutes = a.minutes / float64(a.n)
		rec.ForP96, _ = stats.Per96(rec.ForTotal, rec.Minutes)
		rec.AgainstP96, _ = stats.Per96(rec.AgainstTotal, rec.Minutes)
		out = append(out, rec)
	}
	return out
}

type mirrorValue struct {
	total, p96 float64
}

type baselineKey struct {
	season, zone, gameState int
}

// Transpose fills the net and transposed-net columns. net is for minus
// against in the same zone; trans_net is for minus the against value found
// at the mirrored zone, or zero when no mirror exists. The input is not
// modified.
func Transpose(records []model.ZoneRecord, mode Mode) []model.ZoneRecord {
	var lookup func(model.ZoneKey) (mirrorValue, bool)
	switch mode {
	case LeagueBaseline:
		lookup = leagueIndex(records)
	default:
		lookup = teamIndex(records)
	}

	out := make([]model.ZoneRecord, len(records))
	for i, r := range records {
		r.NetTotal = r.ForTotal - r.AgainstTotal
		r.NetP96 = r.ForP96 - r.AgainstP96
		mk := r.ZoneKey
		mk.Zone = Mirror(r.Zone)
		if m, ok := lookup(mk); ok {
			r.TransNetTotal = r.ForTotal - m.total
			r.TransNetP96 = r.ForP96 - m.p96
			r.MirrorAvailable = true
		} else {
			r.TransNetTotal, r.TransNetP96, r.MirrorAvailable = 0, 0, false
		}
		out[i] = r
	}
	return out
}

func teamIndex(records []model.ZoneRecord) func(model.ZoneKey) (mirrorValue, bool) {
	idx := make(map[model.ZoneKey]mirrorValue, len(records))
	for _, r := range records {
		idx[r.ZoneKey] = mirrorValue{r.AgainstTotal, r.AgainstP96}
	}
	return func(k model.ZoneKey) (mirrorValue, bool) {
		v, ok := idx[k]
		return v, ok
	}
}

func leagueIndex(records []model.ZoneRecord) func(model.ZoneKey) (mirrorValue, bool) {
	totals := make(map[baselineKey][]float64)
	rates := make(map[baselineKey][]float64)
	for _, r := range records {
		k := baselineKey{r.Season, r.Zone, r.GameState}
		totals[k] = append(totals[k], r.AgainstTotal)
		rates[k] = append(rates[k], r.AgainstP96)
	}
	idx := make(map[baselineKey]mirrorValue, len(totals))
	for k, t := range totals {
		idx[k] = mirrorValue{stats.Mean(t), stats.Mean(rates[k])}
	}
	return func(k model.ZoneKey) (mirrorValue, bool) {
		v, ok := idx[baselineKey{k.Season, k.Zone, k.GameState}]
		return v, ok
	}
}

// Build aggregates rows and transposes the result.
func Build(rows []model.TeamZoneAction, excluded []string, mode Mode) []model.ZoneRecord {
	return Transpose(Aggregate(rows, excluded), mode)
}
