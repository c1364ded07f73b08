// Package lookup builds the id → name tables and joins them onto derived
// rows. Joins are left joins: a row whose id is unknown keeps an empty name.
package lookup

import (
	"sort"

	"github.com/pable/go-gplus/internal/flatten"
	"github.com/pable/go-gplus/internal/model"
)

// Identity endpoint columns.
const (
	colPlayerName = "player_name"
	colTeamName   = "team_name"
	colTeamAbbrev = "team_abbreviation"
)

// Players reads player identity rows, keeping the first name seen per id,
// sorted by id. Rows without an id are skipped.
func Players(records []flatten.Record) []model.Player {
	byID := make(map[string]model.Player)
	for _, r := range records {
		id := r.String(flatten.ColPlayerID)
		if id == "" {
			continue
		}
		if _, ok := byID[id]; ok {
			continue
		}
		byID[id] = model.Player{PlayerID: id, PlayerName: r.String(colPlayerName)}
	}
	out := make([]model.Player, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// Teams reads team identity rows like Players.
func Teams(records []flatten.Record) []model.Team {
	byID := make(map[string]model.Team)
	for _, r := range records {
		id := r.String(flatten.ColTeamID)
		if id == "" {
			continue
		}
		if _, ok := byID[id]; ok {
			continue
		}
		byID[id] = model.Team{
			TeamID:       id,
			TeamName:     r.String(colTeamName),
			Abbreviation: r.String(colTeamAbbrev),
		}
	}
	out := make([]model.Team, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

// PlayerIDs returns the distinct player ids of the fact rows, sorted. Every
// player in the data set is looked up, ranked or not.
func PlayerIDs(rows []model.PlayerAction) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range rows {
		if r.PlayerID == "" || seen[r.PlayerID] {
			continue
		}
		seen[r.PlayerID] = true
		ids = append(ids, r.PlayerID)
	}
	sort.Strings(ids)
	return ids
}

// TeamIDs returns the distinct team ids of the breakdown rows, sorted.
func TeamIDs(rows []model.TeamBreakdown) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, b := range rows {
		if b.TeamID == "" || b.TeamID == model.All || seen[b.TeamID] {
			continue
		}
		seen[b.TeamID] = true
		ids = append(ids, b.TeamID)
	}
	sort.Strings(ids)
	return ids
}

// JoinPlayers fills PlayerName on a copy of entries and reports how many
// entries had no match.
func JoinPlayers(entries []model.LeaderboardEntry, players []model.Player) (joined []model.LeaderboardEntry, missing int) {
	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.PlayerID] = p.PlayerName
	}
	joined = make([]model.LeaderboardEntry, len(entries))
	for i, e := range entries {
		name, ok := names[e.PlayerID]
		if !ok {
			missing++
		}
		e.PlayerName = name
		joined[i] = e
	}
	return joined, missing
}

type seasonKey struct {
	season string
	team   string
	player string
}

// PlayerSeasons lists each (season, team, player) of a competition's ranks
// once, in first-seen order. League-wide rows (team All) are skipped.
func PlayerSeasons(competition string, entries []model.LeaderboardEntry) []model.PlayerSeason {
	seen := make(map[seasonKey]bool)
	var out []model.PlayerSeason
	for _, e := range entries {
		if e.TeamID == model.All || e.TeamID == "" {
			continue
		}
		k := seasonKey{e.SeasonName, e.TeamID, e.PlayerID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, model.PlayerSeason{
			Competition: competition,
			SeasonName:  e.SeasonName,
			TeamID:      e.TeamID,
			PlayerID:    e.PlayerID,
			PlayerName:  e.PlayerName,
		})
	}
	return out
}

// TeamSeasons derives the (competition, season, team) list from player
// seasons, ignoring rows whose player never resolved to a name.
func TeamSeasons(players []model.PlayerSeason) []model.TeamSeason {
	seen := make(map[model.TeamSeason]bool)
	var out []model.TeamSeason
	for _, p := range players {
		if p.PlayerName == "" {
			continue
		}
		ts := model.TeamSeason{Competition: p.Competition, SeasonName: p.SeasonName, TeamID: p.TeamID}
		if seen[ts] {
			continue
		}
		seen[ts] = true
		out = append(out, ts)
	}
	return out
}

// Brands renders a competition's teams in the downstream brands shape.
func Brands(competition string, teams []model.Team) []model.Brand {
	out := make([]model.Brand, len(teams))
	for i, t := range teams {
		out[i] = model.Brand{
			ASAID:        t.TeamID,
			Name:         t.TeamName,
			Abbreviation: t.Abbreviation,
			Competition:  competition,
		}
	}
	return out
}
