package snapshot

import (
	"math"
	"strconv"

	"github.com/pable/go-gplus/internal/model"
)

// Table describes how rows of T are laid out as CSV. JSON and Parquet use
// the struct tags of T, which carry the same column names.
type Table[T any] struct {
	// Name is the file name without extension.
	Name    string
	Columns []string
	Row     func(T) []string
}

// File names, without extension.
const (
	SeasonPercentiles = "season-g+-pct"
	PlayerPercentiles = "player-g+-pct"
	PlayerRanks       = "player-g+-ranks"
	TeamBreakdown     = "team_position_breakdown"
	ZonePercentiles   = "percentile-g+-zones"
	ZoneFacts         = "team-g+-zones"
	PlayerLookup      = "player_lookup"
	TeamLookup        = "team_lookup"
	Brands            = "brands"
)

func ff(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fi(v int) string { return strconv.Itoa(v) }

func fgs(g *int) string {
	if g == nil {
		return ""
	}
	return strconv.Itoa(*g)
}

// ActionPercentileTable is season-g+-pct.
var ActionPercentileTable = Table[model.ActionPercentile]{
	Name:    SeasonPercentiles,
	Columns: []string{"position", "action_type", "season", "pct", "p96", "pSzn"},
	Row: func(r model.ActionPercentile) []string {
		return []string{r.Position, r.ActionType, fi(r.Season), ff(r.Pct), ff(r.P96), ff(r.PSzn)}
	},
}

// PlayerPercentileTable is player-g+-pct.
var PlayerPercentileTable = Table[model.PlayerPercentile]{
	Name:    PlayerPercentiles,
	Columns: []string{"position", "season", "pct", "p96", "pSzn"},
	Row: func(r model.PlayerPercentile) []string {
		return []string{r.Position, fi(r.Season), ff(r.Pct), ff(r.P96), ff(r.PSzn)}
	},
}

// LeaderboardColumns are the columns of player-g+-ranks.
var LeaderboardColumns = []string{
	"season_name", "player_id", "total", "total_rank", "p96", "p96_rank",
	"team_id", "position", "action_type", "rank_type", "player_name",
}

// LeaderboardTable is player-g+-ranks.
var LeaderboardTable = Table[model.LeaderboardEntry]{
	Name:    PlayerRanks,
	Columns: LeaderboardColumns,
	Row: func(r model.LeaderboardEntry) []string {
		return []string{
			r.SeasonName, r.PlayerID, ff(r.Total), ff(r.TotalRank), ff(r.P96), ff(r.P96Rank),
			r.TeamID, r.Position, r.ActionType, string(r.RankType), r.PlayerName,
		}
	},
}

// BreakdownTable is team_position_breakdown.
var BreakdownTable = Table[model.TeamBreakdown]{
	Name: TeamBreakdown,
	Columns: []string{
		"season_name", "team_id", "general_position", "total_avg", "p96_avg", "p96_weighted_avg",
		"total_avg_rank", "p96_avg_rank", "p96_weighted_avg_rank",
	},
	Row: func(r model.TeamBreakdown) []string {
		return []string{
			r.SeasonName, r.TeamID, r.Position, ff(r.TotalAvg), ff(r.P96Avg), ff(r.P96WeightedAvg),
			ff(r.TotalAvgRank), ff(r.P96AvgRank), ff(r.P96WeightedAvgRank),
		}
	},
}

// ZonePercentileTable is percentile-g+-zones. The game_state column is
// present only when the run was split by game state.
func ZonePercentileTable(byGameState bool) Table[model.ZonePercentile] {
	values := []string{
		"pct", "for_p96", "for_pSzn", "against_p96", "against_pSzn",
		"net_p96", "net_pSzn", "trans_net_p96", "trans_net_pSzn",
	}
	cols := []string{"season", "zone"}
	if byGameState {
		cols = append(cols, "game_state")
	}
	cols = append(cols, values...)
	return Table[model.ZonePercentile]{
		Name:    ZonePercentiles,
		Columns: cols,
		Row: func(r model.ZonePercentile) []string {
			row := []string{fi(r.Season), fi(r.Zone)}
			if byGameState {
				row = append(row, fgs(r.GameState))
			}
			return append(row,
				ff(r.Pct), ff(r.ForP96), ff(r.ForPSzn), ff(r.AgainstP96), ff(r.AgainstPSzn),
				ff(r.NetP96), ff(r.NetPSzn), ff(r.TransNetP96), ff(r.TransNetPSzn),
			)
		},
	}
}

// ZoneFactTable is team-g+-zones.
var ZoneFactTable = Table[model.ZoneFact]{
	Name:    ZoneFacts,
	Columns: []string{"season_name", "team_id", "minutes", "zone", "game_state", "action_type", "for_total", "against_total"},
	Row: func(r model.ZoneFact) []string {
		return []string{r.SeasonName, r.TeamID, ff(r.Minutes), fi(r.Zone), fgs(r.GameState), r.ActionType, ff(r.ForTotal), ff(r.AgainstTotal)}
	},
}

// PlayerLookupTable is the per-competition player_lookup.
var PlayerLookupTable = Table[model.Player]{
	Name:    PlayerLookup,
	Columns: []string{"player_id", "player_name"},
	Row:     func(r model.Player) []string { return []string{r.PlayerID, r.PlayerName} },
}

// TeamLookupTable is the per-competition team_lookup.
var TeamLookupTable = Table[model.Team]{
	Name:    TeamLookup,
	Columns: []string{"team_id", "team_name", "team_abbreviation"},
	Row:     func(r model.Team) []string { return []string{r.TeamID, r.TeamName, r.Abbreviation} },
}

// PlayerSeasonTable is the combined player_lookup across competitions.
var PlayerSeasonTable = Table[model.PlayerSeason]{
	Name:    PlayerLookup,
	Columns: []string{"competition", "season_name", "team_id", "player_id", "player_name"},
	Row: func(r model.PlayerSeason) []string {
		return []string{r.Competition, r.SeasonName, r.TeamID, r.PlayerID, r.PlayerName}
	},
}

// TeamSeasonTable is the combined team_lookup across competitions.
var TeamSeasonTable = Table[model.TeamSeason]{
	Name:    TeamLookup,
	Columns: []string{"competition", "season_name", "team_id"},
	Row:     func(r model.TeamSeason) []string { return []string{r.Competition, r.SeasonName, r.TeamID} },
}
