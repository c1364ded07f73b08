// Package model holds the fact rows and derived snapshot rows shared by the
// goals-added pipeline.
package model

import "time"

// GoalkeeperPosition is the general_position assigned to goalkeeper rows,
// which the upstream goalkeeper endpoint does not carry.
const GoalkeeperPosition = "GK"

// All is the scope value used for a dimension that is not filtered.
const All = "All"

// ---- Fact rows (immutable once flattened) ----

// PlayerAction is one player-season-team record exploded by action type.
type PlayerAction struct {
	Season          int
	SeasonName      string
	PlayerID        string
	TeamID          string
	Position        string
	MinutesPlayed   float64
	ActionType      string
	GoalsAddedRaw   float64
	GoalsAddedAbove float64
	CountActions    float64
}

// TeamZoneAction is one team-season-zone record exploded by action type.
// GameState is nil when the pull was not split by game state.
type TeamZoneAction struct {
	Season     int
	SeasonName string
	TeamID     string
	Minutes    float64
	Zone       int
	GameState  *int
	ActionType string
	ForTotal   float64
	Against    float64
}

// ---- Derived views ----

// ActionPercentile is one point of a (position, action_type, season) curve.
type ActionPercentile struct {
	Position   string  `json:"position" parquet:"position"`
	ActionType string  `json:"action_type" parquet:"action_type"`
	Season     int     `json:"season" parquet:"season"`
	Pct        float64 `json:"pct" parquet:"pct"`
	P96        float64 `json:"p96" parquet:"p96"`
	PSzn       float64 `json:"pSzn" parquet:"pSzn"`
}

// PlayerPercentile is one point of a (position, season) player-total curve.
type PlayerPercentile struct {
	Position string  `json:"position" parquet:"position"`
	Season   int     `json:"season" parquet:"season"`
	Pct      float64 `json:"pct" parquet:"pct"`
	P96      float64 `json:"p96" parquet:"p96"`
	PSzn     float64 `json:"pSzn" parquet:"pSzn"`
}

// ZonePercentile is one point of a (zone, season[, game_state]) team curve.
type ZonePercentile struct {
	Season       int     `json:"season" parquet:"season"`
	Zone         int     `json:"zone" parquet:"zone"`
	GameState    *int    `json:"game_state,omitempty" parquet:"game_state,optional"`
	Pct          float64 `json:"pct" parquet:"pct"`
	ForP96       float64 `json:"for_p96" parquet:"for_p96"`
	ForPSzn      float64 `json:"for_pSzn" parquet:"for_pSzn"`
	AgainstP96   float64 `json:"against_p96" parquet:"against_p96"`
	AgainstPSzn  float64 `json:"against_pSzn" parquet:"against_pSzn"`
	NetP96       float64 `json:"net_p96" parquet:"net_p96"`
	NetPSzn      float64 `json:"net_pSzn" parquet:"net_pSzn"`
	TransNetP96  float64 `json:"trans_net_p96" parquet:"trans_net_p96"`
	TransNetPSzn float64 `json:"trans_net_pSzn" parquet:"trans_net_pSzn"`
}

// RankType names which ranking produced a leaderboard row.
type RankType string

const (
	RankByTotal RankType = "total"
	RankByP96   RankType = "p96"
)

// LeaderboardEntry is one player in a top-N list for a season scope.
type LeaderboardEntry struct {
	SeasonName string   `json:"season_name" parquet:"season_name"`
	PlayerID   string   `json:"player_id" parquet:"player_id"`
	Total      float64  `json:"total" parquet:"total"`
	TotalRank  float64  `json:"total_rank" parquet:"total_rank"`
	P96        float64  `json:"p96" parquet:"p96"`
	P96Rank    float64  `json:"p96_rank" parquet:"p96_rank"`
	TeamID     string   `json:"team_id" parquet:"team_id"`
	Position   string   `json:"position" parquet:"position"`
	ActionType string   `json:"action_type" parquet:"action_type"`
	RankType   RankType `json:"rank_type" parquet:"rank_type"`
	PlayerName string   `json:"player_name" parquet:"player_name"`
}

// EntityTotal is a player's season contribution for one team and position,
// summed over action types.
type EntityTotal struct {
	Season     int
	SeasonName string
	TeamID     string
	PlayerID   string
	Position   string
	Minutes    float64
	Total      float64
	P96        float64
}

// TeamBreakdown is the strength of a team's position group in a season.
type TeamBreakdown struct {
	SeasonName         string  `json:"season_name" parquet:"season_name"`
	TeamID             string  `json:"team_id" parquet:"team_id"`
	Position           string  `json:"general_position" parquet:"general_position"`
	TotalAvg           float64 `json:"total_avg" parquet:"total_avg"`
	P96Avg             float64 `json:"p96_avg" parquet:"p96_avg"`
	P96WeightedAvg     float64 `json:"p96_weighted_avg" parquet:"p96_weighted_avg"`
	TotalAvgRank       float64 `json:"total_avg_rank" parquet:"total_avg_rank"`
	P96AvgRank         float64 `json:"p96_avg_rank" parquet:"p96_avg_rank"`
	P96WeightedAvgRank float64 `json:"p96_weighted_avg_rank" parquet:"p96_weighted_avg_rank"`
}

// ZoneKey identifies a zone record. GameState is NoGameState when the pull
// was not split by game state.
type ZoneKey struct {
	Season    int
	TeamID    string
	Zone      int
	GameState int
}

// NoGameState marks a zone record that covers every game state.
const NoGameState = -99

// ZoneRecord is a team's aggregate in one zone, with its mirror differentials.
type ZoneRecord struct {
	ZoneKey
	SeasonName      string
	Minutes         float64
	ForTotal        float64
	AgainstTotal    float64
	ForP96          float64
	AgainstP96      float64
	NetTotal        float64
	NetP96          float64
	TransNetTotal   float64
	TransNetP96     float64
	MirrorAvailable bool
}

// HasGameState reports whether the record is scoped to one game state.
func (k ZoneKey) HasGameState() bool { return k.GameState != NoGameState }

// GameStatePtr returns the game state as an optional value for output rows.
func (k ZoneKey) GameStatePtr() *int {
	if !k.HasGameState() {
		return nil
	}
	g := k.GameState
	return &g
}

// ZoneFact is a flattened team zone fact row in its output shape.
type ZoneFact struct {
	SeasonName   string  `json:"season_name" parquet:"season_name"`
	TeamID       string  `json:"team_id" parquet:"team_id"`
	Minutes      float64 `json:"minutes" parquet:"minutes"`
	Zone         int     `json:"zone" parquet:"zone"`
	GameState    *int    `json:"game_state,omitempty" parquet:"game_state,optional"`
	ActionType   string  `json:"action_type" parquet:"action_type"`
	ForTotal     float64 `json:"for_total" parquet:"for_total"`
	AgainstTotal float64 `json:"against_total" parquet:"against_total"`
}

// ---- Lookups ----

// Player is an entry of the player lookup table.
type Player struct {
	PlayerID   string `json:"player_id" parquet:"player_id"`
	PlayerName string `json:"player_name" parquet:"player_name"`
}

// Team is an entry of the team lookup table.
type Team struct {
	TeamID       string `json:"team_id" parquet:"team_id"`
	TeamName     string `json:"team_name" parquet:"team_name"`
	Abbreviation string `json:"team_abbreviation" parquet:"team_abbreviation"`
}

// Brand is a team record in the downstream brands.json shape.
type Brand struct {
	ASAID        string `json:"asaId"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Competition  string `json:"competition"`
}

// PlayerSeason is a row of the cross-competition player lookup.
type PlayerSeason struct {
	Competition string `json:"competition" parquet:"competition"`
	SeasonName  string `json:"season_name" parquet:"season_name"`
	TeamID      string `json:"team_id" parquet:"team_id"`
	PlayerID    string `json:"player_id" parquet:"player_id"`
	PlayerName  string `json:"player_name" parquet:"player_name"`
}

// TeamSeason is a row of the cross-competition team lookup.
type TeamSeason struct {
	Competition string `json:"competition" parquet:"competition"`
	SeasonName  string `json:"season_name" parquet:"season_name"`
	TeamID      string `json:"team_id" parquet:"team_id"`
}

// ---- Runs ----

// RunStatus is the state of a snapshot run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// Run is one snapshot build of a competition.
type Run struct {
	ID              string
	Competition     string
	StartedAt       time.Time
	FinishedAt      time.Time
	Status          RunStatus
	PlayerRows      int
	ZoneRows        int
	LeaderboardRows int
	Error           string
}
