package flatten

import (
	"strconv"

	"github.com/pable/go-gplus/internal/model"
)

// Column names produced by Explode on goals-added records.
const (
	colActionType      = DataField + ".action_type"
	colGoalsAddedRaw   = DataField + ".goals_added_raw"
	colGoalsAddedAbove = DataField + ".goals_added_above_avg"
	colCountActions    = DataField + ".count_actions"
	colGoalsAddedFor   = DataField + ".goals_added_for"
	colGoalsAddedAgst  = DataField + ".goals_added_against"
)

// Upstream entity columns.
const (
	ColSeasonName    = "season_name"
	ColPlayerID      = "player_id"
	ColTeamID        = "team_id"
	ColPosition      = "general_position"
	ColMinutesPlayed = "minutes_played"
	ColMinutes       = "minutes"
	ColZone          = "zone"
	ColGameState     = "gamestate_trunc"
)

// PlayerActions converts exploded player rows to fact rows for season.
// Rows without a player id or with no positive minutes are dropped and
// counted; they never reach a rate, quantile or rank.
func PlayerActions(rows []Record, season int) (facts []model.PlayerAction, dropped int) {
	facts = make([]model.PlayerAction, 0, len(rows))
	for _, r := range rows {
		minutes, _ := r.Float(ColMinutesPlayed)
		playerID := r.String(ColPlayerID)
		if playerID == "" || minutes <= 0 {
			dropped++
			continue
		}
		raw, _ := r.Float(colGoalsAddedRaw)
		above, _ := r.Float(colGoalsAddedAbove)
		count, _ := r.Float(colCountActions)
		seasonName := r.String(ColSeasonName)
		if seasonName == "" {
			seasonName = strconv.Itoa(season)
		}
		facts = append(facts, model.PlayerAction{
			Season:          season,
			SeasonName:      seasonName,
			PlayerID:        playerID,
			TeamID:          r.String(ColTeamID),
			Position:        r.String(ColPosition),
			MinutesPlayed:   minutes,
			ActionType:      r.String(colActionType),
			GoalsAddedRaw:   raw,
			GoalsAddedAbove: above,
			CountActions:    count,
		})
	}
	return facts, dropped
}

// TeamZoneActions converts exploded team zone rows to fact rows. zone and
// gameState are the request parameters, which the response does not echo.
// Rows with no positive minutes are dropped and counted.
func TeamZoneActions(rows []Record, season, zone int, gameState *int) (facts []model.TeamZoneAction, dropped int) {
	facts = make([]model.TeamZoneAction, 0, len(rows))
	for _, r := range rows {
		minutes, _ := r.Float(ColMinutes)
		if minutes <= 0 {
			dropped++
			continue
		}
		forTotal, _ := r.Float(colGoalsAddedFor)
		against, _ := r.Float(colGoalsAddedAgst)
		var gs *int
		if gameState != nil {
			g := *gameState
			gs = &g
		}
		facts = append(facts, model.TeamZoneAction{
			Season:     season,
			SeasonName: strconv.Itoa(season),
			TeamID:     r.String(ColTeamID),
			Minutes:    minutes,
			Zone:       zone,
			GameState:  gs,
			ActionType: r.String(colActionType),
			ForTotal:   forTotal,
			Against:    against,
		})
	}
	return facts, dropped
}

// ZoneFacts reshapes team zone fact rows into their snapshot form.
func ZoneFacts(rows []model.TeamZoneAction) []model.ZoneFact {
	out := make([]model.ZoneFact, len(rows))
	for i, r := range rows {
		out[i] = model.ZoneFact{
			SeasonName:   r.SeasonName,
			TeamID:       r.TeamID,
			Minutes:      r.Minutes,
			Zone:         r.Zone,
			GameState:    r.GameState,
			ActionType:   r.ActionType,
			ForTotal:     r.ForTotal,
			AgainstTotal: r.Against,
		}
	}
	return out
}
