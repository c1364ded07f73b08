package asa

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pable/go-gplus/internal/flatten"
	"github.com/pable/go-gplus/internal/model"
)

// RegularSeason is the stage the team endpoints are filtered on.
const RegularSeason = "Regular Season"

// Telemetry endpoint labels.
const (
	EndpointPlayerGoalsAdded     = "players/goals-added"
	EndpointGoalkeeperGoalsAdded = "goalkeepers/goals-added"
	EndpointTeamGoalsAdded       = "teams/goals-added"
	EndpointPlayers              = "players"
	EndpointTeams                = "teams"
)

func goalsAddedQuery(season int) url.Values {
	q := url.Values{}
	q.Set("season_name", strconv.Itoa(season))
	q.Set("split_by_teams", "true")
	q.Set("split_by_seasons", "true")
	q.Set("split_by_games", "false")
	return q
}

// PlayerGoalsAdded returns one record per player, team and season, each
// carrying a data list of per-action-type values.
func (c *Client) PlayerGoalsAdded(ctx context.Context, league string, season int) ([]flatten.Record, error) {
	return c.get(ctx, EndpointPlayerGoalsAdded, fmt.Sprintf("/%s/players/goals-added", league), goalsAddedQuery(season))
}

// GoalkeeperGoalsAdded is PlayerGoalsAdded for goalkeepers. The endpoint
// does not return a position, so every record is tagged as a goalkeeper.
func (c *Client) GoalkeeperGoalsAdded(ctx context.Context, league string, season int) ([]flatten.Record, error) {
	recs, err := c.get(ctx, EndpointGoalkeeperGoalsAdded, fmt.Sprintf("/%s/goalkeepers/goals-added", league), goalsAddedQuery(season))
	if err != nil {
		return nil, err
	}
	flatten.Set(recs, flatten.ColPosition, model.GoalkeeperPosition)
	return recs, nil
}

// TeamZoneGoalsAdded returns team records for one zone of the regular
// season, optionally restricted to one game state.
func (c *Client) TeamZoneGoalsAdded(ctx context.Context, league string, season, zone int, gameState *int) ([]flatten.Record, error) {
	q := url.Values{}
	q.Set("zone", strconv.Itoa(zone))
	q.Set("season_name", strconv.Itoa(season))
	q.Set("stage_name", RegularSeason)
	if gameState != nil {
		q.Set("gamestate_trunc", strconv.Itoa(*gameState))
	}
	return c.get(ctx, EndpointTeamGoalsAdded, fmt.Sprintf("/%s/teams/goals-added", league), q)
}

// TeamGoalsAdded returns the season's team records; it is used to list the
// teams active in a season.
func (c *Client) TeamGoalsAdded(ctx context.Context, league string, season int) ([]flatten.Record, error) {
	q := url.Values{}
	q.Set("season_name", strconv.Itoa(season))
	return c.get(ctx, EndpointTeamGoalsAdded, fmt.Sprintf("/%s/teams/goals-added", league), q)
}

// Players returns identity records for ids, requested in chunks.
func (c *Client) Players(ctx context.Context, league string, ids []string) ([]flatten.Record, error) {
	return c.byIDs(ctx, EndpointPlayers, fmt.Sprintf("/%s/players", league), "player_id", ids)
}

// Teams returns identity records for ids, requested in chunks.
func (c *Client) Teams(ctx context.Context, league string, ids []string) ([]flatten.Record, error) {
	return c.byIDs(ctx, EndpointTeams, fmt.Sprintf("/%s/teams", league), "team_id", ids)
}

func (c *Client) byIDs(ctx context.Context, endpoint, path, param string, ids []string) ([]flatten.Record, error) {
	var out []flatten.Record
	for start := 0; start < len(ids); start += c.chunkSize {
		end := start + c.chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		q := url.Values{}
		q.Set(param, strings.Join(ids[start:end], ","))
		recs, err := c.get(ctx, endpoint, path, q)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}
