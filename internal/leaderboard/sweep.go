package leaderboard

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pable/go-gplus/internal/model"
)

// Dimension is a scope dimension a shape can filter on.
type Dimension string

const (
	DimTeam       Dimension = "team"
	DimPosition   Dimension = "position"
	DimActionType Dimension = "action_type"
)

// Shape is the set of dimensions a family of scopes filters on; the other
// dimensions stay at All.
type Shape []Dimension

func (s Shape) has(d Dimension) bool {
	for _, x := range s {
		if x == d {
			return true
		}
	}
	return false
}

func (s Shape) String() string {
	if len(s) == 0 {
		return "league"
	}
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = string(d)
	}
	return strings.Join(parts, "+")
}

// DefaultShapes is every subset of {team, position, action_type}: the full
// Cartesian sweep.
func DefaultShapes() []Shape {
	return []Shape{
		{},
		{DimTeam},
		{DimPosition},
		{DimActionType},
		{DimTeam, DimPosition},
		{DimTeam, DimActionType},
		{DimPosition, DimActionType},
		{DimTeam, DimPosition, DimActionType},
	}
}

// ParseShape reads a shape such as "team+position"; "league" or "" is the
// unfiltered shape.
func ParseShape(s string) (Shape, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "league" {
		return Shape{}, nil
	}
	var shape Shape
	for _, part := range strings.Split(s, "+") {
		d := Dimension(strings.TrimSpace(part))
		switch d {
		case DimTeam, DimPosition, DimActionType:
		default:
			return nil, fmt.Errorf("unknown scope dimension %q", part)
		}
		if shape.has(d) {
			return nil, fmt.Errorf("duplicate scope dimension %q", part)
		}
		shape = append(shape, d)
	}
	return shape, nil
}

type seasonDims struct {
	name                      string
	teams, positions, actions []string
	seenT, seenP, seenA       map[string]bool
}

func (d *seasonDims) add(r model.PlayerAction) {
	if !d.seenT[r.TeamID] {
		d.seenT[r.TeamID] = true
		d.teams = append(d.teams, r.TeamID)
	}
	if !d.seenP[r.Position] {
		d.seenP[r.Position] = true
		d.positions = append(d.positions, r.Position)
	}
	if !d.seenA[r.ActionType] {
		d.seenA[r.ActionType] = true
		d.actions = append(d.actions, r.ActionType)
	}
}

// Scopes enumerates, for every season and every shape, each combination of
// the dimension values observed in that season. Seasons and values keep
// first-seen order; duplicate scopes are dropped.
func Scopes(rows []model.PlayerAction, shapes []Shape) []Scope {
	var seasons []int
	dims := make(map[int]*seasonDims)
	for _, r := range rows {
		d, ok := dims[r.Season]
		if !ok {
			d = &seasonDims{
				name:  r.SeasonName,
				seenT: map[string]bool{}, seenP: map[string]bool{}, seenA: map[string]bool{},
			}
			dims[r.Season] = d
			seasons = append(seasons, r.Season)
		}
		d.add(r)
	}

	all := []string{model.All}
	pick := func(s Shape, d Dimension, vals []string) []string {
		if s.has(d) {
			return vals
		}
		return all
	}

	seen := make(map[Scope]bool)
	var scopes []Scope
	for _, y := range seasons {
		d := dims[y]
		for _, shape := range shapes {
			for _, team := range pick(shape, DimTeam, d.teams) {
				for _, pos := range pick(shape, DimPosition, d.positions) {
					for _, act := range pick(shape, DimActionType, d.actions) {
						sc := Scope{Season: y, SeasonName: d.name, Team: team, Position: pos, ActionType: act}.Normalize()
						if seen[sc] {
							continue
						}
						seen[sc] = true
						scopes = append(scopes, sc)
					}
				}
			}
		}
	}
	return scopes
}

// Sweep ranks every scope from Scopes on up to workers goroutines. Boards
// come back in scope order whatever the completion order.
func Sweep(ctx context.Context, rows []model.PlayerAction, shapes []Shape, opts Options, workers int) ([]Board, error) {
	scopes := Scopes(rows, shapes)

	bySeason := make(map[int][]model.PlayerAction)
	for _, r := range rows {
		bySeason[r.Season] = append(bySeason[r.Season], r)
	}

	if workers <= 0 {
		workers = 1
	}
	boards := make([]Board, len(scopes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, sc := range scopes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			boards[i] = Rank(bySeason[sc.Season], sc, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("leaderboard sweep: %w", err)
	}
	return boards, nil
}
