package breakdown

import (
	"math"
	"testing"

	"github.com/pable/go-gplus/internal/model"
)

func action(player, team, pos, act string, raw, minutes float64) model.PlayerAction {
	return model.PlayerAction{
		Season: 2021, SeasonName: "2021", PlayerID: player, TeamID: team,
		Position: pos, ActionType: act, GoalsAddedRaw: raw, MinutesPlayed: minutes,
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEntityTotals(t *testing.T) {
	rows := []model.PlayerAction{
		action("p1", "t1", "CM", "Passing", 0.5, 960),
		action("p1", "t1", "CM", "Shooting", 0.25, 960),
		action("p1", "t2", "CM", "Passing", 0.1, 480),
		action("p2", "t1", "FW", "Shooting", 1.0, 1920),
	}
	got := EntityTotals(rows)
	if len(got) != 3 {
		t.Fatalf("want 3 entities, got %d", len(got))
	}
	e := got[0]
	if e.PlayerID != "p1" || e.TeamID != "t1" {
		t.Fatalf("first-seen order: %+v", e)
	}
	if !approx(e.Total, 0.75) || e.Minutes != 960 || !approx(e.P96, 0.075) {
		t.Errorf("p1/t1 aggregate: %+v", e)
	}
	if got[1].TeamID != "t2" || !approx(got[1].P96, 0.02) {
		t.Errorf("p1/t2 is a separate entity: %+v", got[1])
	}
}

func TestEntityTotalsSkipsUndefinedRate(t *testing.T) {
	rows := []model.PlayerAction{action("p1", "t1", "CM", "Passing", 0.5, 0)}
	if got := EntityTotals(rows); len(got) != 0 {
		t.Errorf("zero-minute entity should be skipped, got %+v", got)
	}
}

func TestTeamPositions(t *testing.T) {
	totals := []model.EntityTotal{
		{Season: 2021, SeasonName: "2021", TeamID: "t1", PlayerID: "a", Position: "CM", Minutes: 900, Total: 2, P96: 0.3},
		{Season: 2021, SeasonName: "2021", TeamID: "t1", PlayerID: "b", Position: "CM", Minutes: 100, Total: 0, P96: 0.1},
		{Season: 2021, SeasonName: "2021", TeamID: "t2", PlayerID: "c", Position: "CM", Minutes: 500, Total: 1, P96: 0.2},
		{Season: 2021, SeasonName: "2021", TeamID: "t2", PlayerID: "d", Position: "FW", Minutes: 500, Total: 3, P96: 0.5},
	}
	got := TeamPositions(totals)
	if len(got) != 3 {
		t.Fatalf("want 3 groups, got %d", len(got))
	}

	t1 := got[0]
	if t1.TeamID != "t1" || t1.Position != "CM" {
		t.Fatalf("first group: %+v", t1)
	}
	if !approx(t1.TotalAvg, 1) || !approx(t1.P96Avg, 0.2) {
		t.Errorf("t1 averages: %+v", t1)
	}
	if !approx(t1.P96WeightedAvg, 0.28) {
		t.Errorf("t1 weighted average: want 0.28, got %v", t1.P96WeightedAvg)
	}

	t2 := got[1]
	// Totals 1 vs 1 tie; t1 wins on weighted rate.
	if t1.TotalAvgRank != 1.5 || t2.TotalAvgRank != 1.5 {
		t.Errorf("tied total ranks: %v %v", t1.TotalAvgRank, t2.TotalAvgRank)
	}
	if t1.P96AvgRank != 1.5 || t2.P96AvgRank != 1.5 {
		t.Errorf("tied p96 ranks: %v %v", t1.P96AvgRank, t2.P96AvgRank)
	}
	if t1.P96WeightedAvgRank != 1 || t2.P96WeightedAvgRank != 2 {
		t.Errorf("weighted ranks: %v %v", t1.P96WeightedAvgRank, t2.P96WeightedAvgRank)
	}

	// FW is ranked only against other FW groups.
	if got[2].TotalAvgRank != 1 {
		t.Errorf("lone FW group should rank 1, got %v", got[2].TotalAvgRank)
	}
}

func TestTeamPositionsEmpty(t *testing.T) {
	if got := TeamPositions(nil); len(got) != 0 {
		t.Errorf("want no rows, got %d", len(got))
	}
}
