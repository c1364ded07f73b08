package percentile

import (
	"math"
	"testing"

	"github.com/pable/go-gplus/internal/model"
)

func TestGrid(t *testing.T) {
	g := Grid()
	if len(g) != GridSize {
		t.Fatalf("grid size: want %d, got %d", GridSize, len(g))
	}
	if math.Abs(g[0]-0.01) > 1e-12 || g[GridSize-1] != 1.0 {
		t.Errorf("grid bounds: got %v .. %v", g[0], g[GridSize-1])
	}
	if math.Abs(g[49]-0.50) > 1e-12 {
		t.Errorf("grid[49]: want 0.50, got %v", g[49])
	}
	for i := 1; i < len(g); i++ {
		if g[i] <= g[i-1] {
			t.Fatalf("grid not increasing at %d", i)
		}
	}
}

func action(player, pos, actionType string, season int, raw, minutes float64) model.PlayerAction {
	return model.PlayerAction{
		Season: season, SeasonName: "2022", PlayerID: player, TeamID: "t1",
		Position: pos, ActionType: actionType, GoalsAddedRaw: raw, MinutesPlayed: minutes,
	}
}

// Two rows for one player: totals {2, 1} over {96, 48} minutes both
// normalize to 2.0 per 96.
func TestActionTableRoundTrip(t *testing.T) {
	rows := []model.PlayerAction{
		action("p1", "CM", "Passing", 2022, 2.0, 96),
		action("p1", "CM", "Passing", 2022, 1.0, 48),
	}
	table := ActionTable(rows)
	if len(table) != GridSize {
		t.Fatalf("want %d rows for one group, got %d", GridSize, len(table))
	}
	mid := table[49]
	if math.Abs(mid.Pct-0.5) > 1e-12 {
		t.Fatalf("row 49 should be the 50th percentile, got %v", mid.Pct)
	}
	if math.Abs(mid.PSzn-1.5) > 1e-12 {
		t.Errorf("pSzn median: want 1.5, got %v", mid.PSzn)
	}
	if mid.P96 != 2.0 {
		t.Errorf("p96 median: want 2.0, got %v", mid.P96)
	}
	if mid.Position != "CM" || mid.ActionType != "Passing" || mid.Season != 2022 {
		t.Errorf("group key not carried: %+v", mid)
	}
}

func TestActionTableGroupsAndSkipsEmpty(t *testing.T) {
	rows := []model.PlayerAction{
		action("p1", "CM", "Passing", 2021, 1, 900),
		action("p2", "CB", "Passing", 2022, 2, 900),
		action("p3", "CB", "Shooting", 2022, 3, 900),
		action("p4", "CB", "Shooting", 2022, 5, 0),
	}
	table := ActionTable(rows)
	// Passing/CM/2021, Passing/CB/2022, Shooting/CB/2022; every other
	// combination of the observed dimensions is empty.
	if len(table) != 3*GridSize {
		t.Fatalf("want %d rows, got %d", 3*GridSize, len(table))
	}
	groups := map[string]bool{}
	for _, r := range table {
		groups[r.ActionType+"/"+r.Position] = true
		if r.ActionType == "Shooting" && r.PSzn != 3 {
			t.Errorf("zero-minute row leaked into the Shooting curve: %+v", r)
		}
	}
	for _, g := range []string{"Passing/CM", "Passing/CB", "Shooting/CB"} {
		if !groups[g] {
			t.Errorf("missing group %s", g)
		}
	}
}

func TestActionTableMonotone(t *testing.T) {
	var rows []model.PlayerAction
	for i := 0; i < 37; i++ {
		raw := math.Sin(float64(i)) * 3
		rows = append(rows, action("p", "FW", "Shooting", 2020, raw, float64(90+i*37)))
	}
	table := ActionTable(rows)
	for i := 1; i < len(table); i++ {
		if table[i].P96 < table[i-1].P96 || table[i].PSzn < table[i-1].PSzn {
			t.Fatalf("curve decreases at point %d: %+v then %+v", i, table[i-1], table[i])
		}
	}
}

func TestPlayerTable(t *testing.T) {
	totals := []model.EntityTotal{
		{Season: 2022, PlayerID: "a", Position: "W", Minutes: 960, Total: 1},
		{Season: 2022, PlayerID: "b", Position: "W", Minutes: 960, Total: 3},
		{Season: 2022, PlayerID: "c", Position: "GK", Minutes: 0, Total: 9},
	}
	table := PlayerTable(totals)
	if len(table) != GridSize {
		t.Fatalf("want one group, got %d rows", len(table))
	}
	last := table[GridSize-1]
	if last.Pct != 1 || last.PSzn != 3 || math.Abs(last.P96-0.3) > 1e-12 {
		t.Errorf("top point: %+v", last)
	}
	if first := table[0]; math.Abs(first.PSzn-1.02) > 1e-12 {
		t.Errorf("first point pSzn: want 1.02, got %v", first.PSzn)
	}
}

func TestZoneTable(t *testing.T) {
	rec := func(team string, zone, gs int, forTotal float64) model.ZoneRecord {
		return model.ZoneRecord{
			ZoneKey:  model.ZoneKey{Season: 2022, TeamID: team, Zone: zone, GameState: gs},
			ForTotal: forTotal, ForP96: forTotal / 10,
		}
	}
	records := []model.ZoneRecord{
		rec("a", 1, 0, 1), rec("b", 1, 0, 2),
		rec("a", 1, 1, 4),
		rec("a", 30, model.NoGameState, 8),
	}
	table := ZoneTable(records)
	if len(table) != 3*GridSize {
		t.Fatalf("want 3 groups, got %d rows", len(table))
	}
	seen := map[string]bool{}
	for _, r := range table {
		switch {
		case r.Zone == 30:
			if r.GameState != nil {
				t.Errorf("zone 30 row should have no game state: %+v", r)
			}
			seen["30"] = true
		case r.GameState != nil && *r.GameState == 0:
			seen["1/0"] = true
			if r.Pct == 1 && r.ForPSzn != 2 {
				t.Errorf("zone 1 state 0 max: want 2, got %v", r.ForPSzn)
			}
		case r.GameState != nil && *r.GameState == 1:
			seen["1/1"] = true
		}
	}
	if len(seen) != 3 {
		t.Errorf("groups seen: %v", seen)
	}
}

func TestEmptyInputs(t *testing.T) {
	if len(ActionTable(nil)) != 0 || len(PlayerTable(nil)) != 0 || len(ZoneTable(nil)) != 0 {
		t.Error("empty input should produce no rows")
	}
}
