package lookup

import (
	"testing"

	"github.com/pable/go-gplus/internal/flatten"
	"github.com/pable/go-gplus/internal/model"
)

func TestPlayersDedupesAndSorts(t *testing.T) {
	recs := []flatten.Record{
		{"player_id": "b", "player_name": "Bea"},
		{"player_id": "a", "player_name": "Ann"},
		{"player_id": "b", "player_name": "Other"},
		{"player_name": "No Id"},
	}
	got := Players(recs)
	want := []model.Player{{PlayerID: "a", PlayerName: "Ann"}, {PlayerID: "b", PlayerName: "Bea"}}
	if len(got) != len(want) {
		t.Fatalf("want %d players, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("player %d: want %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestTeams(t *testing.T) {
	recs := []flatten.Record{
		{"team_id": "t2", "team_name": "Rovers", "team_abbreviation": "ROV"},
		{"team_id": "t1", "team_name": "United", "team_abbreviation": "UTD"},
	}
	got := Teams(recs)
	if len(got) != 2 || got[0].TeamID != "t1" || got[1].Abbreviation != "ROV" {
		t.Errorf("teams: %+v", got)
	}
	brands := Brands("nwsl", got)
	if brands[0].ASAID != "t1" || brands[0].Name != "United" || brands[0].Competition != "nwsl" {
		t.Errorf("brand: %+v", brands[0])
	}
}

func TestJoinPlayersLeftJoin(t *testing.T) {
	entries := []model.LeaderboardEntry{
		{PlayerID: "a", RankType: model.RankByTotal},
		{PlayerID: "zz", RankType: model.RankByTotal},
		{PlayerID: "a", RankType: model.RankByP96},
	}
	joined, missing := JoinPlayers(entries, []model.Player{{PlayerID: "a", PlayerName: "Ann"}})
	if len(joined) != 3 {
		t.Fatalf("left join must keep every row, got %d", len(joined))
	}
	if missing != 1 {
		t.Errorf("missing: want 1, got %d", missing)
	}
	if joined[0].PlayerName != "Ann" || joined[2].PlayerName != "Ann" {
		t.Errorf("matched names: %q %q", joined[0].PlayerName, joined[2].PlayerName)
	}
	if joined[1].PlayerName != "" {
		t.Errorf("unmatched row should have empty name, got %q", joined[1].PlayerName)
	}
	if entries[0].PlayerName != "" {
		t.Error("JoinPlayers modified its input")
	}
}

func TestIDs(t *testing.T) {
	rows := []model.PlayerAction{{PlayerID: "c"}, {PlayerID: "a"}, {PlayerID: "c", ActionType: "Passing"}, {}}
	ids := PlayerIDs(rows)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Errorf("player ids: %v", ids)
	}
	teams := TeamIDs([]model.TeamBreakdown{{TeamID: "t2"}, {TeamID: model.All}, {TeamID: "t1"}, {TeamID: "t2"}})
	if len(teams) != 2 || teams[0] != "t1" {
		t.Errorf("team ids: %v", teams)
	}
}

func TestPlayerAndTeamSeasons(t *testing.T) {
	entries := []model.LeaderboardEntry{
		{SeasonName: "2024", TeamID: model.All, PlayerID: "a", PlayerName: "Ann"},
		{SeasonName: "2024", TeamID: "t1", PlayerID: "a", PlayerName: "Ann"},
		{SeasonName: "2024", TeamID: "t1", PlayerID: "a", PlayerName: "Ann", RankType: model.RankByP96},
		{SeasonName: "2024", TeamID: "t1", PlayerID: "b", PlayerName: "Bea"},
		{SeasonName: "2024", TeamID: "t2", PlayerID: "x"},
	}
	ps := PlayerSeasons("mls", entries)
	if len(ps) != 3 {
		t.Fatalf("want 3 player seasons, got %d: %+v", len(ps), ps)
	}
	if ps[0].Competition != "mls" || ps[0].TeamID != "t1" {
		t.Errorf("first player season: %+v", ps[0])
	}

	ts := TeamSeasons(ps)
	if len(ts) != 1 || ts[0] != (model.TeamSeason{Competition: "mls", SeasonName: "2024", TeamID: "t1"}) {
		t.Errorf("team seasons: %+v", ts)
	}
}
