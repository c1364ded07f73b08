package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/pable/go-gplus/internal/config"
	"github.com/pable/go-gplus/internal/flatten"
	"github.com/pable/go-gplus/internal/leaderboard"
	"github.com/pable/go-gplus/internal/logger"
	"github.com/pable/go-gplus/internal/model"
	"github.com/pable/go-gplus/internal/publish"
	"github.com/pable/go-gplus/internal/snapshot"
	"github.com/pable/go-gplus/internal/storage"
	"github.com/pable/go-gplus/internal/zones"
)

// fakeSource serves a tiny two-team league.
type fakeSource struct {
	zoneCalls  int
	gameStates map[int]bool
	failZones  bool
}

func playerRec(id, team, pos string, minutes float64, passing, shooting float64) flatten.Record {
	return flatten.Record{
		"player_id":        id,
		"team_id":          team,
		"general_position": pos,
		"minutes_played":   minutes,
		"data": []any{
			map[string]any{"action_type": "Passing", "goals_added_raw": passing, "goals_added_above_avg": 0.0, "count_actions": 10.0},
			map[string]any{"action_type": "Shooting", "goals_added_raw": shooting, "goals_added_above_avg": 0.0, "count_actions": 2.0},
		},
	}
}

func (f *fakeSource) PlayerGoalsAdded(_ context.Context, _ string, season int) ([]flatten.Record, error) {
	return []flatten.Record{
		playerRec("p1", "t1", "CM", 2880, 1.2, 0.3),
		playerRec("p2", "t1", "FW", 2000, 0.1, 1.4),
		playerRec("p3", "t2", "CM", 1500, 0.6, 0.1),
		playerRec("p4", "t2", "FW", 100, 2.0, 2.0),
		playerRec("p5", "t2", "FW", 0, 0.0, 0.0),
	}, nil
}

func (f *fakeSource) GoalkeeperGoalsAdded(_ context.Context, _ string, _ int) ([]flatten.Record, error) {
	rec := flatten.Record{
		"player_id":      "g1",
		"team_id":        "t1",
		"minutes_played": 2880.0,
		"data":           []any{map[string]any{"action_type": "Claiming", "goals_added_raw": 0.4}},
	}
	recs := []flatten.Record{rec}
	flatten.Set(recs, flatten.ColPosition, model.GoalkeeperPosition)
	return recs, nil
}

func (f *fakeSource) TeamZoneGoalsAdded(_ context.Context, _ string, _ int, zone int, gs *int) ([]flatten.Record, error) {
	if f.failZones {
		return nil, errors.New("upstream down")
	}
	f.zoneCalls++
	if gs != nil {
		if f.gameStates == nil {
			f.gameStates = map[int]bool{}
		}
		f.gameStates[*gs] = true
	}
	z := float64(zone)
	return []flatten.Record{
		{"team_id": "t1", "minutes": 2880.0, "data": []any{
			map[string]any{"action_type": "Passing", "goals_added_for": z / 100, "goals_added_against": z / 200},
			map[string]any{"action_type": "Fouling", "goals_added_for": 5.0, "goals_added_against": 5.0},
		}},
		{"team_id": "t2", "minutes": 2880.0, "data": []any{
			map[string]any{"action_type": "Passing", "goals_added_for": z / 300, "goals_added_against": z / 150},
		}},
	}, nil
}

func (f *fakeSource) TeamGoalsAdded(_ context.Context, _ string, _ int) ([]flatten.Record, error) {
	return []flatten.Record{{"team_id": "t2"}, {"team_id": "t1"}, {"team_id": "t1"}}, nil
}

func (f *fakeSource) Players(_ context.Context, _ string, ids []string) ([]flatten.Record, error) {
	var out []flatten.Record
	for _, id := range ids {
		if id == "p3" {
			continue
		}
		out = append(out, flatten.Record{"player_id": id, "player_name": "Name " + id})
	}
	return out, nil
}

func (f *fakeSource) Teams(_ context.Context, _ string, ids []string) ([]flatten.Record, error) {
	var out []flatten.Record
	for _, id := range ids {
		out = append(out, flatten.Record{"team_id": id, "team_name": "Team " + id, "team_abbreviation": "T" + id})
	}
	return out, nil
}

type fakePublisher struct {
	runID  string
	tables []string
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, _ string, runID string, tables []publish.Table) error {
	if p.err != nil {
		return p.err
	}
	p.runID = runID
	for _, t := range tables {
		p.tables = append(p.tables, t.Name)
	}
	return nil
}

func openStore(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testOptions(dir string) Options {
	return Options{
		OutDir:   dir,
		Format:   snapshot.CSV,
		Workers:  2,
		Excluded: []string{"Fouling"},
		Leaderboard: leaderboard.Options{
			TopN:            10,
			QualifyFraction: 0.25,
		},
		Now: func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestSeasons(t *testing.T) {
	got := Seasons(2022, 2024)
	if len(got) != 3 || got[0] != 2022 || got[2] != 2024 {
		t.Errorf("Seasons: %v", got)
	}
	if Seasons(2025, 2024) != nil {
		t.Error("empty range should be nil")
	}
}

func TestRunWritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	db := openStore(t)
	pub := &fakePublisher{}
	src := &fakeSource{}
	r := NewRunner(src, testOptions(dir), Deps{Store: db, Publisher: pub})

	res, err := r.Run(context.Background(), config.Competition{Name: "mls", StartYear: 2024}, 2024)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var names []string
	for _, f := range res.Files {
		names = append(names, filepath.Base(f))
	}
	sort.Strings(names)
	want := []string{
		"percentile-g+-zones.csv", "player-g+-pct.csv", "player-g+-ranks.csv", "player_lookup.csv",
		"season-g+-pct.csv", "team-g+-zones.csv", "team_lookup.csv", "team_position_breakdown.csv",
	}
	if len(names) != len(want) {
		t.Fatalf("files: want %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("file %d: want %s, got %s", i, want[i], names[i])
		}
	}
	for _, f := range res.Files {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}

	// p5 has no minutes: 2 actions dropped; g1 has one action.
	if res.PlayerRows != 9 {
		t.Errorf("player rows: want 9, got %d", res.PlayerRows)
	}
	if src.zoneCalls != 30 {
		t.Errorf("zone calls: want 30, got %d", src.zoneCalls)
	}
	if res.Missing == 0 {
		t.Error("p3 has no name upstream and should be counted as missing")
	}

	entries, err := snapshot.ReadLeaderboard(filepath.Join(dir, "mls"), snapshot.CSV)
	if err != nil {
		t.Fatalf("ReadLeaderboard: %v", err)
	}
	for _, e := range entries {
		if e.PlayerID == "p4" || e.PlayerID == "p5" {
			t.Errorf("%s is under the minutes threshold but was ranked", e.PlayerID)
		}
		if e.PlayerID == "p1" && e.PlayerName != "Name p1" {
			t.Errorf("p1 name not joined: %+v", e)
		}
	}

	lookupCSV, err := os.ReadFile(filepath.Join(dir, "mls", "player_lookup.csv"))
	if err != nil {
		t.Fatalf("read player lookup: %v", err)
	}
	// p4 never qualifies for a board but is still a player of the season.
	for _, id := range []string{"p1", "p2", "p4", "g1"} {
		if !strings.Contains(string(lookupCSV), id+",Name "+id) {
			t.Errorf("player lookup is missing %s:\n%s", id, lookupCSV)
		}
	}

	latest, err := db.LatestRun("mls")
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest.ID != res.RunID || latest.PlayerRows != 9 {
		t.Errorf("stored run: %+v", latest)
	}
	stored, _ := db.Leaderboard(storage.LeaderboardQuery{Competition: "mls"})
	if len(stored) == 0 {
		t.Error("leaderboard was not stored")
	}
	if pub.runID != res.RunID || len(pub.tables) != 4 {
		t.Errorf("publisher: %+v", pub)
	}
}

func TestRunSplitsGameStates(t *testing.T) {
	src := &fakeSource{}
	opts := testOptions(t.TempDir())
	opts.ZoneGameStates = true
	r := NewRunner(src, opts, Deps{})

	if _, err := r.Run(context.Background(), config.Competition{Name: "nwsl", StartYear: 2024}, 2024); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if src.zoneCalls != 150 {
		t.Errorf("zone calls: want 30 zones x 5 states, got %d", src.zoneCalls)
	}
	for g := -2; g <= 2; g++ {
		if !src.gameStates[g] {
			t.Errorf("game state %d never requested", g)
		}
	}
}

func TestRunFailureIsRecorded(t *testing.T) {
	dir := t.TempDir()
	db := openStore(t)
	pub := &fakePublisher{}
	r := NewRunner(&fakeSource{failZones: true}, testOptions(dir), Deps{Store: db, Publisher: pub})

	_, err := r.Run(context.Background(), config.Competition{Name: "uslc", StartYear: 2024}, 2024)
	if err == nil {
		t.Fatal("expected error")
	}
	runs, _ := db.ListRuns("uslc", 0)
	if len(runs) != 1 || runs[0].Status != model.RunFailed || runs[0].Error == "" {
		t.Errorf("failed run not recorded: %+v", runs)
	}
	if pub.runID != "" {
		t.Error("nothing should be published for a failed run")
	}
	if _, err := os.Stat(filepath.Join(dir, "uslc", "percentile-g+-zones.csv")); !os.IsNotExist(err) {
		t.Error("zone percentiles written for a failed zone stage")
	}
}

func TestPublishFailureKeepsStoredSnapshot(t *testing.T) {
	db := openStore(t)
	pub := &fakePublisher{}
	comp := config.Competition{Name: "mls", StartYear: 2024}

	first, err := NewRunner(&fakeSource{}, testOptions(t.TempDir()), Deps{Store: db, Publisher: pub}).
		Run(context.Background(), comp, 2024)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	pub.err = errors.New("redis down")
	second, err := NewRunner(&fakeSource{}, testOptions(t.TempDir()), Deps{Store: db, Publisher: pub}).
		Run(context.Background(), comp, 2024)
	if err == nil {
		t.Fatal("expected publish error")
	}

	latest, err := db.LatestRun("mls")
	if err != nil || latest.ID != first.RunID {
		t.Fatalf("latest run: want %s, got %+v (%v)", first.RunID, latest, err)
	}
	for _, table := range []string{"leaderboard", "team_breakdown"} {
		_, rows, err := db.QueryRaw("SELECT DISTINCT run_id FROM " + table)
		if err != nil {
			t.Fatalf("query %s: %v", table, err)
		}
		if len(rows) != 1 || rows[0][0] != first.RunID {
			t.Errorf("%s holds rows of %v, want only %s (failed run %s)", table, rows, first.RunID, second.RunID)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.New()
	cfg.Format = "parquet"
	cfg.ZoneMirror = "league"
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}
	if opts.Format != snapshot.Parquet || opts.Mirror != zones.LeagueBaseline || opts.Leaderboard.QualifyFraction != 0.25 {
		t.Errorf("options: %+v", opts)
	}

	cfg.QualifyFraction = 0
	opts, _ = OptionsFromConfig(cfg)
	if opts.Leaderboard.QualifyFraction != leaderboard.NoQualification {
		t.Errorf("qualify_fraction 0 should disable qualification, got %v", opts.Leaderboard.QualifyFraction)
	}

	cfg.Format = "xlsx"
	if _, err := OptionsFromConfig(cfg); !errors.Is(err, snapshot.ErrUnknownFormat) {
		t.Errorf("want ErrUnknownFormat, got %v", err)
	}
}

func TestCombineLookupsAndBrands(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{}
	r := NewRunner(src, testOptions(dir), Deps{})
	comps := []config.Competition{{Name: "mls", StartYear: 2024}, {Name: "usls", StartYear: 2024}}
	if _, err := r.Run(context.Background(), comps[0], 2024); err != nil {
		t.Fatalf("Run: %v", err)
	}

	l, err := CombineLookups(context.Background(), nopLog(), dir, snapshot.CSV, comps)
	if err != nil {
		t.Fatalf("CombineLookups: %v", err)
	}
	if len(l.Players) == 0 {
		t.Fatal("no player seasons")
	}
	for _, p := range l.Players {
		if p.TeamID == model.All || p.Competition != "mls" {
			t.Errorf("unexpected player season: %+v", p)
		}
	}
	for _, ts := range l.Teams {
		if ts.TeamID == "" {
			t.Errorf("empty team in lookup: %+v", ts)
		}
	}
	files, err := WriteLookups(dir, snapshot.CSV, l)
	if err != nil || len(files) != 2 {
		t.Fatalf("WriteLookups: %v %v", files, err)
	}

	brands, err := Brands(context.Background(), src, nopLog(), comps, 2024)
	if err != nil {
		t.Fatalf("Brands: %v", err)
	}
	if len(brands) != 4 || brands[0].ASAID != "t1" || brands[0].Name != "Team t1" || brands[0].Competition != "mls" {
		t.Errorf("brands: %+v", brands)
	}
	path, err := WriteBrands(dir, brands)
	if err != nil {
		t.Fatalf("WriteBrands: %v", err)
	}
	if filepath.Base(path) != BrandsFile {
		t.Errorf("brands path: %s", path)
	}
}

func nopLog() logger.Logger { return logger.Nop() }
