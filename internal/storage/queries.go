package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pable/go-gplus/internal/model"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// StartRun registers a new running run for competition and returns its id.
func (db *DB) StartRun(competition string, at time.Time) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(`
		INSERT INTO runs(id, competition, started_at, status)
		VALUES (?, ?, ?, ?)`,
		id, competition, at.UTC().Format(timeLayout), string(model.RunRunning),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun records the outcome and row counts of a run.
func (db *DB) FinishRun(run model.Run) error {
	res, err := db.conn.Exec(`
		UPDATE runs
		SET finished_at = ?, status = ?, player_rows = ?, zone_rows = ?, leaderboard_rows = ?, error = ?
		WHERE id = ?`,
		run.FinishedAt.UTC().Format(timeLayout), string(run.Status),
		run.PlayerRows, run.ZoneRows, run.LeaderboardRows, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", run.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update run %s: not found", run.ID)
	}
	return nil
}

const runColumns = `id, competition, started_at, finished_at, status, player_rows, zone_rows, leaderboard_rows, error`

func scanRun(s interface{ Scan(...any) error }) (model.Run, error) {
	var (
		r                 model.Run
		started, finished string
		status            string
	)
	if err := s.Scan(&r.ID, &r.Competition, &started, &finished, &status,
		&r.PlayerRows, &r.ZoneRows, &r.LeaderboardRows, &r.Error); err != nil {
		return r, err
	}
	r.Status = model.RunStatus(status)
	r.StartedAt, _ = time.Parse(timeLayout, started)
	if finished != "" {
		r.FinishedAt, _ = time.Parse(timeLayout, finished)
	}
	return r, nil
}

// ListRuns returns the most recent runs first, optionally for one
// competition. limit <= 0 returns every run.
func (db *DB) ListRuns(competition string, limit int) ([]model.Run, error) {
	q := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if competition != "" {
		q += ` WHERE competition = ?`
		args = append(args, competition)
	}
	q += ` ORDER BY started_at DESC, id`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRun returns the most recent successful run of competition, or
// ErrNoRun.
func (db *DB) LatestRun(competition string) (*model.Run, error) {
	row := db.conn.QueryRow(`SELECT `+runColumns+` FROM runs
		WHERE competition = ? AND status = ?
		ORDER BY finished_at DESC LIMIT 1`, competition, string(model.RunSuccess))
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", competition, ErrNoRun)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Snapshot is the set of derived tables kept per competition.
type Snapshot struct {
	Leaderboard []model.LeaderboardEntry
	Breakdown   []model.TeamBreakdown
	Players     []model.Player
	Teams       []model.Team
}

// ReplaceSnapshot swaps the stored derived tables of competition for those
// of run in one transaction.
func (db *DB) ReplaceSnapshot(competition, runID string, s Snapshot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"leaderboard", "team_breakdown", "player_lookup", "team_lookup"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE competition = ?`, competition); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO leaderboard(
			competition, run_id, season_name, player_id, total, total_rank, p96, p96_rank,
			team_id, position, action_type, rank_type, player_name
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range s.Leaderboard {
		if _, err := stmt.Exec(competition, runID, e.SeasonName, e.PlayerID, e.Total, e.TotalRank,
			e.P96, e.P96Rank, e.TeamID, e.Position, e.ActionType, string(e.RankType), e.PlayerName); err != nil {
			return fmt.Errorf("insert leaderboard for %s: %w", e.PlayerID, err)
		}
	}

	bstmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO team_breakdown(
			competition, run_id, season_name, team_id, general_position,
			total_avg, p96_avg, p96_weighted_avg, total_avg_rank, p96_avg_rank, p96_weighted_avg_rank
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer bstmt.Close()
	for _, b := range s.Breakdown {
		if _, err := bstmt.Exec(competition, runID, b.SeasonName, b.TeamID, b.Position,
			b.TotalAvg, b.P96Avg, b.P96WeightedAvg, b.TotalAvgRank, b.P96AvgRank, b.P96WeightedAvgRank); err != nil {
			return fmt.Errorf("insert team_breakdown for %s: %w", b.TeamID, err)
		}
	}

	for _, p := range s.Players {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO player_lookup(competition, player_id, player_name) VALUES (?,?,?)`,
			competition, p.PlayerID, p.PlayerName); err != nil {
			return fmt.Errorf("insert player_lookup: %w", err)
		}
	}
	for _, t := range s.Teams {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO team_lookup(competition, team_id, team_name, team_abbreviation) VALUES (?,?,?,?)`,
			competition, t.TeamID, t.TeamName, t.Abbreviation); err != nil {
			return fmt.Errorf("insert team_lookup: %w", err)
		}
	}
	return tx.Commit()
}

// LeaderboardQuery selects stored leaderboard rows. Empty fields match
// the league-wide value All, except SeasonName and RankType which match
// anything when empty.
type LeaderboardQuery struct {
	Competition string
	SeasonName  string
	Team        string
	Position    string
	ActionType  string
	RankType    model.RankType
}

func orAll(v string) string {
	if v == "" {
		return model.All
	}
	return v
}

// Leaderboard returns the stored rows matching q, ordered by season, rank
// type and rank.
func (db *DB) Leaderboard(q LeaderboardQuery) ([]model.LeaderboardEntry, error) {
	where := []string{"competition = ?", "team_id = ?", "position = ?", "action_type = ?"}
	args := []any{q.Competition, orAll(q.Team), orAll(q.Position), orAll(q.ActionType)}
	if q.SeasonName != "" {
		where = append(where, "season_name = ?")
		args = append(args, q.SeasonName)
	}
	if q.RankType != "" {
		where = append(where, "rank_type = ?")
		args = append(args, string(q.RankType))
	}
	rows, err := db.conn.Query(`
		SELECT season_name, player_id, total, total_rank, p96, p96_rank,
		       team_id, position, action_type, rank_type, player_name
		FROM leaderboard
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY season_name, rank_type DESC,
		         CASE rank_type WHEN 'total' THEN total_rank ELSE p96_rank END, player_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		var rt string
		if err := rows.Scan(&e.SeasonName, &e.PlayerID, &e.Total, &e.TotalRank, &e.P96, &e.P96Rank,
			&e.TeamID, &e.Position, &e.ActionType, &rt, &e.PlayerName); err != nil {
			return nil, err
		}
		e.RankType = model.RankType(rt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Breakdown returns the stored team breakdown of competition, optionally
// narrowed to one season and position, best total rank first.
func (db *DB) Breakdown(competition, seasonName, position string) ([]model.TeamBreakdown, error) {
	where := []string{"competition = ?"}
	args := []any{competition}
	if seasonName != "" {
		where = append(where, "season_name = ?")
		args = append(args, seasonName)
	}
	if position != "" {
		where = append(where, "general_position = ?")
		args = append(args, position)
	}
	rows, err := db.conn.Query(`
		SELECT season_name, team_id, general_position, total_avg, p96_avg, p96_weighted_avg,
		       total_avg_rank, p96_avg_rank, p96_weighted_avg_rank
		FROM team_breakdown
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY season_name, general_position, total_avg_rank, team_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TeamBreakdown
	for rows.Next() {
		var b model.TeamBreakdown
		var v [6]sql.NullFloat64
		if err := rows.Scan(&b.SeasonName, &b.TeamID, &b.Position, &v[0], &v[1], &v[2],
			&v[3], &v[4], &v[5]); err != nil {
			return nil, err
		}
		// SQLite stores NaN as NULL.
		b.TotalAvg, b.P96Avg, b.P96WeightedAvg = orNaN(v[0]), orNaN(v[1]), orNaN(v[2])
		b.TotalAvgRank, b.P96AvgRank, b.P96WeightedAvgRank = orNaN(v[3]), orNaN(v[4]), orNaN(v[5])
		out = append(out, b)
	}
	return out, rows.Err()
}

// TeamNames returns the stored team names of competition keyed by id.
func (db *DB) TeamNames(competition string) (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT team_id, team_name FROM team_lookup WHERE competition = ?`, competition)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
