// Package report renders stored snapshot tables on the console.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-gplus/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// fmtRank prints whole ranks without decimals and ties as x.5.
func fmtRank(r float64) string {
	if math.IsNaN(r) {
		return "—"
	}
	if r == math.Trunc(r) {
		return strconv.Itoa(int(r))
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func fmtNum(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "—"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// PrintScopeHeader prints a one-line description of a leaderboard scope.
func PrintScopeHeader(w io.Writer, competition, season, team, position, action string) {
	fmt.Fprintf(w, "\nCompetition: %s  |  Season: %s  |  Team: %s  |  Position: %s  |  Action: %s\n\n",
		competition, season, team, position, action)
}

// PrintLeaderboard prints leaderboard rows in the order given. If
// focusPlayer is set, that player's rows are marked with ">".
func PrintLeaderboard(w io.Writer, entries []model.LeaderboardEntry, focusPlayer string) {
	table := newTable(w)
	table.Header(" ", "SEASON", "BY", "RANK", "PLAYER", "ID", "TOTAL", "TOTAL_RK", "P96", "P96_RK")

	for _, e := range entries {
		marker := " "
		if focusPlayer != "" && e.PlayerID == focusPlayer {
			marker = ">"
		}
		rank := e.TotalRank
		if e.RankType == model.RankByP96 {
			rank = e.P96Rank
		}
		name := e.PlayerName
		if name == "" {
			name = "?"
		}
		table.Append(
			marker,
			e.SeasonName,
			string(e.RankType),
			fmtRank(rank),
			name,
			e.PlayerID,
			fmtNum(e.Total, 2),
			fmtRank(e.TotalRank),
			fmtNum(e.P96, 3),
			fmtRank(e.P96Rank),
		)
	}
	table.Render()
}

// PrintBreakdown prints team position-group strength. teamNames maps ids
// to display names; unknown ids print as the raw id.
func PrintBreakdown(w io.Writer, rows []model.TeamBreakdown, teamNames map[string]string) {
	table := newTable(w)
	table.Header("SEASON", "POS", "TEAM", "TOTAL_AVG", "RK", "P96_AVG", "RK", "P96_WAVG", "RK")

	for _, b := range rows {
		team := b.TeamID
		if name, ok := teamNames[b.TeamID]; ok && name != "" {
			team = name
		}
		table.Append(
			b.SeasonName,
			b.Position,
			team,
			fmtNum(b.TotalAvg, 2),
			fmtRank(b.TotalAvgRank),
			fmtNum(b.P96Avg, 3),
			fmtRank(b.P96AvgRank),
			fmtNum(b.P96WeightedAvg, 3),
			fmtRank(b.P96WeightedAvgRank),
		)
	}
	table.Render()
}

// PrintRuns prints the run registry, newest first as given.
func PrintRuns(w io.Writer, runs []model.Run) {
	table := newTable(w)
	table.Header("RUN", "COMPETITION", "STARTED", "DURATION", "STATUS", "PLAYER_ROWS", "ZONE_ROWS", "RANK_ROWS", "ERROR")

	for _, r := range runs {
		duration := "—"
		if !r.FinishedAt.IsZero() && r.FinishedAt.After(r.StartedAt) {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		table.Append(
			id,
			r.Competition,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			duration,
			string(r.Status),
			strconv.Itoa(r.PlayerRows),
			strconv.Itoa(r.ZoneRows),
			strconv.Itoa(r.LeaderboardRows),
			r.Error,
		)
	}
	table.Render()
}

// PrintRaw prints a generic result set with a row count footer.
func PrintRaw(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	table := newTable(w)

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}
