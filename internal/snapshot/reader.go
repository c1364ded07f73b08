package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/pable/go-gplus/internal/model"
)

// ReadLeaderboard loads a player-g+-ranks file written by Write.
func ReadLeaderboard(dir string, format Format) ([]model.LeaderboardEntry, error) {
	path := Path(dir, format, LeaderboardTable)
	switch format {
	case CSV:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		rows, err := readLeaderboardCSV(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return rows, nil
	case JSON:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var rows []model.LeaderboardEntry
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return rows, nil
	case Parquet:
		rows, err := parquet.ReadFile[model.LeaderboardEntry](path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func readLeaderboardCSV(r io.Reader) ([]model.LeaderboardEntry, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	for _, c := range LeaderboardColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	var out []model.LeaderboardEntry
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		get := func(col string) string { return rec[idx[col]] }
		num := func(col string) float64 {
			v, _ := strconv.ParseFloat(get(col), 64)
			return v
		}
		out = append(out, model.LeaderboardEntry{
			SeasonName: get("season_name"),
			PlayerID:   get("player_id"),
			Total:      num("total"),
			TotalRank:  num("total_rank"),
			P96:        num("p96"),
			P96Rank:    num("p96_rank"),
			TeamID:     get("team_id"),
			Position:   get("position"),
			ActionType: get("action_type"),
			RankType:   model.RankType(get("rank_type")),
			PlayerName: get("player_name"),
		})
	}
	return out, nil
}
