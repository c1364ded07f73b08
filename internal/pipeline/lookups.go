package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/pable/go-gplus/internal/config"
	"github.com/pable/go-gplus/internal/flatten"
	"github.com/pable/go-gplus/internal/logger"
	"github.com/pable/go-gplus/internal/lookup"
	"github.com/pable/go-gplus/internal/model"
	"github.com/pable/go-gplus/internal/snapshot"
)

// BrandsFile is the downstream brands document in the output directory.
const BrandsFile = "brands.json"

// Lookups is the cross-competition player and team lookup.
type Lookups struct {
	Players []model.PlayerSeason
	Teams   []model.TeamSeason
}

// CombineLookups reads the ranks file of every competition under outDir and
// derives the combined lookups. Competitions without a ranks file are
// skipped with a warning.
func CombineLookups(ctx context.Context, log logger.Logger, outDir string, format snapshot.Format, comps []config.Competition) (*Lookups, error) {
	var acc model.Accumulator[model.PlayerSeason]
	for _, comp := range comps {
		entries, err := snapshot.ReadLeaderboard(filepath.Join(outDir, comp.Name), format)
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn(ctx, "no ranks file, skipping", logger.String("competition", comp.Name))
			continue
		}
		if err != nil {
			return nil, err
		}
		acc.Add(lookup.PlayerSeasons(comp.Name, entries))
	}
	players := acc.Rows()
	return &Lookups{Players: players, Teams: lookup.TeamSeasons(players)}, nil
}

// WriteLookups writes the combined lookups into outDir.
func WriteLookups(outDir string, format snapshot.Format, l *Lookups) ([]string, error) {
	p, err := snapshot.Write(outDir, format, snapshot.PlayerSeasonTable, l.Players)
	if err != nil {
		return nil, err
	}
	t, err := snapshot.Write(outDir, format, snapshot.TeamSeasonTable, l.Teams)
	if err != nil {
		return nil, err
	}
	return []string{p, t}, nil
}

// Brands lists the teams active in season for every competition, with
// their display names.
func Brands(ctx context.Context, src Source, log logger.Logger, comps []config.Competition, season int) ([]model.Brand, error) {
	var acc model.Accumulator[model.Brand]
	for _, comp := range comps {
		if comp.StartYear > season {
			continue
		}
		recs, err := src.TeamGoalsAdded(ctx, comp.Name, season)
		if err != nil {
			return nil, err
		}
		ids := teamIDs(recs)
		if len(ids) == 0 {
			log.Warn(ctx, "no teams for season", logger.String("competition", comp.Name), logger.Int("season", season))
			continue
		}
		teamRecs, err := src.Teams(ctx, comp.Name, ids)
		if err != nil {
			return nil, err
		}
		brands := lookup.Brands(comp.Name, lookup.Teams(teamRecs))
		log.Info(ctx, "brands loaded", logger.String("competition", comp.Name), logger.Int("teams", len(brands)))
		acc.Add(brands)
	}
	return acc.Rows(), nil
}

func teamIDs(recs []flatten.Record) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range recs {
		id := r.String(flatten.ColTeamID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WriteBrands writes brands as BrandsFile in outDir.
func WriteBrands(outDir string, brands []model.Brand) (string, error) {
	if brands == nil {
		brands = []model.Brand{}
	}
	path := filepath.Join(outDir, BrandsFile)
	return path, snapshot.WriteJSON(path, brands)
}
