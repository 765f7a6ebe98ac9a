// Package repository stores the results of pipeline runs for the read API.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/titlerace/internal/domain/model"
	"github.com/okian/titlerace/internal/domain/types"
)

// Run is everything a successful pipeline run publishes.
type Run struct {
	Stats      types.RunStats
	Seasons    []types.SeasonPredictions
	Historical []types.HistoricalRecord
	Teams      []model.Team
	Importance []types.FeatureImportance
}

// Validate checks that r can be published.
func (r Run) Validate() error {
	if r.Stats.RunID == "" {
		return fmt.Errorf("%w: missing run id", ErrInvalidRun)
	}
	if len(r.Seasons) == 0 {
		return fmt.Errorf("%w: run %s has no seasons", ErrInvalidRun, r.Stats.RunID)
	}
	seen := make(map[int]bool, len(r.Seasons))
	for _, s := range r.Seasons {
		if seen[s.Season] {
			return fmt.Errorf("%w: run %s: season %d listed twice", ErrInvalidRun, r.Stats.RunID, s.Season)
		}
		seen[s.Season] = true
	}
	return nil
}

// Store holds the latest published run. SaveRun replaces it atomically: a
// reader sees either the previous run or the new one, never a mix. Reads
// return ErrNotFound until a run has been saved.
type Store interface {
	SaveRun(ctx context.Context, run Run) error

	// Predictions returns the ranking of one season (year, e.g. 2010).
	Predictions(ctx context.Context, season int) (types.SeasonPredictions, error)
	// Latest returns the ranking of the most recent season.
	Latest(ctx context.Context) (types.SeasonPredictions, error)
	// Seasons returns the stored season years, most recent first.
	Seasons(ctx context.Context) ([]int, error)

	Historical(ctx context.Context) ([]types.HistoricalRecord, error)
	// Champion returns the evaluation of one season; ErrNotFound when the
	// season has no known champion.
	Champion(ctx context.Context, season int) (types.HistoricalRecord, error)

	Teams(ctx context.Context) ([]model.Team, error)
	Importance(ctx context.Context) ([]types.FeatureImportance, error)
	Stats(ctx context.Context) (types.RunStats, error)
}
