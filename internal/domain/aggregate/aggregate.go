// Package aggregate groups game records into team-season profiles.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/okian/titlerace/internal/domain/model"
)

// Report describes the imputation done by Aggregate.
type Report struct {
	// EmptyStats counts, per box-score field, the groups where the field was
	// null in every game; those means fall back to 0.
	EmptyStats map[model.StatField]int

	// Imputed counts, per hustle field, the groups filled from the population mean.
	Imputed map[model.HustleField]int

	// Degenerate lists hustle fields no group had; they fall back to 0.
	Degenerate []model.HustleField
}

// Aggregate groups records by (season, team) and computes per-game means.
// records must already be in chronological order; each group keeps that
// order. Groups are returned sorted by season, then team.
func Aggregate(records []model.GameRecord) ([]model.TeamSeasonAggregate, Report, error) {
	index := make(map[model.TeamSeasonKey]int)
	groups := make([]model.TeamSeasonAggregate, 0)

	for i := range records {
		rec := records[i]
		if i > 0 && rec.GameDate.Before(records[i-1].GameDate) {
			return nil, Report{}, fmt.Errorf("%w: records out of order at game %s", model.ErrData, rec.GameID)
		}
		k := rec.Key()
		idx, ok := index[k]
		if !ok {
			idx = len(groups)
			index[k] = idx
			groups = append(groups, model.TeamSeasonAggregate{Key: k})
		}
		groups[idx].Records = append(groups[idx].Records, rec)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Key.Less(groups[j].Key) })

	// valid[g][f] is false when group g has no value for hustle field f.
	valid := make([][model.NumHustleFields]bool, len(groups))
	for g := range groups {
		valid[g] = summarize(&groups[g])
	}

	report := Report{
		EmptyStats: make(map[model.StatField]int),
		Imputed:    make(map[model.HustleField]int),
	}
	for g := range groups {
		for _, f := range groups[g].Empty {
			report.EmptyStats[f]++
		}
	}
	for f := model.HustleField(0); f < model.NumHustleFields; f++ {
		var sum float64
		var n int
		for g := range groups {
			if valid[g][f] {
				sum += groups[g].Hustle[f]
				n++
			}
		}
		fill := 0.0
		if n > 0 {
			fill = sum / float64(n)
		} else if len(groups) > 0 {
			report.Degenerate = append(report.Degenerate, f)
		}
		for g := range groups {
			if valid[g][f] {
				continue
			}
			groups[g].Hustle[f] = fill
			groups[g].Imputed = append(groups[g].Imputed, f)
			report.Imputed[f]++
		}
	}
	return groups, report, nil
}

// summarize fills counts and means for one group and reports which hustle
// fields had at least one non-null game. Box-score means skip null games
// the same way.
func summarize(agg *model.TeamSeasonAggregate) [model.NumHustleFields]bool {
	var (
		sum    [model.NumStatFields]float64
		count  [model.NumStatFields]int
		hsum   [model.NumHustleFields]float64
		hcount [model.NumHustleFields]int
		valid  [model.NumHustleFields]bool
	)
	for _, r := range agg.Records {
		if r.Won {
			agg.Wins++
		}
		for f := model.StatField(0); f < model.NumStatFields; f++ {
			if r.Has(f) {
				sum[f] += r.Stat(f)
				count[f]++
			}
		}
		for f, v := range r.Hustle {
			if v.Valid {
				hsum[f] += v.Float64
				hcount[f]++
			}
		}
	}
	agg.Games = len(agg.Records)
	for f := model.StatField(0); f < model.NumStatFields; f++ {
		switch {
		case count[f] > 0:
			agg.Mean.SetStat(f, sum[f]/float64(count[f]))
		case agg.Games > 0:
			agg.Empty = append(agg.Empty, f)
		}
	}
	for f := range hsum {
		if hcount[f] > 0 {
			agg.Hustle[f] = hsum[f] / float64(hcount[f])
			valid[f] = true
		}
	}
	return valid
}
