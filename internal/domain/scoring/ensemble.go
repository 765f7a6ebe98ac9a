package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/titlerace/internal/domain/features"
	"github.com/okian/titlerace/internal/domain/model"
	"github.com/okian/titlerace/internal/domain/scaler"
	"github.com/okian/titlerace/internal/domain/types"
	"github.com/okian/titlerace/pkg/metrics"
)

// Size is the number of scorers in an Ensemble.
const Size = 3

// Component is one scorer's contribution to an EnsembleScore.
type Component struct {
	Scorer      string
	Probability float64
}

// EnsembleScore is the arithmetic mean of the three scorers' probabilities.
type EnsembleScore struct {
	Probability float64
	Components  [Size]Component
}

// Ensemble averages exactly three scorers.
type Ensemble struct {
	scorers [Size]Scorer
}

// NewEnsemble builds an Ensemble. It fails unless exactly three scorers with
// distinct names are given.
func NewEnsemble(scorers ...Scorer) (*Ensemble, error) {
	if len(scorers) != Size {
		return nil, fmt.Errorf("%w: got %d", ErrEnsembleSize, len(scorers))
	}
	e := &Ensemble{}
	seen := make(map[string]struct{}, Size)
	for i, s := range scorers {
		if s == nil {
			return nil, fmt.Errorf("%w: scorer %d is nil", ErrEnsembleSize, i)
		}
		if _, dup := seen[s.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate scorer %q", ErrEnsembleSize, s.Name())
		}
		seen[s.Name()] = struct{}{}
		e.scorers[i] = s
	}
	return e, nil
}

// Names returns the scorer names in ensemble order.
func (e *Ensemble) Names() []string {
	out := make([]string, Size)
	for i, s := range e.scorers {
		out[i] = s.Name()
	}
	return out
}

// Score runs every scorer on v and averages their outputs. A scorer error or
// a probability that is non-finite or outside [0,1] fails the whole score.
func (e *Ensemble) Score(ctx context.Context, v scaler.Scaled) (EnsembleScore, error) {
	var out EnsembleScore
	var sum float64
	for i, s := range e.scorers {
		start := time.Now()
		p, err := s.Predict(ctx, v)
		metrics.RecordScorerLatency(s.Name(), float64(time.Since(start).Microseconds())/1000)
		if err != nil {
			metrics.RecordScorerError(s.Name(), "call")
			return EnsembleScore{}, fmt.Errorf("%w: scorer %s: %w", ErrScorer, s.Name(), err)
		}
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
			metrics.RecordScorerError(s.Name(), "range")
			return EnsembleScore{}, fmt.Errorf("%w: %w: scorer %s returned %v, want a probability in [0,1]", ErrScorer, model.ErrData, s.Name(), p)
		}
		out.Components[i] = Component{Scorer: s.Name(), Probability: p}
		sum += p
	}
	out.Probability = sum / Size
	return out, nil
}

// Importance averages the normalized importances of the scorers that expose
// them and returns every feature sorted by importance, highest first. Ties
// keep schema order.
func (e *Ensemble) Importance() []types.FeatureImportance {
	totals := make(map[string]float64, features.Count)
	var n int
	for _, s := range e.scorers {
		imp, ok := s.(Importancer)
		if !ok {
			continue
		}
		for name, w := range imp.Importance() {
			totals[name] += w
		}
		n++
	}

	out := make([]types.FeatureImportance, 0, features.Count)
	for _, name := range features.Names() {
		var avg float64
		if n > 0 {
			avg = totals[name] / float64(n)
		}
		out = append(out, types.FeatureImportance{Feature: name, Importance: avg})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out
}
