package testgames

import (
	"github.com/okian/titlerace/internal/domain/features"
	"github.com/okian/titlerace/internal/domain/scoring"
)

// ScorerNames are the names used by Ensemble.
var ScorerNames = []string{"xgboost", "lightgbm", "catboost"}

// Weights returns a full weight map that is zero except for the given features.
func Weights(nonZero map[features.Feature]float64) map[string]float64 {
	w := make(map[string]float64, features.Count)
	for _, name := range features.Names() {
		w[name] = 0
	}
	for f, v := range nonZero {
		w[f.String()] = v
	}
	return w
}

// Ensemble returns three logistic scorers that favour winning teams.
func Ensemble() (*scoring.Ensemble, error) {
	weights := []map[features.Feature]float64{
		{features.WinPct: 2.0},
		{features.WinPct: 1.5, features.PointDiff: 0.5},
		{features.WinPct: 1.0, features.EfficiencyDiff: 0.5},
	}
	scorers := make([]scoring.Scorer, len(ScorerNames))
	for i, name := range ScorerNames {
		s, err := scoring.NewLogisticScorer(name, -1, Weights(weights[i]))
		if err != nil {
			return nil, err
		}
		scorers[i] = s
	}
	return scoring.NewEnsemble(scorers...)
}
