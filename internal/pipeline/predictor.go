package pipeline

import (
	"context"
	"fmt"

	"github.com/okian/titlerace/internal/domain/features"
	"github.com/okian/titlerace/internal/domain/scaler"
	"github.com/okian/titlerace/internal/domain/scoring"
	"github.com/okian/titlerace/internal/domain/types"
)

// Predictor bundles the schema, the fitted scaler and the ensemble of one run.
// It is immutable and safe for concurrent use.
type Predictor struct {
	schema   string
	scaler   *scaler.Fitted
	ensemble *scoring.Ensemble
}

// NewPredictor builds a Predictor over a fitted scaler and an ensemble.
func NewPredictor(sc *scaler.Fitted, ens *scoring.Ensemble) (*Predictor, error) {
	if sc == nil || ens == nil {
		return nil, fmt.Errorf("predictor needs a scaler and an ensemble")
	}
	return &Predictor{schema: features.SchemaVersion, scaler: sc, ensemble: ens}, nil
}

// SchemaVersion returns the feature schema the predictor was built for.
func (p *Predictor) SchemaVersion() string { return p.schema }

// Scaler returns the fitted scaler.
func (p *Predictor) Scaler() *scaler.Fitted { return p.scaler }

// ScorerNames returns the ensemble's scorer names in order.
func (p *Predictor) ScorerNames() []string { return p.ensemble.Names() }

// Predict scales v and scores it with the ensemble.
func (p *Predictor) Predict(ctx context.Context, v features.Vector) (scoring.EnsembleScore, error) {
	return p.ensemble.Score(ctx, p.scaler.Transform(v))
}

// PredictNamed binds a name -> value map to the schema and scores it. Every
// schema feature must be present and no other name may appear.
func (p *Predictor) PredictNamed(ctx context.Context, named map[string]float64) (scoring.EnsembleScore, error) {
	v, err := features.Bind(named)
	if err != nil {
		return scoring.EnsembleScore{}, err
	}
	return p.Predict(ctx, v)
}

// Importance returns the ensemble's averaged feature importance.
func (p *Predictor) Importance() []types.FeatureImportance {
	return p.ensemble.Importance()
}
