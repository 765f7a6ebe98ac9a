package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/okian/titlerace/internal/domain/features"
	"github.com/okian/titlerace/internal/domain/scaler"
)

// LogisticScorer is a linear model over the scaled features followed by a sigmoid.
type LogisticScorer struct {
	name    string
	bias    float64
	weights [features.Count]float64
}

// NewLogisticScorer binds weights to the schema by name. Every canonical
// feature needs a weight and no other names are allowed.
func NewLogisticScorer(name string, bias float64, weights map[string]float64) (*LogisticScorer, error) {
	w, err := features.Bind(weights)
	if err != nil {
		return nil, fmt.Errorf("logistic scorer %s: %w", name, err)
	}
	s := &LogisticScorer{name: name, bias: bias}
	copy(s.weights[:], w.Values())
	return s, nil
}

// LoadLogisticScorer reads a {"bias": b, "weights": {name: w}} model file.
func LoadLogisticScorer(name, path string) (*LogisticScorer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	var raw struct {
		Bias    float64            `json:"bias"`
		Weights map[string]float64 `json:"weights"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalidModel, path, err)
	}
	return NewLogisticScorer(name, raw.Bias, raw.Weights)
}

func (s *LogisticScorer) Name() string { return s.name }

func (s *LogisticScorer) Predict(ctx context.Context, v scaler.Scaled) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	z := s.bias
	for i, w := range s.weights {
		z += w * v.At(features.Feature(i))
	}
	return sigmoid(z), nil
}

// Importance is the normalized absolute weight of each feature.
func (s *LogisticScorer) Importance() map[string]float64 {
	raw := make(map[string]float64, features.Count)
	for i, w := range s.weights {
		raw[features.Feature(i).String()] = math.Abs(w)
	}
	return normalize(raw)
}
