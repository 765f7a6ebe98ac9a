// Package scoring defines the contract for turning a scaled feature vector
// into a championship probability, its three implementations, and the
// ensemble that averages them.
package scoring

import (
	"context"
	"math"

	"github.com/okian/titlerace/internal/domain/scaler"
)

// Scorer is one independently trained binary classifier.
type Scorer interface {
	// Name identifies the scorer in logs, metrics and per-scorer output.
	Name() string

	// Predict returns the probability that v belongs to a champion, honoring
	// ctx for cancellation. Implementations are read-only after construction.
	Predict(ctx context.Context, v scaler.Scaled) (float64, error)
}

// Importancer is implemented by scorers that can rank their inputs.
type Importancer interface {
	// Importance returns non-negative weights keyed by feature name.
	Importance() map[string]float64
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// normalize scales weights so they sum to 1. All-zero input stays zero.
func normalize(w map[string]float64) map[string]float64 {
	var total float64
	for _, x := range w {
		total += x
	}
	out := make(map[string]float64, len(w))
	for k, x := range w {
		if total > 0 {
			out[k] = x / total
		} else {
			out[k] = 0
		}
	}
	return out
}
