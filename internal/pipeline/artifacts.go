package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/titlerace/internal/domain/features"
)

const (
	scalerFile   = "scaler.json"
	metadataFile = "metadata.json"
)

// Metadata describes the run that produced a set of artifacts.
type Metadata struct {
	SchemaVersion string    `json:"schema_version"`
	FeatureNames  []string  `json:"feature_names"`
	FeatureCount  int       `json:"n_features"`
	RunID         string    `json:"run_id"`
	TrainedAt     time.Time `json:"training_date"`
	Scorers       []string  `json:"models"`
	Seasons       int       `json:"seasons"`
	TeamSeasons   int       `json:"team_seasons"`
	ScalerFitted  bool      `json:"scaler_fitted"`
}

func writeArtifacts(dir string, res *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := res.Predictor.Scaler().Save(filepath.Join(dir, scalerFile)); err != nil {
		return err
	}

	meta := Metadata{
		SchemaVersion: res.Predictor.SchemaVersion(),
		FeatureNames:  features.Names(),
		FeatureCount:  features.Count,
		RunID:         res.RunID,
		TrainedAt:     res.GeneratedAt,
		Scorers:       res.Predictor.ScorerNames(),
		Seasons:       len(res.Seasons),
		TeamSeasons:   res.Stats.TeamSeasons,
		ScalerFitted:  res.ScalerFitted,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// ReadMetadata loads the metadata.json written to dir.
func ReadMetadata(dir string) (Metadata, error) {
	var m Metadata
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return m, fmt.Errorf("read metadata: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}
