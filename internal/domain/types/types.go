// Package types contains the read shapes returned to callers.
package types

import "time"

// PredictionEntry is one ranked team in a season's predictions.
type PredictionEntry struct {
	Rank                    int                `json:"rank"`
	TeamID                  string             `json:"team_id"`
	TeamName                string             `json:"team_name"`
	Abbreviation            string             `json:"abbreviation"`
	Wins                    int                `json:"wins"`
	WinPct                  float64            `json:"win_pct"`
	Ppg                     float64            `json:"ppg"`
	PointDiff               float64            `json:"point_diff"`
	ChampionshipProbability float64            `json:"championship_probability"`
	ScorerProbabilities     map[string]float64 `json:"scorer_probabilities,omitempty"`
}

// SeasonPredictions is a season's full ranking as produced by one run.
type SeasonPredictions struct {
	Season      int               `json:"season"`
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Predictions []PredictionEntry `json:"predictions"`
}

// HistoricalRecord is a season's prediction checked against the real champion.
// ActualChampionRank and ActualChampionProbability are nil when the champion
// is not among the ranked teams.
type HistoricalRecord struct {
	Season                    int      `json:"season"`
	ActualChampion            string   `json:"actual_champion"`
	PredictedChampion         string   `json:"predicted_champion"`
	PredictedProbability      float64  `json:"predicted_probability"`
	Correct                   bool     `json:"correct"`
	ActualChampionRank        *int     `json:"actual_champion_rank"`
	ActualChampionProbability *float64 `json:"actual_champion_probability"`
}

// FeatureImportance is one feature's averaged importance across scorers.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// RunStats summarizes the last stored run.
type RunStats struct {
	RunID              string    `json:"run_id"`
	GeneratedAt        time.Time `json:"generated_at"`
	Seasons            int       `json:"seasons"`
	TeamSeasons        int       `json:"team_seasons"`
	SeasonsEvaluated   int       `json:"seasons_evaluated"`
	CorrectPredictions int       `json:"correct_predictions"`
	Accuracy           float64   `json:"accuracy"`
	MeanChampionRank   float64   `json:"mean_champion_rank"`
	Top3HitRate        float64   `json:"top3_hit_rate"`
}
