package api

import (
	"net/http"

	"github.com/okian/titlerace/internal/domain/features"
)

type indexResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Model     string            `json:"model"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{
		Message: "Championship Predictor API",
		Version: s.version,
		Model:   "three-scorer ensemble over " + features.SchemaVersion,
		Endpoints: map[string]string{
			"/predictions":              "Latest season championship predictions",
			"/predictions/{season}":     "Predictions for a specific season",
			"/seasons":                  "Seasons with predictions",
			"/historical":               "Historical prediction accuracy",
			"/actual-champion/{season}": "Predicted against actual champion for a season",
			"/features":                 "Averaged feature importance",
			"/teams":                    "All teams",
			"/predict":                  "POST a named feature map for a probability",
			"/stats":                    "Summary of the last run",
			"/metrics":                  "Prometheus metrics",
			"/health":                   "Health check",
		},
	})
}

type healthResponse struct {
	Status        string   `json:"status"`
	PredictorUp   bool     `json:"predictor_loaded"`
	Scorers       []string `json:"scorers,omitempty"`
	SchemaVersion string   `json:"schema_version"`
	NumFeatures   int      `json:"num_features"`
	ResultsReady  bool     `json:"results_ready"`
}

// handleHealth reports healthy once a run has been published.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "starting", SchemaVersion: features.SchemaVersion, NumFeatures: features.Count}
	if p, ok := s.predictors.CurrentPredictor(); ok {
		resp.PredictorUp = true
		resp.Scorers = p.ScorerNames()
		resp.SchemaVersion = p.SchemaVersion()
	}
	if _, err := s.store.Stats(r.Context()); err == nil {
		resp.ResultsReady = true
	}
	if resp.PredictorUp && resp.ResultsReady {
		resp.Status = "healthy"
	}
	writeJSON(w, http.StatusOK, resp)
}
