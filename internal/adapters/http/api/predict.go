package api

import (
	"encoding/json"
	"io"
	"net/http"
)

const maxPredictBody = 64 << 10

// Probability bands used to label a prediction.
const (
	contenderThreshold = 0.3
	confidentHigh      = 0.5
	confidentLow       = 0.1
)

type predictResponse struct {
	ChampionshipProbability float64            `json:"championship_probability"`
	ScorerProbabilities     map[string]float64 `json:"scorer_probabilities"`
	Prediction              string             `json:"prediction"`
	Confidence              string             `json:"confidence"`
	SchemaVersion           string             `json:"schema_version"`
}

// handlePredict scores a JSON object of feature name -> value. Every feature
// of the schema is required and unknown names are rejected.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_predict"
	p, ok := s.predictors.CurrentPredictor()
	if !ok {
		writeError(w, NewKind(op, ErrNotReady))
		return
	}

	var named map[string]float64
	dec := json.NewDecoder(io.LimitReader(r.Body, maxPredictBody))
	if err := dec.Decode(&named); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(named) == 0 {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}

	score, err := p.PredictNamed(r.Context(), named)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}

	resp := predictResponse{
		ChampionshipProbability: score.Probability,
		ScorerProbabilities:     make(map[string]float64, len(score.Components)),
		Prediction:              "Unlikely Champion",
		Confidence:              "Moderate",
		SchemaVersion:           p.SchemaVersion(),
	}
	for _, c := range score.Components {
		resp.ScorerProbabilities[c.Scorer] = c.Probability
	}
	if score.Probability > contenderThreshold {
		resp.Prediction = "Elite Contender"
	}
	if score.Probability > confidentHigh || score.Probability < confidentLow {
		resp.Confidence = "High"
	}
	writeJSON(w, http.StatusOK, resp)
}
