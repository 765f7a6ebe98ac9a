package api

import (
	"errors"
	"net/http"

	"github.com/okian/titlerace/internal/adapters/repository"
)

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_predictions"
	p, err := s.store.Latest(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p.Predictions)
}

func (s *Server) handleSeason(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_season_predictions"
	season, err := seasonParam(r)
	if err != nil {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}
	p, err := s.store.Predictions(r.Context(), season)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p.Predictions)
}

type seasonsResponse struct {
	Seasons []int `json:"seasons"`
	Latest  *int  `json:"latest"`
}

func (s *Server) handleSeasons(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_seasons"
	seasons, err := s.store.Seasons(r.Context())
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusOK, seasonsResponse{Seasons: []int{}})
		return
	}
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	resp := seasonsResponse{Seasons: seasons}
	if len(seasons) > 0 {
		resp.Latest = &seasons[0]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_historical"
	hist, err := s.store.Historical(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

// championResponse leaves every field null that the season cannot answer.
type championResponse struct {
	Season            int      `json:"season"`
	ActualChampion    *string  `json:"actual_champion"`
	PredictedChampion *string  `json:"predicted_champion"`
	Correct           *bool    `json:"correct"`
	ActualRank        *int     `json:"actual_rank"`
	ActualProbability *float64 `json:"actual_probability"`
}

// handleActualChampion answers for evaluated seasons in full. A season with
// predictions but no known champion gets the prediction only; a season with
// neither is not found.
func (s *Server) handleActualChampion(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_actual_champion"
	season, err := seasonParam(r)
	if err != nil {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}

	h, err := s.store.Champion(r.Context(), season)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, championResponse{
			Season:            h.Season,
			ActualChampion:    &h.ActualChampion,
			PredictedChampion: &h.PredictedChampion,
			Correct:           &h.Correct,
			ActualRank:        h.ActualChampionRank,
			ActualProbability: h.ActualChampionProbability,
		})
		return
	case !errors.Is(err, repository.ErrNotFound):
		writeError(w, Wrap(op, err))
		return
	}

	p, err := s.store.Predictions(r.Context(), season)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	resp := championResponse{Season: p.Season}
	if len(p.Predictions) > 0 {
		resp.PredictedChampion = &p.Predictions[0].TeamName
	}
	writeJSON(w, http.StatusOK, resp)
}
