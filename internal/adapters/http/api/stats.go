package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_stats"
	st, err := s.store.Stats(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_teams"
	teams, err := s.store.Teams(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	type team struct {
		ID           string `json:"id"`
		FullName     string `json:"full_name"`
		Abbreviation string `json:"abbreviation"`
	}
	out := make([]team, 0, len(teams))
	for _, t := range teams {
		out = append(out, team{ID: t.ID, FullName: t.FullName, Abbreviation: t.Abbreviation})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_features"
	imp, err := s.store.Importance(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, imp)
}
