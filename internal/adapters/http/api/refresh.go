package api

import (
	"net/http"
)

type refreshResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// handleRefresh queues a re-run of the pipeline. The run happens in the
// background; the stored results change when it completes.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_refresh"
	id, err := s.refresher.RequestRefresh(r.Context(), "api")
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{RequestID: id, Status: "queued"})
}
