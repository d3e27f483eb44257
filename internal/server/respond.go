package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/redleadhq/redlead/internal/process/discovery"
	"github.com/redleadhq/redlead/internal/storage"
)

const headerContentType = "application/json"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", headerContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid lead status")
	case errors.Is(err, discovery.ErrNoKeywords):
		writeError(w, http.StatusBadRequest, "campaign has no generated keywords")
	case errors.Is(err, discovery.ErrNoSubreddits):
		writeError(w, http.StatusBadRequest, "campaign has no target subreddits")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
