package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julianstephens/habitcoach/internal/logger"
	"github.com/julianstephens/habitcoach/internal/notify"
	"github.com/julianstephens/habitcoach/internal/storage"
	"github.com/julianstephens/habitcoach/internal/validation"
)

type apiError struct {
	Error    string              `json:"error"`
	Problems validation.Problems `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

func writeProblems(w http.ResponseWriter, problems validation.Problems) {
	writeJSON(w, http.StatusBadRequest, apiError{Error: "validation failed", Problems: problems})
}

// writeStorageError maps service errors onto the API error taxonomy.
func writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, notify.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
