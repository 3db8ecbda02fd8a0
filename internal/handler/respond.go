package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// duplicateResponse is the conflict payload for a post URL that already has
// a case. Expected, recoverable user error, so it carries a machine code
// and the winning case id.
type duplicateResponse struct {
	Error          string `json:"error"`
	Code           string `json:"code"`
	ExistingCaseID string `json:"existingCaseId,omitempty"`
}

func writeDuplicate(w http.ResponseWriter, existingCaseID string) {
	writeJSON(w, http.StatusConflict, duplicateResponse{
		Error:          "a case already exists for this URL",
		Code:           "DUPLICATE_POST_URL",
		ExistingCaseID: existingCaseID,
	})
}
