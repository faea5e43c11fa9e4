package handlers

import (
	"encoding/json"
	"net/http"

	"lakay-tv/work/logger"
)

// errorResponse is the JSON error body shared by every endpoint.
type errorResponse struct {
	Detail string `json:"detail"`
}

// writeJSON serializes v with the given status. Encoding failures are logged;
// by then headers are already out, so nothing more can be done for the client.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("{handlers - writeJSON} failed to encode response: %v", err)
	}
}

// writeError sends a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// decodeJSON parses a request body into dst, reporting malformed payloads.
func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
