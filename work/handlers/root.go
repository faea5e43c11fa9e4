package handlers

import "net/http"

// HandleRoot serves GET /api/: a banner so probes can tell the service apart
// from whatever else answers on the port.
func HandleRoot(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Lakay TV API",
			"version": version,
		})
	}
}
