package handlers

import (
	"net/http"

	"lakay-tv/work/app"
)

// HandleStats serves GET /api/stats: store row counts and size plus live
// session and worker pool state, for monitoring and debugging.
func HandleStats(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := a.DB.GetStats()
		if err != nil {
			a.Logger.Error("[API] Collecting stats failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Error fetching stats")
			return
		}

		stats["playback_state"] = a.Player.State().String()
		stats["worker_pool_running"] = a.WorkerPool.Running()
		stats["worker_pool_capacity"] = a.WorkerPool.Cap()

		writeJSON(w, http.StatusOK, stats)
	}
}
