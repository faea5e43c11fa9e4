package handlers

import (
	"errors"
	"net/http"

	"lakay-tv/work/app"
	"lakay-tv/work/playback"

	"github.com/gorilla/mux"
)

// VolumeRequest is the payload for setting the session volume.
type VolumeRequest struct {
	Volume float64 `json:"volume"`
}

// HandlePlaybackStatus serves GET /api/playback.
func HandlePlaybackStatus(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.Player.Status())
	}
}

// HandlePlaybackStart serves POST /api/playback/{channelId}/start. The prior
// session, if any, is torn down before the new one begins; the response
// reflects the session in its Starting state, with Playing reached
// asynchronously.
func HandlePlaybackStart(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID := mux.Vars(r)["channelId"]

		ch, err := a.DB.GetChannel(channelID)
		if err != nil {
			a.Logger.Error("[API] Loading channel %s for playback failed: %v", channelID, err)
			writeError(w, http.StatusInternalServerError, "Error fetching channel")
			return
		}
		if ch == nil {
			writeError(w, http.StatusNotFound, "Channel not found")
			return
		}

		if err := a.Player.Start(ch); err != nil {
			switch {
			case errors.Is(err, playback.ErrUnsupported):
				writeError(w, http.StatusUnprocessableEntity, a.Player.Status().LastError)
			case errors.Is(err, playback.ErrNoSurface):
				writeError(w, http.StatusServiceUnavailable, "no media surface available")
			default:
				a.Logger.Error("[API] Starting playback of %s failed: %v", ch.Name, err)
				writeError(w, http.StatusInternalServerError, "Error starting playback")
			}
			return
		}

		writeJSON(w, http.StatusOK, a.Player.Status())
	}
}

// HandlePlaybackStop serves POST /api/playback/stop. Idempotent.
func HandlePlaybackStop(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.Player.Stop()
		writeJSON(w, http.StatusOK, a.Player.Status())
	}
}

// HandlePlaybackMute serves POST /api/playback/mute.
func HandlePlaybackMute(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.Player.ToggleMute()
		writeJSON(w, http.StatusOK, a.Player.Status())
	}
}

// HandlePlaybackVolume serves POST /api/playback/volume.
func HandlePlaybackVolume(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VolumeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Volume < 0 || req.Volume > 1 {
			writeError(w, http.StatusBadRequest, "volume must be between 0 and 1")
			return
		}

		a.Player.SetVolume(req.Volume)
		writeJSON(w, http.StatusOK, a.Player.Status())
	}
}

// HandlePlaybackFullscreen serves POST /api/playback/fullscreen.
func HandlePlaybackFullscreen(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.Player.ToggleFullscreen()
		writeJSON(w, http.StatusOK, a.Player.Status())
	}
}
