package handlers

import (
	"net/http"

	"lakay-tv/work/app"

	"github.com/gorilla/mux"
)

// FavoritesReplaceRequest is the payload for replacing a user's favorite set.
type FavoritesReplaceRequest struct {
	ChannelIDs []string `json:"channel_ids"`
}

// HandleGetFavorites serves GET /api/favorites/{userId}. A user never seen
// before gets an empty set; store failures are reported as errors so clients
// never mistake "unknown" for "empty".
func HandleGetFavorites(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := mux.Vars(r)["userId"]

		fav, err := a.Favorites.Get(userID)
		if err != nil {
			a.Logger.Error("[API] Fetching favorites failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Error fetching favorites")
			return
		}

		writeJSON(w, http.StatusOK, fav)
	}
}

// HandleReplaceFavorites serves PUT /api/favorites/{userId}.
func HandleReplaceFavorites(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := mux.Vars(r)["userId"]

		var req FavoritesReplaceRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ChannelIDs == nil {
			writeError(w, http.StatusBadRequest, "channel_ids is required")
			return
		}

		fav, err := a.Favorites.Replace(userID, req.ChannelIDs)
		if err != nil {
			a.Logger.Error("[API] Replacing favorites failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Error updating favorites")
			return
		}

		writeJSON(w, http.StatusOK, fav)
	}
}

// HandleToggleFavorite serves POST /api/favorites/{userId}/toggle/{channelId}.
// Exactly one membership flips per call.
func HandleToggleFavorite(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		userID := vars["userId"]
		channelID := vars["channelId"]

		action, _, err := a.Favorites.Toggle(userID, channelID)
		if err != nil {
			a.Logger.Error("[API] Toggling favorite failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Error toggling favorite")
			return
		}

		message := "Channel removed from favorites"
		if action == "added" {
			message = "Channel added to favorites"
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message":    message,
			"channel_id": channelID,
		})
	}
}
