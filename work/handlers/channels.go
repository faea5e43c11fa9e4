package handlers

import (
	"net/http"
	"strconv"

	"lakay-tv/work/app"
	"lakay-tv/work/catalog"
	"lakay-tv/work/database"
	"lakay-tv/work/metrics"
	"lakay-tv/work/types"

	"github.com/gorilla/mux"
)

// ChannelCreateRequest is the payload for creating a channel.
type ChannelCreateRequest struct {
	Name        string `json:"name"`
	Logo        string `json:"logo"`
	Stream      string `json:"stream"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// ChannelUpdateRequest is the payload for a partial channel update. Absent
// fields are left untouched.
type ChannelUpdateRequest struct {
	Name        *string `json:"name"`
	Logo        *string `json:"logo"`
	Stream      *string `json:"stream"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// HandleListChannels serves GET /api/channels. The channel snapshot comes
// from the store; visibility is derived by the catalog filter engine from the
// query's filter mode, category and search text.
//
// Query parameters: active_only (default true), category, search,
// favorites_of (user id; switches the listing to favorites mode).
func HandleListChannels(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		activeOnly := true
		if raw := q.Get("active_only"); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid active_only value")
				return
			}
			activeOnly = parsed
		}

		channels, err := a.DB.ListChannels(activeOnly)
		if err != nil {
			a.Logger.Error("[API] Listing channels failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Error fetching channels")
			return
		}

		sel := catalog.Selection{
			Mode:     catalog.FilterAll,
			Category: q.Get("category"),
			Search:   q.Get("search"),
		}

		var favoriteIDs map[string]struct{}
		if userID := q.Get("favorites_of"); userID != "" {
			fav, err := a.Favorites.Get(userID)
			if err != nil {
				// A failed favorites fetch is an error, not an empty list
				a.Logger.Error("[API] Favorites lookup for listing failed: %v", err)
				writeError(w, http.StatusInternalServerError, "Error fetching favorites")
				return
			}
			sel.Mode = catalog.FilterFavorites
			favoriteIDs = fav.IDSet()
		}

		visible := catalog.Visible(channels, favoriteIDs, sel)
		metrics.CatalogQueries.WithLabelValues(sel.Mode.String()).Inc()

		// Always an array, never null
		if visible == nil {
			visible = []*types.Channel{}
		}
		writeJSON(w, http.StatusOK, visible)
	}
}

// HandleGetChannel serves GET /api/channels/{id}.
func HandleGetChannel(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		ch, err := a.DB.GetChannel(id)
		if err != nil {
			a.Logger.Error("[API] Fetching channel %s failed: %v", id, err)
			writeError(w, http.StatusInternalServerError, "Error fetching channel")
			return
		}
		if ch == nil {
			writeError(w, http.StatusNotFound, "Channel not found")
			return
		}

		writeJSON(w, http.StatusOK, ch)
	}
}

// HandleCreateChannel serves POST /api/channels.
func HandleCreateChannel(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChannelCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Name == "" || req.Stream == "" {
			writeError(w, http.StatusBadRequest, "name and stream are required")
			return
		}

		ch, err := a.DB.CreateChannel(req.Name, req.Logo, req.Stream, req.Category, req.Description)
		if err != nil {
			a.Logger.Error("[API] Creating channel failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Error creating channel")
			return
		}

		a.Cache.InvalidateCategories()
		a.Logger.Info("[API] Channel created: %s (%s)", ch.Name, ch.ID)
		writeJSON(w, http.StatusOK, ch)
	}
}

// HandleUpdateChannel serves PUT /api/channels/{id}.
func HandleUpdateChannel(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req ChannelUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		update := &database.ChannelUpdate{
			Name:        req.Name,
			Logo:        req.Logo,
			Stream:      req.Stream,
			Category:    req.Category,
			Description: req.Description,
			IsActive:    req.IsActive,
		}
		if update.Empty() {
			writeError(w, http.StatusBadRequest, "No valid fields to update")
			return
		}

		ch, err := a.DB.UpdateChannel(id, update)
		if err != nil {
			a.Logger.Error("[API] Updating channel %s failed: %v", id, err)
			writeError(w, http.StatusInternalServerError, "Error updating channel")
			return
		}
		if ch == nil {
			writeError(w, http.StatusNotFound, "Channel not found")
			return
		}

		a.Cache.InvalidateCategories()
		writeJSON(w, http.StatusOK, ch)
	}
}

// HandleDeleteChannel serves DELETE /api/channels/{id}.
func HandleDeleteChannel(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		deleted, err := a.DB.DeleteChannel(id)
		if err != nil {
			a.Logger.Error("[API] Deleting channel %s failed: %v", id, err)
			writeError(w, http.StatusInternalServerError, "Error deleting channel")
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, "Channel not found")
			return
		}

		a.Cache.InvalidateCategories()
		a.Logger.Info("[API] Channel deleted: %s", id)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Channel deleted successfully"})
	}
}

// HandleListCategories serves GET /api/categories from cache, falling back
// to the aggregation query.
func HandleListCategories(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cats, ok := a.Cache.GetCategories(); ok {
			writeJSON(w, http.StatusOK, cats)
			return
		}

		cats, err := a.DB.ListCategories()
		if err != nil {
			a.Logger.Error("[API] Listing categories failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Error fetching categories")
			return
		}
		if cats == nil {
			cats = []types.Category{}
		}

		a.Cache.SetCategories(cats)
		writeJSON(w, http.StatusOK, cats)
	}
}
