package main

import (
	"net/http"

	"lakay-tv/work/app"
	"lakay-tv/work/handlers"
	"lakay-tv/work/middleware"

	"github.com/gorilla/mux"
)

// corsMiddleware opens the API to browser clients on other origins and
// answers preflight OPTIONS requests directly.
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// setupAPIRoutes registers the REST API on the router. Read endpoints get
// gzip on top of CORS; mutations stay uncompressed.
func setupAPIRoutes(router *mux.Router, a *app.App) {

	// service banner
	router.HandleFunc("/api/", corsMiddleware(handlers.HandleRoot(Version))).Methods("GET", "OPTIONS")

	// channel catalog
	router.HandleFunc("/api/channels", corsMiddleware(middleware.Gzip(handlers.HandleListChannels(a)))).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/channels", corsMiddleware(handlers.HandleCreateChannel(a))).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/channels/{id}", corsMiddleware(middleware.Gzip(handlers.HandleGetChannel(a)))).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/channels/{id}", corsMiddleware(handlers.HandleUpdateChannel(a))).Methods("PUT", "OPTIONS")
	router.HandleFunc("/api/channels/{id}", corsMiddleware(handlers.HandleDeleteChannel(a))).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/api/categories", corsMiddleware(middleware.Gzip(handlers.HandleListCategories(a)))).Methods("GET", "OPTIONS")

	// favorites
	router.HandleFunc("/api/favorites/{userId}", corsMiddleware(middleware.Gzip(handlers.HandleGetFavorites(a)))).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/favorites/{userId}", corsMiddleware(handlers.HandleReplaceFavorites(a))).Methods("PUT", "OPTIONS")
	router.HandleFunc("/api/favorites/{userId}/toggle/{channelId}", corsMiddleware(handlers.HandleToggleFavorite(a))).Methods("POST", "OPTIONS")

	// playback session control
	router.HandleFunc("/api/playback", corsMiddleware(handlers.HandlePlaybackStatus(a))).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/playback/{channelId}/start", corsMiddleware(handlers.HandlePlaybackStart(a))).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/playback/stop", corsMiddleware(handlers.HandlePlaybackStop(a))).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/playback/mute", corsMiddleware(handlers.HandlePlaybackMute(a))).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/playback/volume", corsMiddleware(handlers.HandlePlaybackVolume(a))).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/playback/fullscreen", corsMiddleware(handlers.HandlePlaybackFullscreen(a))).Methods("POST", "OPTIONS")

	// demo data seed
	router.HandleFunc("/api/init-data", corsMiddleware(handlers.HandleInitData(a))).Methods("POST", "OPTIONS")

	// diagnostics
	router.HandleFunc("/api/stats", corsMiddleware(middleware.Gzip(handlers.HandleStats(a)))).Methods("GET", "OPTIONS")
}
