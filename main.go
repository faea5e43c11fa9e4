package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/ratelimit"

	"lakay-tv/work/app"
	"lakay-tv/work/cache"
	"lakay-tv/work/client"
	"lakay-tv/work/config"
	"lakay-tv/work/database"
	"lakay-tv/work/engine"
	"lakay-tv/work/favorites"
	"lakay-tv/work/logger"
	"lakay-tv/work/playback"
	"lakay-tv/work/surface"
)

var (
	Version = "v0.1.0" // default version
)

// our main app worker
func main() {

	// optional .env overrides, ignored when absent
	_ = godotenv.Load()

	// load our config
	cfg := config.LoadConfig()

	// Set up logging
	appLogger := logger.New(cfg.LogLevel)
	logger.SetLogLevel(cfg.LogLevel)

	// Open the channel store and run migrations
	db, err := database.Open(cfg.DatabasePath, appLogger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Initialize HTTP client
	httpClient := client.NewHeaderSettingClient(cfg)

	// Initialize worker pool
	workerPool, err := ants.NewPool(cfg.WorkerThreads, ants.WithPreAlloc(true))
	if err != nil {
		log.Fatalf("Failed to create worker pool: %v", err)
	}
	defer workerPool.Release()

	// Initialize caches
	cacheInstance := cache.New(cfg.CacheDuration)

	// Manifest fetch rate limiter
	var limiter ratelimit.Limiter
	if cfg.ManifestRateLimit > 0 {
		limiter = ratelimit.New(cfg.ManifestRateLimit)
	} else {
		limiter = ratelimit.NewUnlimited()
	}

	// Favorites store
	favStore := favorites.NewStore(db, appLogger)

	// Media surface and playback manager
	mediaSurface := surface.New(cfg, appLogger)
	engineFactory := engine.NewFactory(cfg, appLogger, httpClient, limiter, cacheInstance)
	player := playback.NewManager(mediaSurface, engineFactory, workerPool, appLogger)

	// Assemble the app
	application := app.New(cfg, appLogger, db, cacheInstance, httpClient, workerPool, limiter, favStore, player)

	// Setup HTTP routes
	router := mux.NewRouter()

	// Metrics handler
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// add the api routes
	setupAPIRoutes(router, application)

	addr := fmt.Sprintf(":%d", cfg.ListenPort)

	// show info
	appLogger.Info("Starting Lakay TV %s", Version)
	appLogger.Info("Server configuration:")
	appLogger.Info("  - Base URL: %s", cfg.BaseURL)
	appLogger.Info("  - Listen Port: %d", cfg.ListenPort)
	appLogger.Info("  - Database: %s", cfg.DatabasePath)
	appLogger.Info("  - Worker Threads: %d", cfg.WorkerThreads)
	appLogger.Info("  - Cache Duration: %s", cfg.CacheDuration)
	appLogger.Info("  - Manifest Timeout: %s", cfg.ManifestTimeout)
	appLogger.Info("  - Adaptive Surface: %v", cfg.SurfaceAdaptive)
	appLogger.Info("  - Debug Enabled: %v", cfg.Debug)
	appLogger.Info("  - URL Obfuscation: %v", cfg.ObfuscateUrls)

	// fire us up
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}

}
