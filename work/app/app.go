package app

import (
	"lakay-tv/work/cache"
	"lakay-tv/work/client"
	"lakay-tv/work/config"
	"lakay-tv/work/database"
	"lakay-tv/work/favorites"
	"lakay-tv/work/logger"
	"lakay-tv/work/playback"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/ratelimit"
)

// App bundles the long-lived components of the Lakay TV service: the channel
// store, the caches, the favorites store and the single playback session
// manager of the device. Handlers receive an *App and nothing else.
type App struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.DB
	Cache       *cache.Cache
	HttpClient  *client.HeaderSettingClient
	WorkerPool  *ants.Pool
	RateLimiter ratelimit.Limiter
	Favorites   *favorites.Store
	Player      *playback.Manager
}

// New wires an App from its components.
func New(cfg *config.Config, log *logger.Logger, db *database.DB, c *cache.Cache,
	httpClient *client.HeaderSettingClient, pool *ants.Pool, limiter ratelimit.Limiter,
	favs *favorites.Store, player *playback.Manager) *App {
	return &App{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		Cache:       c,
		HttpClient:  httpClient,
		WorkerPool:  pool,
		RateLimiter: limiter,
		Favorites:   favs,
		Player:      player,
	}
}
