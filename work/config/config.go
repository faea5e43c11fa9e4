package config

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"sync"
	"time"
)

// Config holds all application configuration values for the Lakay TV service.
// It covers the HTTP listener, the embedded channel store, upstream manifest
// fetching, and the capabilities of the media surface the playback session
// manager drives.
type Config struct {
	BaseURL             string        `json:"baseURL"`             // Base URL for the application (used for links in responses)
	ListenPort          int           `json:"listenPort"`          // HTTP listen port
	DatabasePath        string        `json:"databasePath"`        // Path to the SQLite database file
	LogLevel            string        `json:"logLevel"`            // Minimum log level (DEBUG, INFO, WARN, ERROR)
	Debug               bool          `json:"debug"`               // Enable debug logging
	ObfuscateUrls       bool          `json:"obfuscateUrls"`       // Obfuscate stream URLs in logs
	CacheDuration       time.Duration `json:"cacheDuration"`       // TTL for category and manifest caches
	WorkerThreads       int           `json:"workerThreads"`       // Worker pool size for background tasks
	ManifestTimeout     time.Duration `json:"manifestTimeout"`     // Timeout for a single manifest fetch
	ManifestRateLimit   int           `json:"manifestRateLimit"`   // Upstream manifest fetches per second
	UserAgent           string        `json:"userAgent"`           // HTTP User-Agent header for upstream requests
	ReqOrigin           string        `json:"reqOrigin"`           // HTTP Origin header for upstream requests
	ReqReferrer         string        `json:"reqReferrer"`         // HTTP Referer header for upstream requests
	SurfaceAdaptive     bool          `json:"surfaceAdaptive"`     // Whether the media surface supports the adaptive engine
	SurfaceMimeTypes    []string      `json:"surfaceMimeTypes"`    // MIME types the surface can play natively
	LowLatencySync      int           `json:"lowLatencySync"`      // Segments from the live edge the engine tunes to
	MaxManifestVariants int           `json:"maxManifestVariants"` // Cap on variants considered from a master playlist
}

// ConfigFile represents the JSON file structure for marshaling/unmarshaling
// configuration. Duration fields (e.g. "30m") are parsed into time.Duration
// values after loading.
type ConfigFile struct {
	BaseURL             string   `json:"baseURL"`
	ListenPort          int      `json:"listenPort"`
	DatabasePath        string   `json:"databasePath"`
	LogLevel            string   `json:"logLevel"`
	Debug               bool     `json:"debug"`
	ObfuscateUrls       bool     `json:"obfuscateUrls"`
	CacheDuration       string   `json:"cacheDuration"`   // Duration as string (e.g. "30m")
	WorkerThreads       int      `json:"workerThreads"`
	ManifestTimeout     string   `json:"manifestTimeout"` // Duration as string (e.g. "15s")
	ManifestRateLimit   int      `json:"manifestRateLimit"`
	UserAgent           string   `json:"userAgent"`
	ReqOrigin           string   `json:"reqOrigin"`
	ReqReferrer         string   `json:"reqReferrer"`
	SurfaceAdaptive     *bool    `json:"surfaceAdaptive"`
	SurfaceMimeTypes    []string `json:"surfaceMimeTypes"`
	LowLatencySync      int      `json:"lowLatencySync"`
	MaxManifestVariants int      `json:"maxManifestVariants"`
}

var (
	configCache *Config      // Cached configuration instance (singleton)
	configMutex sync.RWMutex // Mutex for safe concurrent access to configCache
)

// LoadConfig loads the configuration from file or returns the cached instance.
//
// Process:
//   - Uses double-checked locking to avoid redundant reloads.
//   - Attempts to load from the path in LAKAY_CONFIG, falling back to
//     ./settings/config.json.
//   - Falls back to the default config if the file is missing or invalid.
//   - Runs validation to ensure safe defaults.
func LoadConfig() *Config {
	configMutex.RLock()
	if configCache != nil {
		defer configMutex.RUnlock()
		return configCache
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// Double-check under write lock
	if configCache != nil {
		return configCache
	}

	configPath := os.Getenv("LAKAY_CONFIG")
	if configPath == "" {
		configPath = "settings/config.json"
	}

	config, err := loadFromFile(configPath)
	if err != nil {
		log.Printf("Failed to load config from %s: %v", configPath, err)
		log.Printf("Falling back to default configuration...")
		config = getDefaultConfig()
	}

	validateAndSetDefaults(config)
	configCache = config

	if config.Debug {
		log.Printf("Configuration loaded:")
		log.Printf("  Base URL: %s", config.BaseURL)
		log.Printf("  Database: %s", config.DatabasePath)
		log.Printf("  Surface adaptive: %v", config.SurfaceAdaptive)
		log.Printf("  Surface MIME types: %v", config.SurfaceMimeTypes)
	}

	return config
}

// ClearConfigCache drops the cached configuration so the next LoadConfig call
// re-reads the file. Used by graceful restart.
func ClearConfigCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	configCache = nil
}

// loadFromFile reads and parses the configuration from a JSON file.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cf ConfigFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config := &Config{
		BaseURL:             cf.BaseURL,
		ListenPort:          cf.ListenPort,
		DatabasePath:        cf.DatabasePath,
		LogLevel:            cf.LogLevel,
		Debug:               cf.Debug,
		ObfuscateUrls:       cf.ObfuscateUrls,
		WorkerThreads:       cf.WorkerThreads,
		ManifestRateLimit:   cf.ManifestRateLimit,
		UserAgent:           cf.UserAgent,
		ReqOrigin:           cf.ReqOrigin,
		ReqReferrer:         cf.ReqReferrer,
		SurfaceMimeTypes:    cf.SurfaceMimeTypes,
		LowLatencySync:      cf.LowLatencySync,
		MaxManifestVariants: cf.MaxManifestVariants,
	}

	// Adaptive support defaults to true when the field is absent
	if cf.SurfaceAdaptive != nil {
		config.SurfaceAdaptive = *cf.SurfaceAdaptive
	} else {
		config.SurfaceAdaptive = true
	}

	if cf.CacheDuration != "" {
		d, err := time.ParseDuration(cf.CacheDuration)
		if err != nil {
			return nil, fmt.Errorf("invalid cacheDuration %q: %w", cf.CacheDuration, err)
		}
		config.CacheDuration = d
	}
	if cf.ManifestTimeout != "" {
		d, err := time.ParseDuration(cf.ManifestTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid manifestTimeout %q: %w", cf.ManifestTimeout, err)
		}
		config.ManifestTimeout = d
	}

	return config, nil
}

// getDefaultConfig returns a configuration with sane defaults for a standalone
// deployment with no config file present.
func getDefaultConfig() *Config {
	return &Config{
		BaseURL:             "http://localhost:8080",
		ListenPort:          8080,
		DatabasePath:        "data/lakay.db",
		LogLevel:            "INFO",
		SurfaceAdaptive:     true,
		SurfaceMimeTypes:    []string{"application/vnd.apple.mpegurl", "application/x-mpegurl"},
		CacheDuration:       30 * time.Minute,
		ManifestTimeout:     15 * time.Second,
		ManifestRateLimit:   5,
		WorkerThreads:       8,
		LowLatencySync:      3,
		MaxManifestVariants: 10,
	}
}

// validateAndSetDefaults fills in zero values with safe defaults so a partial
// config file never produces an unusable runtime configuration.
func validateAndSetDefaults(config *Config) {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8080"
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		log.Printf("Invalid baseURL %q, using default", config.BaseURL)
		config.BaseURL = "http://localhost:8080"
	}
	if config.ListenPort <= 0 || config.ListenPort > 65535 {
		config.ListenPort = 8080
	}
	if config.DatabasePath == "" {
		config.DatabasePath = "data/lakay.db"
	}
	if config.LogLevel == "" {
		config.LogLevel = "INFO"
	}
	if config.CacheDuration <= 0 {
		config.CacheDuration = 30 * time.Minute
	}
	if config.WorkerThreads <= 0 {
		config.WorkerThreads = 8
	}
	if config.ManifestTimeout <= 0 {
		config.ManifestTimeout = 15 * time.Second
	}
	if config.ManifestRateLimit <= 0 {
		config.ManifestRateLimit = 5
	}
	if len(config.SurfaceMimeTypes) == 0 {
		config.SurfaceMimeTypes = []string{"application/vnd.apple.mpegurl", "application/x-mpegurl"}
	}
	if config.LowLatencySync <= 0 {
		config.LowLatencySync = 3
	}
	if config.MaxManifestVariants <= 0 {
		config.MaxManifestVariants = 10
	}
	if config.UserAgent == "" {
		config.UserAgent = "LakayTV/1.0"
	}
}
