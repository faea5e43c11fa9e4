package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SessionsStarted counts playback sessions started per channel, regardless of
// whether they eventually reach the playing state. This metric is a counter
// and only increases.
var SessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lakay_playback_sessions_started",
	Help: "Number of playback sessions started",
}, []string{"channel"})

// PlaybackErrors counts terminal playback failures per channel. The
// "error_type" label distinguishes unsupported surfaces from fatal engine
// errors reported mid-session.
var PlaybackErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lakay_playback_errors",
	Help: "Number of fatal playback errors",
}, []string{"channel", "error_type"})

// SessionActive reports whether a playback session is currently live (1) or
// the player is idle (0). A gauge, since it moves both ways.
var SessionActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "lakay_playback_session_active",
	Help: "Whether a playback session is currently active",
})

// CatalogQueries counts catalog listing requests by filter mode, giving a
// view of how clients actually browse (all vs. favorites).
var CatalogQueries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lakay_catalog_queries",
	Help: "Number of catalog listing queries",
}, []string{"mode"})

// FavoriteToggles counts favorite toggle operations, labelled with the
// direction of the flip.
var FavoriteToggles = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lakay_favorite_toggles",
	Help: "Number of favorite toggle operations",
}, []string{"action"})
