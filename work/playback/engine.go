package playback

import (
	"context"
	"strings"
)

// EventKind classifies the notifications an adaptive engine delivers to the
// session manager.
type EventKind int

const (
	EventManifestParsed EventKind = iota // Manifest fetched and parsed, source attached, playback may begin
	EventFatalError                      // Unrecoverable failure, terminal for the session
	EventNonFatalError                   // Transient problem, logged only, no state transition
)

func (k EventKind) String() string {
	switch k {
	case EventManifestParsed:
		return "manifest_parsed"
	case EventFatalError:
		return "fatal_error"
	case EventNonFatalError:
		return "non_fatal_error"
	default:
		return "unknown"
	}
}

// Event is one typed engine notification. Reason carries the human-readable
// failure description for the error kinds and is empty for ManifestParsed.
type Event struct {
	Kind   EventKind
	Reason string
}

// Surface is the single media surface the session manager drives. Exactly one
// session at a time owns it; the manager serializes all mutation.
type Surface interface {
	// SupportsAdaptive reports whether an adaptive engine can attach to this
	// surface.
	SupportsAdaptive() bool

	// CanPlayType reports whether the surface can natively play media of the
	// given MIME type without an adaptive engine in front of it.
	CanPlayType(mime string) bool

	// SetSource assigns the URL the surface renders from.
	SetSource(url string)

	// ClearSource detaches the surface from its current source.
	ClearSource()

	// Play begins playback of the current source. On the native path this
	// blocks until metadata has loaded and playback actually started, or the
	// context is cancelled; on the adaptive path the engine has already
	// prepared the source and Play returns quickly.
	Play(ctx context.Context) error

	SetMuted(muted bool)
	SetVolume(volume float64)
	EnterFullscreen() error
	ExitFullscreen()
}

// Engine is one adaptive-bitrate playback engine instance. An engine is
// exclusively owned by a single playback session: it is constructed at session
// start and destroyed on every terminal transition, never shared or reused.
type Engine interface {
	// Attach binds the engine to the surface it will feed.
	Attach(surface Surface)

	// Load fetches and parses the manifest asynchronously. Completion and
	// failure are reported on Events; Load itself returns immediately.
	Load(ctx context.Context, manifestURL string)

	// Events delivers the engine's typed notifications. The channel is closed
	// by Destroy.
	Events() <-chan Event

	// Destroy releases the engine's resources and closes Events. Safe to call
	// more than once.
	Destroy()
}

// EngineFactory constructs a fresh engine instance for one session. A nil
// factory means the adaptive capability has not finished loading (or is not
// available at all), which blocks the adaptive playback path.
type EngineFactory func() Engine

// ManifestMIME guesses the media type of a manifest URL, used for the native
// playback capability check when no adaptive engine is available.
func ManifestMIME(url string) string {
	trimmed := url
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	switch {
	case strings.HasSuffix(trimmed, ".m3u8"), strings.HasSuffix(trimmed, ".m3u"):
		return "application/vnd.apple.mpegurl"
	case strings.HasSuffix(trimmed, ".mpd"):
		return "application/dash+xml"
	case strings.HasSuffix(trimmed, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(trimmed, ".ts"):
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}
