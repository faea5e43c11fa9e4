package surface

import (
	"context"
	"errors"
	"strings"
	"sync"

	"lakay-tv/work/config"
	"lakay-tv/work/logger"
)

// MediaSurface is the software implementation of the playback surface
// boundary: it models the device's media renderer with capabilities taken
// from configuration and holds the control-surface state (source, mute,
// volume, fullscreen) the session manager drives. Actual rendering happens
// outside this process; the surface is the contract the player hardware or
// embedding application fulfills.
type MediaSurface struct {
	mu         sync.Mutex
	logger     *logger.Logger
	adaptive   bool
	mimeTypes  map[string]bool
	source     string
	muted      bool
	volume     float64
	fullscreen bool
	playing    bool
}

// ErrNoSource is returned by Play when no source has been assigned.
var ErrNoSource = errors.New("no source assigned to surface")

// New builds a surface with the capability flags from config.
func New(cfg *config.Config, log *logger.Logger) *MediaSurface {
	mimes := make(map[string]bool, len(cfg.SurfaceMimeTypes))
	for _, m := range cfg.SurfaceMimeTypes {
		mimes[strings.ToLower(m)] = true
	}
	return &MediaSurface{
		logger:    log,
		adaptive:  cfg.SurfaceAdaptive,
		mimeTypes: mimes,
		volume:    1.0,
	}
}

func (s *MediaSurface) SupportsAdaptive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adaptive
}

func (s *MediaSurface) CanPlayType(mime string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mimeTypes[strings.ToLower(mime)]
}

func (s *MediaSurface) SetSource(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = url
	s.playing = false
}

func (s *MediaSurface) ClearSource() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = ""
	s.playing = false
}

// Play begins playback of the assigned source. Fails when nothing is
// assigned or the context was cancelled before playback could begin.
func (s *MediaSurface) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == "" {
		return ErrNoSource
	}
	s.playing = true
	s.logger.Debug("[SURFACE] Playback started")
	return nil
}

func (s *MediaSurface) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
}

func (s *MediaSurface) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
}

func (s *MediaSurface) EnterFullscreen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullscreen = true
	return nil
}

func (s *MediaSurface) ExitFullscreen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullscreen = false
}

// Snapshot reports the surface state for diagnostics.
func (s *MediaSurface) Snapshot() (source string, playing, muted, fullscreen bool, volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source, s.playing, s.muted, s.fullscreen, s.volume
}
