package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"lakay-tv/work/logger"
	"lakay-tv/work/metrics"
	"lakay-tv/work/types"

	"github.com/panjf2000/ants/v2"
)

// State is the lifecycle state of the playback session.
type State int

const (
	StateIdle     State = iota // No session
	StateStarting              // Session created, waiting for manifest/metadata
	StatePlaying               // Playback running
	StateError                 // Terminal failure, awaiting explicit restart
	StateStopped               // Explicitly stopped, awaiting restart
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StatePlaying:
		return "playing"
	case StateError:
		return "error"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

var (
	// ErrNoSurface is returned by Start when no media surface is attached.
	ErrNoSurface = errors.New("no media surface available")

	// ErrUnsupported is returned by Start when neither the adaptive engine
	// nor native playback can handle the channel's manifest.
	ErrUnsupported = errors.New("no supported playback path for channel")
)

// session is the state of one playback attempt. The engine handle, when
// present, is exclusively owned by this session and released on every
// terminal transition.
type session struct {
	generation   int64
	channel      *types.Channel
	engine       Engine
	cancel       context.CancelFunc
	state        State
	isMuted      bool
	volume       float64
	isFullscreen bool
}

// Status is the externally visible snapshot of the playback session.
type Status struct {
	State        string         `json:"state"`
	Channel      *types.Channel `json:"channel,omitempty"`
	IsMuted      bool           `json:"is_muted"`
	Volume       float64        `json:"volume"`
	IsFullscreen bool           `json:"is_fullscreen"`
	LastError    string         `json:"last_error,omitempty"`
}

// Manager owns the lifecycle of at most one playback session bound to one
// media surface. All mutation runs under a single mutex; the asynchronous
// parts (manifest load, native metadata wait) run on the worker pool and
// re-enter through generation-guarded event handlers, so completions from a
// torn-down session are ignored.
type Manager struct {
	mu         sync.Mutex
	logger     *logger.Logger
	surface    Surface
	newEngine  EngineFactory
	pool       *ants.Pool
	session    *session
	generation int64
	lastError  string
}

// NewManager creates a session manager for the given surface. A nil engine
// factory disables the adaptive path, leaving only native playback.
func NewManager(surface Surface, newEngine EngineFactory, pool *ants.Pool, log *logger.Logger) *Manager {
	return &Manager{
		logger:    log,
		surface:   surface,
		newEngine: newEngine,
		pool:      pool,
	}
}

// Start begins playback of the given channel. Any prior session is torn down
// synchronously before the new engine is constructed, so no two engine
// instances are ever attached to the surface at once, even transiently.
//
// The session is observably Starting when Start returns; it moves to Playing
// once the manifest is parsed (adaptive) or metadata has loaded (native), and
// to Error on any terminal failure.
func (m *Manager) Start(channel *types.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.surface == nil {
		return ErrNoSurface
	}

	// Tear down the prior session before anything new is constructed
	m.teardownLocked()

	m.generation++
	gen := m.generation
	ctx, cancel := context.WithCancel(context.Background())

	m.session = &session{
		generation: gen,
		channel:    channel,
		cancel:     cancel,
		state:      StateStarting,
		volume:     1.0,
	}
	m.lastError = ""
	metrics.SessionsStarted.WithLabelValues(channel.Name).Inc()

	switch {
	case m.surface.SupportsAdaptive() && m.newEngine != nil:
		engine := m.newEngine()
		engine.Attach(m.surface)
		m.session.engine = engine

		m.logger.Info("[PLAYBACK] Channel %s: starting adaptive session (generation %d)", channel.Name, gen)
		engine.Load(ctx, channel.Stream)
		m.submit(func() { m.consumeEvents(ctx, gen, engine, channel) })

	case m.surface.CanPlayType(ManifestMIME(channel.Stream)):
		m.logger.Info("[PLAYBACK] Channel %s: starting native session (generation %d)", channel.Name, gen)
		m.surface.SetSource(channel.Stream)
		m.submit(func() {
			err := m.surface.Play(ctx)
			m.handleNativeResult(gen, channel, err)
		})

	default:
		// No playback path: terminal immediately, no partial state left behind
		m.session.cancel()
		m.session.state = StateError
		m.lastError = fmt.Sprintf("no supported playback path for channel %s", channel.Name)
		m.logger.Error("[PLAYBACK] Channel %s: %v", channel.Name, ErrUnsupported)
		metrics.PlaybackErrors.WithLabelValues(channel.Name, "unsupported").Inc()
		return ErrUnsupported
	}

	return nil
}

// Stop tears down the current session: the engine is destroyed explicitly,
// the surface detached, the displayed channel cleared and fullscreen exited.
// Calling Stop with no session is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return
	}

	name := m.session.channel.Name
	m.teardownLocked()
	m.logger.Info("[PLAYBACK] Channel %s: session stopped", name)
}

// ToggleMute flips the mute flag and propagates it to the surface. Silently a
// no-op when no session is active.
func (m *Manager) ToggleMute() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return
	}
	m.session.isMuted = !m.session.isMuted
	m.surface.SetMuted(m.session.isMuted)
}

// SetVolume sets the session volume, clamped to [0,1], and propagates it to
// the surface. Silently a no-op when no session is active.
func (m *Manager) SetVolume(volume float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return
	}
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}
	m.session.volume = volume
	m.surface.SetVolume(volume)
}

// ToggleFullscreen enters or exits fullscreen on the surface. Silently a
// no-op when no session is active; a failed fullscreen request leaves the
// flag unchanged.
func (m *Manager) ToggleFullscreen() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return
	}
	if m.session.isFullscreen {
		m.surface.ExitFullscreen()
		m.session.isFullscreen = false
		return
	}
	if err := m.surface.EnterFullscreen(); err != nil {
		m.logger.Warn("[PLAYBACK] Fullscreen request failed: %v", err)
		return
	}
	m.session.isFullscreen = true
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return StateIdle
	}
	return m.session.state
}

// Status returns a snapshot of the session for the control API.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		State:     StateIdle.String(),
		LastError: m.lastError,
		Volume:    1.0,
	}
	if m.session != nil {
		st.State = m.session.state.String()
		st.Channel = m.session.channel
		st.IsMuted = m.session.isMuted
		st.Volume = m.session.volume
		st.IsFullscreen = m.session.isFullscreen
	}
	return st
}

// activeLocked reports whether a session currently owns the surface. Sessions
// in terminal states no longer do.
func (m *Manager) activeLocked() bool {
	return m.session != nil &&
		(m.session.state == StateStarting || m.session.state == StatePlaying)
}

// teardownLocked releases everything the current session owns: cancels
// in-flight work, destroys the engine, detaches the surface and exits
// fullscreen. Safe to call with no session.
func (m *Manager) teardownLocked() {
	if m.session == nil {
		return
	}

	m.session.cancel()
	if m.session.engine != nil {
		m.session.engine.Destroy()
		m.session.engine = nil
	}
	if m.session.isFullscreen {
		m.surface.ExitFullscreen()
	}
	m.surface.ClearSource()
	m.session = nil
	metrics.SessionActive.Set(0)
}

// failLocked moves the session to the terminal Error state: the engine is
// released, the surface detached, and the failure surfaced naming the
// channel. The session struct stays so Status reports the failed channel
// until the caller explicitly stops or restarts.
func (m *Manager) failLocked(channel *types.Channel, reason, errorType string) {
	m.session.cancel()
	if m.session.engine != nil {
		m.session.engine.Destroy()
		m.session.engine = nil
	}
	if m.session.isFullscreen {
		m.surface.ExitFullscreen()
		m.session.isFullscreen = false
	}
	m.surface.ClearSource()

	m.session.state = StateError
	m.lastError = fmt.Sprintf("playback failed for channel %s: %s", channel.Name, reason)
	m.logger.Error("[PLAYBACK] Channel %s: fatal error: %s", channel.Name, reason)
	metrics.PlaybackErrors.WithLabelValues(channel.Name, errorType).Inc()
	metrics.SessionActive.Set(0)
}

// consumeEvents drains the engine's event channel for one session. Every
// event re-checks the session generation under the lock, so events that
// arrive after teardown are dropped.
func (m *Manager) consumeEvents(ctx context.Context, gen int64, engine Engine, channel *types.Channel) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-engine.Events():
			if !ok {
				return
			}
			m.handleEngineEvent(gen, channel, ev)
		}
	}
}

func (m *Manager) handleEngineEvent(gen int64, channel *types.Channel, ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Stale-completion guard: the event belongs to a torn-down session
	if m.session == nil || m.session.generation != gen {
		m.logger.Debug("[PLAYBACK] Channel %s: ignoring stale %s event (generation %d)",
			channel.Name, ev.Kind, gen)
		return
	}

	switch ev.Kind {
	case EventManifestParsed:
		if m.session.state != StateStarting {
			return
		}
		if err := m.surface.Play(context.Background()); err != nil {
			m.failLocked(channel, fmt.Sprintf("playback start failed: %v", err), "play")
			return
		}
		m.session.state = StatePlaying
		m.surface.SetMuted(m.session.isMuted)
		m.surface.SetVolume(m.session.volume)
		metrics.SessionActive.Set(1)
		m.logger.Info("[PLAYBACK] Channel %s: playing", channel.Name)

	case EventFatalError:
		m.failLocked(channel, ev.Reason, "fatal_stream")

	case EventNonFatalError:
		// Logged only, no state transition and no user-visible interruption
		m.logger.Warn("[PLAYBACK] Channel %s: non-fatal engine error: %s", channel.Name, ev.Reason)
	}
}

// handleNativeResult finishes the native playback path: Play blocked until
// metadata loaded, so a nil error means playback began.
func (m *Manager) handleNativeResult(gen int64, channel *types.Channel, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil || m.session.generation != gen {
		m.logger.Debug("[PLAYBACK] Channel %s: ignoring stale native completion (generation %d)",
			channel.Name, gen)
		return
	}
	if m.session.state != StateStarting {
		return
	}

	if err != nil {
		m.failLocked(channel, fmt.Sprintf("native playback failed: %v", err), "native")
		return
	}

	m.session.state = StatePlaying
	m.surface.SetMuted(m.session.isMuted)
	m.surface.SetVolume(m.session.volume)
	metrics.SessionActive.Set(1)
	m.logger.Info("[PLAYBACK] Channel %s: playing (native)", channel.Name)
}

// submit runs fn on the worker pool, falling back to a plain goroutine when
// the pool is saturated or absent so session completions are never lost.
func (m *Manager) submit(fn func()) {
	if m.pool != nil {
		if err := m.pool.Submit(fn); err == nil {
			return
		}
	}
	go fn()
}
