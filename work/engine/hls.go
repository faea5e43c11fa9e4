package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"lakay-tv/work/cache"
	"lakay-tv/work/client"
	"lakay-tv/work/config"
	"lakay-tv/work/logger"
	"lakay-tv/work/playback"
	"lakay-tv/work/utils"

	"github.com/grafov/m3u8"
	"go.uber.org/ratelimit"
)

// HLSEngine is the adaptive playback engine: it fetches a channel's manifest,
// parses it, selects a variant and attaches the resolved source to the
// surface, reporting progress as typed events. One engine instance serves
// exactly one playback session and is destroyed with it.
type HLSEngine struct {
	cfg        *config.Config
	logger     *logger.Logger
	httpClient *client.HeaderSettingClient
	limiter    ratelimit.Limiter
	manifests  *cache.Cache

	mu      sync.Mutex
	surface playback.Surface
	events  chan playback.Event
	cancel  context.CancelFunc
	closed  bool
}

// NewFactory returns an EngineFactory producing HLS engines that share the
// HTTP client, rate limiter and manifest cache but own their event stream.
func NewFactory(cfg *config.Config, log *logger.Logger, httpClient *client.HeaderSettingClient, limiter ratelimit.Limiter, manifests *cache.Cache) playback.EngineFactory {
	return func() playback.Engine {
		return &HLSEngine{
			cfg:        cfg,
			logger:     log,
			httpClient: httpClient,
			limiter:    limiter,
			manifests:  manifests,
			events:     make(chan playback.Event, 8),
		}
	}
}

// Attach binds the engine to the surface it feeds.
func (e *HLSEngine) Attach(surface playback.Surface) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface = surface
}

// Events delivers the engine's notifications. Closed by Destroy.
func (e *HLSEngine) Events() <-chan playback.Event {
	return e.events
}

// Load starts the asynchronous manifest fetch and parse. Completion or
// failure arrives on Events; cancellation of ctx (or Destroy) abandons the
// load without emitting anything.
func (e *HLSEngine) Load(ctx context.Context, manifestURL string) {
	e.mu.Lock()
	loadCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()

	go e.load(loadCtx, manifestURL)
}

// Destroy releases the engine: cancels any in-flight load and closes the
// event stream. Safe to call repeatedly.
func (e *HLSEngine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.cancel != nil {
		e.cancel()
	}
	close(e.events)
}

// emit delivers an event unless the engine was destroyed. A full buffer
// drops the event rather than blocking the loader.
func (e *HLSEngine) emit(ev playback.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
		e.logger.Warn("[ENGINE] Event buffer full, dropping %s", ev.Kind)
	}
}

func (e *HLSEngine) fatal(format string, args ...interface{}) {
	e.emit(playback.Event{Kind: playback.EventFatalError, Reason: fmt.Sprintf(format, args...)})
}

func (e *HLSEngine) load(ctx context.Context, manifestURL string) {
	parsed, err := e.fetchManifest(ctx, manifestURL)
	if err != nil {
		if ctx.Err() != nil {
			// Session torn down mid-load, nothing to report
			return
		}
		e.fatal("manifest load: %v", err)
		return
	}

	sourceURL := manifestURL
	if parsed.IsMaster {
		sourceURL, err = e.selectVariant(parsed.Master, manifestURL)
		if err != nil {
			e.fatal("variant selection: %v", err)
			return
		}
	} else if parsed.Media != nil {
		// Tune to the live edge: with N segments of sync distance, the
		// engine starts this close behind the newest segment
		e.logger.Debug("[ENGINE] Media playlist, target duration %.1fs, live sync %d segments",
			parsed.Media.TargetDuration, e.cfg.LowLatencySync)
	}

	e.mu.Lock()
	surface := e.surface
	e.mu.Unlock()
	if surface == nil {
		e.fatal("engine not attached to a surface")
		return
	}

	if ctx.Err() != nil {
		return
	}

	surface.SetSource(sourceURL)
	e.logger.Info("[ENGINE] Manifest parsed, source attached: %s", utils.LogURL(e.cfg, sourceURL))
	e.emit(playback.Event{Kind: playback.EventManifestParsed})
}

// fetchManifest returns the parsed manifest for a URL, from cache when fresh.
func (e *HLSEngine) fetchManifest(ctx context.Context, manifestURL string) (*cache.ParsedManifest, error) {
	if e.manifests != nil {
		if cached, ok := e.manifests.GetManifest(manifestURL); ok {
			e.logger.Debug("[ENGINE] Manifest cache hit: %s", utils.LogURL(e.cfg, manifestURL))
			return cached, nil
		}
	}

	// Pace upstream fetches across all sessions
	e.limiter.Take()

	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.ManifestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", utils.LogURL(e.cfg, manifestURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, utils.LogURL(e.cfg, manifestURL))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("reading manifest body: %w", err)
	}

	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(body), true)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	parsed := &cache.ParsedManifest{FetchedAt: time.Now()}
	switch listType {
	case m3u8.MASTER:
		parsed.Master = playlist.(*m3u8.MasterPlaylist)
		parsed.IsMaster = true
	case m3u8.MEDIA:
		parsed.Media = playlist.(*m3u8.MediaPlaylist)
	default:
		return nil, fmt.Errorf("unrecognized playlist type")
	}

	if e.manifests != nil {
		e.manifests.SetManifest(manifestURL, parsed)
	}

	return parsed, nil
}

// selectVariant picks the highest-bandwidth variant from a master playlist,
// resolving relative URIs against the manifest location. Variants that fail
// to resolve are skipped with a non-fatal report; an empty master playlist is
// fatal.
func (e *HLSEngine) selectVariant(master *m3u8.MasterPlaylist, manifestURL string) (string, error) {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return "", fmt.Errorf("parsing manifest URL: %w", err)
	}

	variants := make([]*m3u8.Variant, 0, len(master.Variants))
	for _, v := range master.Variants {
		if v != nil && v.URI != "" {
			variants = append(variants, v)
		}
	}
	if len(variants) == 0 {
		return "", fmt.Errorf("no variants in master playlist")
	}

	// Highest quality first
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Bandwidth > variants[j].Bandwidth
	})
	if len(variants) > e.cfg.MaxManifestVariants {
		variants = variants[:e.cfg.MaxManifestVariants]
	}

	for _, v := range variants {
		ref, err := url.Parse(v.URI)
		if err != nil {
			e.emit(playback.Event{
				Kind:   playback.EventNonFatalError,
				Reason: fmt.Sprintf("skipping malformed variant URI %q", v.URI),
			})
			continue
		}
		resolved := base.ResolveReference(ref).String()
		e.logger.Debug("[ENGINE] Selected variant %s (%d kbps)", v.Resolution, v.Bandwidth/1000)
		return resolved, nil
	}

	return "", fmt.Errorf("no usable variant in master playlist")
}
