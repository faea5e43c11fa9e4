package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lakay-tv/work/cache"
	"lakay-tv/work/client"
	"lakay-tv/work/config"
	"lakay-tv/work/logger"
	"lakay-tv/work/playback"

	"go.uber.org/ratelimit"
)

const masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=800000,RESOLUTION=640x360
low/index.m3u8
#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=2500000,RESOLUTION=1280x720
hd/index.m3u8
`

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXT-X-MEDIA-SEQUENCE:100
#EXTINF:6.0,
seg100.ts
#EXTINF:6.0,
seg101.ts
#EXT-X-ENDLIST
`

// recordingSurface is the minimal playback.Surface an engine touches.
type recordingSurface struct {
	mu     sync.Mutex
	source string
}

func (s *recordingSurface) SupportsAdaptive() bool          { return true }
func (s *recordingSurface) CanPlayType(string) bool         { return false }
func (s *recordingSurface) SetSource(url string)            { s.mu.Lock(); defer s.mu.Unlock(); s.source = url }
func (s *recordingSurface) ClearSource()                    { s.mu.Lock(); defer s.mu.Unlock(); s.source = "" }
func (s *recordingSurface) Play(ctx context.Context) error  { return nil }
func (s *recordingSurface) SetMuted(bool)                   {}
func (s *recordingSurface) SetVolume(float64)               {}
func (s *recordingSurface) EnterFullscreen() error          { return nil }
func (s *recordingSurface) ExitFullscreen()                 {}

func (s *recordingSurface) currentSource() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

func testConfig() *config.Config {
	return &config.Config{
		ManifestTimeout:     5 * time.Second,
		MaxManifestVariants: 10,
		LowLatencySync:      3,
		UserAgent:           "test",
	}
}

func newTestEngine(t *testing.T, manifests *cache.Cache) (playback.Engine, *recordingSurface) {
	t.Helper()
	cfg := testConfig()
	factory := NewFactory(cfg, logger.New("ERROR"), client.NewHeaderSettingClient(cfg), ratelimit.NewUnlimited(), manifests)
	eng := factory()
	surface := &recordingSurface{}
	eng.Attach(surface)
	return eng, surface
}

func nextEvent(t *testing.T, eng playback.Engine) playback.Event {
	t.Helper()
	select {
	case ev, ok := <-eng.Events():
		if !ok {
			t.Fatal("event channel closed before an event arrived")
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for engine event")
	}
	return playback.Event{}
}

func TestLoad_masterPlaylistSelectsHighestBandwidth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		w.Write([]byte(masterPlaylist))
	}))
	defer server.Close()

	eng, surface := newTestEngine(t, nil)
	defer eng.Destroy()

	eng.Load(context.Background(), server.URL+"/master.m3u8")

	ev := nextEvent(t, eng)
	if ev.Kind != playback.EventManifestParsed {
		t.Fatalf("event = %s (%s), want manifest_parsed", ev.Kind, ev.Reason)
	}
	if got := surface.currentSource(); !strings.HasSuffix(got, "/hd/index.m3u8") {
		t.Errorf("source = %q, want the 2500k variant resolved against the manifest URL", got)
	}
}

func TestLoad_mediaPlaylistAttachesDirectly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mediaPlaylist))
	}))
	defer server.Close()

	eng, surface := newTestEngine(t, nil)
	defer eng.Destroy()

	manifestURL := server.URL + "/live/mono.m3u8"
	eng.Load(context.Background(), manifestURL)

	ev := nextEvent(t, eng)
	if ev.Kind != playback.EventManifestParsed {
		t.Fatalf("event = %s (%s), want manifest_parsed", ev.Kind, ev.Reason)
	}
	if got := surface.currentSource(); got != manifestURL {
		t.Errorf("source = %q, want the media playlist URL itself", got)
	}
}

func TestLoad_httpErrorIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	eng, _ := newTestEngine(t, nil)
	defer eng.Destroy()

	eng.Load(context.Background(), server.URL+"/missing.m3u8")

	ev := nextEvent(t, eng)
	if ev.Kind != playback.EventFatalError {
		t.Fatalf("event = %s, want fatal_error", ev.Kind)
	}
	if !strings.Contains(ev.Reason, "404") {
		t.Errorf("reason %q should name the HTTP status", ev.Reason)
	}
}

func TestLoad_garbageManifestIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not a playlist</html>"))
	}))
	defer server.Close()

	eng, _ := newTestEngine(t, nil)
	defer eng.Destroy()

	eng.Load(context.Background(), server.URL+"/index.m3u8")

	ev := nextEvent(t, eng)
	if ev.Kind != playback.EventFatalError {
		t.Fatalf("event = %s, want fatal_error", ev.Kind)
	}
}

func TestLoad_servesFromManifestCache(t *testing.T) {
	var hits int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Write([]byte(mediaPlaylist))
	}))
	defer server.Close()

	manifests := cache.New(time.Minute)
	manifestURL := server.URL + "/live/mono.m3u8"

	first, _ := newTestEngine(t, manifests)
	first.Load(context.Background(), manifestURL)
	if ev := nextEvent(t, first); ev.Kind != playback.EventManifestParsed {
		t.Fatalf("first load event = %s", ev.Kind)
	}
	first.Destroy()

	second, _ := newTestEngine(t, manifests)
	second.Load(context.Background(), manifestURL)
	if ev := nextEvent(t, second); ev.Kind != playback.EventManifestParsed {
		t.Fatalf("second load event = %s", ev.Kind)
	}
	second.Destroy()

	mu.Lock()
	defer mu.Unlock()
	if hits != 1 {
		t.Errorf("upstream fetched %d times, want 1 (second load should hit the cache)", hits)
	}
}

func TestDestroy_closesEventsAndIsIdempotent(t *testing.T) {
	eng, _ := newTestEngine(t, nil)
	eng.Destroy()
	eng.Destroy()

	if _, ok := <-eng.Events(); ok {
		t.Error("events channel must be closed after Destroy")
	}
}
