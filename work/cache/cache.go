package cache

import (
	"time"

	"lakay-tv/work/types"

	"github.com/grafov/m3u8"
	"github.com/maypok86/otter/v2"
)

// Cache holds the service's hot read paths: the category aggregation served on
// every catalog screen, and parsed upstream manifests so restarting playback of
// the same channel does not refetch and reparse the playlist. Both stores
// expire on a write TTL; mutations to the channel table invalidate the
// category side wholesale.
type Cache struct {
	categories *otter.Cache[string, []types.Category]
	manifests  *otter.Cache[string, *ParsedManifest]
}

// ParsedManifest is the cached result of fetching and decoding a channel's
// manifest URL: either a master playlist with its variants or a single media
// playlist.
type ParsedManifest struct {
	Master   *m3u8.MasterPlaylist
	Media    *m3u8.MediaPlaylist
	IsMaster bool
	FetchedAt time.Time
}

const categoriesKey = "categories:all"

// New creates the cache stores with the given entry TTL.
func New(duration time.Duration) *Cache {
	return &Cache{
		categories: otter.Must(&otter.Options[string, []types.Category]{
			MaximumSize:      16,
			ExpiryCalculator: otter.ExpiryWriting[string, []types.Category](duration),
		}),
		manifests: otter.Must(&otter.Options[string, *ParsedManifest]{
			MaximumSize:      512,
			ExpiryCalculator: otter.ExpiryWriting[string, *ParsedManifest](duration),
		}),
	}
}

// GetCategories returns the cached category aggregation, if present and fresh.
func (c *Cache) GetCategories() ([]types.Category, bool) {
	return c.categories.GetIfPresent(categoriesKey)
}

// SetCategories stores the category aggregation.
func (c *Cache) SetCategories(cats []types.Category) {
	c.categories.Set(categoriesKey, cats)
}

// InvalidateCategories drops the category aggregation after any channel
// mutation, since counts are derived from the channel table.
func (c *Cache) InvalidateCategories() {
	c.categories.Invalidate(categoriesKey)
}

// GetManifest returns a cached parsed manifest for the given URL.
func (c *Cache) GetManifest(url string) (*ParsedManifest, bool) {
	return c.manifests.GetIfPresent(url)
}

// SetManifest stores a parsed manifest keyed by its URL.
func (c *Cache) SetManifest(url string, pm *ParsedManifest) {
	c.manifests.Set(url, pm)
}
