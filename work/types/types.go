package types

import (
	"time"
)

// Channel represents a single live TV channel in the catalog. The client-facing
// JSON shape mirrors the REST contract exactly: an opaque uuid identifier, display
// metadata, and the adaptive-stream manifest URL that the playback layer consumes.
//
// Channel records are owned by the store. Everything above the database layer
// treats a loaded Channel as an immutable snapshot; edits go through the CRUD
// operations and callers re-fetch rather than patching copies in place.
type Channel struct {
	ID          string    `json:"id"`                    // Opaque channel identifier (uuid)
	Name        string    `json:"name"`                  // Display name shown in the catalog
	Logo        string    `json:"logo"`                  // Channel logo URL
	Stream      string    `json:"stream"`                // Adaptive-stream manifest URL (m3u8)
	Category    string    `json:"category"`              // Category name, e.g. "News" or "Music"
	Description string    `json:"description,omitempty"` // Optional longer description
	IsActive    bool      `json:"is_active"`             // Inactive channels are hidden by default
	CreatedAt   time.Time `json:"created_at"`
}

// Category is a read-only aggregation over the channel table: one entry per
// distinct category name with the number of channels carrying it.
type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UserFavorites holds the favorite channel ids for one ephemeral user identity.
// The user id is generated client-side; there is no authentication tied to it.
// ChannelIDs behaves as a set: an id appears at most once.
type UserFavorites struct {
	UserID     string    `json:"user_id"`
	ChannelIDs []string  `json:"channel_ids"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Contains reports whether the given channel id is in the favorite set.
func (f *UserFavorites) Contains(channelID string) bool {
	for _, id := range f.ChannelIDs {
		if id == channelID {
			return true
		}
	}
	return false
}

// IDSet returns the favorite ids as a set for membership checks during filtering.
func (f *UserFavorites) IDSet() map[string]struct{} {
	set := make(map[string]struct{}, len(f.ChannelIDs))
	for _, id := range f.ChannelIDs {
		set[id] = struct{}{}
	}
	return set
}
