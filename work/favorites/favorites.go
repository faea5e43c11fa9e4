package favorites

import (
	"fmt"

	"lakay-tv/work/database"
	"lakay-tv/work/logger"
	"lakay-tv/work/metrics"
	"lakay-tv/work/types"

	"github.com/puzpuzpuz/xsync/v3"
)

// Store serves per-user favorite sets, keeping a concurrent snapshot cache in
// front of the database. Every mutation writes through to the database and
// then replaces the cached snapshot wholesale, so readers never observe a
// partially updated set.
//
// A failed load is reported as an error, never as an empty set: callers can
// always tell "user has no favorites" apart from "favorites unknown".
type Store struct {
	db     *database.DB
	logger *logger.Logger
	cache  *xsync.MapOf[string, *types.UserFavorites]
}

// NewStore creates a favorites store backed by the given database.
func NewStore(db *database.DB, log *logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log,
		cache:  xsync.NewMapOf[string, *types.UserFavorites](),
	}
}

// Get returns the favorite set for a user. First reads per user hit the
// database and populate the cache; a user with no rows gets an empty set.
func (s *Store) Get(userID string) (*types.UserFavorites, error) {
	if fav, ok := s.cache.Load(userID); ok {
		return fav, nil
	}

	fav, err := s.db.GetFavorites(userID)
	if err != nil {
		return nil, fmt.Errorf("favorites for user %s: %w", userID, err)
	}

	s.cache.Store(userID, fav)
	return fav, nil
}

// Toggle flips membership of one channel in the user's favorite set and
// returns the action taken plus the resulting snapshot. Exactly one
// membership changes per call.
func (s *Store) Toggle(userID, channelID string) (string, *types.UserFavorites, error) {
	action, err := s.db.ToggleFavorite(userID, channelID)
	if err != nil {
		return "", nil, fmt.Errorf("toggle favorite %s for user %s: %w", channelID, userID, err)
	}

	// Re-read so the cached snapshot always mirrors the database
	fav, err := s.db.GetFavorites(userID)
	if err != nil {
		// The toggle committed; drop the stale snapshot rather than keep it
		s.cache.Delete(userID)
		return "", nil, fmt.Errorf("reload favorites for user %s: %w", userID, err)
	}
	s.cache.Store(userID, fav)

	metrics.FavoriteToggles.WithLabelValues(action).Inc()
	s.logger.Debug("[FAVORITES] User %s: channel %s %s, set size now %d",
		userID, channelID, action, len(fav.ChannelIDs))

	return action, fav, nil
}

// Replace overwrites the user's favorite set wholesale and returns the new
// snapshot.
func (s *Store) Replace(userID string, channelIDs []string) (*types.UserFavorites, error) {
	if err := s.db.ReplaceFavorites(userID, channelIDs); err != nil {
		return nil, fmt.Errorf("replace favorites for user %s: %w", userID, err)
	}

	fav, err := s.db.GetFavorites(userID)
	if err != nil {
		s.cache.Delete(userID)
		return nil, fmt.Errorf("reload favorites for user %s: %w", userID, err)
	}
	s.cache.Store(userID, fav)

	return fav, nil
}

// Invalidate drops the cached snapshot for a user, forcing the next Get to
// hit the database.
func (s *Store) Invalidate(userID string) {
	s.cache.Delete(userID)
}
