package database

import (
	"fmt"
	"time"

	"lakay-tv/work/types"
)

// GetFavorites loads the favorite channel ids for a user, in the order they
// were added. A user with no rows gets an empty set, not an error; fetch
// failures are returned as errors so callers can tell "no favorites" apart
// from "favorites unknown".
func (db *DB) GetFavorites(userID string) (*types.UserFavorites, error) {
	rows, err := db.Query(`
		SELECT channel_id, created_at
		FROM favorites
		WHERE user_id = ?
		ORDER BY created_at, channel_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	defer rows.Close()

	fav := &types.UserFavorites{
		UserID:     userID,
		ChannelIDs: []string{},
	}

	var latest string
	for rows.Next() {
		var channelID, createdAt string
		if err := rows.Scan(&channelID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		fav.ChannelIDs = append(fav.ChannelIDs, channelID)
		if createdAt > latest {
			latest = createdAt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}

	if ts, err := time.Parse(time.RFC3339Nano, latest); err == nil {
		fav.UpdatedAt = ts
	}

	return fav, nil
}

// ToggleFavorite flips the membership of one channel in a user's favorite set
// and reports the direction of the flip ("added" or "removed"). Exactly one
// membership changes per call, so applying it twice restores the original set.
func (db *DB) ToggleFavorite(userID, channelID string) (string, error) {
	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}

	var exists bool
	err = tx.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = ? AND channel_id = ?)",
		userID, channelID,
	).Scan(&exists)
	if err != nil {
		tx.Rollback()
		return "", fmt.Errorf("failed to check favorite: %w", err)
	}

	action := "added"
	if exists {
		action = "removed"
		_, err = tx.Exec("DELETE FROM favorites WHERE user_id = ? AND channel_id = ?", userID, channelID)
	} else {
		_, err = tx.Exec(
			"INSERT INTO favorites (user_id, channel_id, created_at) VALUES (?, ?, ?)",
			userID, channelID, time.Now().UTC().Format(time.RFC3339Nano),
		)
	}
	if err != nil {
		tx.Rollback()
		return "", fmt.Errorf("failed to toggle favorite: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit toggle: %w", err)
	}

	return action, nil
}

// ReplaceFavorites overwrites a user's favorite set wholesale, matching the
// PUT semantics of the REST contract. The replacement is atomic: readers see
// either the old set or the new one, never a partial mix.
func (db *DB) ReplaceFavorites(userID string, channelIDs []string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM favorites WHERE user_id = ?", userID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear favorites: %w", err)
	}

	now := time.Now().UTC()
	seen := make(map[string]struct{}, len(channelIDs))
	for i, channelID := range channelIDs {
		// Ids behave as a set: drop duplicates from the incoming list
		if _, dup := seen[channelID]; dup {
			continue
		}
		seen[channelID] = struct{}{}

		// Offset timestamps to preserve list order on read-back
		_, err := tx.Exec(
			"INSERT INTO favorites (user_id, channel_id, created_at) VALUES (?, ?, ?)",
			userID, channelID, now.Add(time.Duration(i)*time.Microsecond).Format(time.RFC3339Nano),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert favorite: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}

	return nil
}
