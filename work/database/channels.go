package database

import (
	"database/sql"
	"fmt"
	"time"

	"lakay-tv/work/types"

	"github.com/google/uuid"
)

// ChannelUpdate carries a partial channel edit. Nil fields are left untouched,
// mirroring the REST contract's PUT semantics.
type ChannelUpdate struct {
	Name        *string
	Logo        *string
	Stream      *string
	Category    *string
	Description *string
	IsActive    *bool
}

// Empty reports whether the update would change nothing.
func (u *ChannelUpdate) Empty() bool {
	return u.Name == nil && u.Logo == nil && u.Stream == nil &&
		u.Category == nil && u.Description == nil && u.IsActive == nil
}

// ListChannels loads channels ordered by creation time, which is the stable
// catalog order the filter engine preserves. When activeOnly is set, inactive
// channels are excluded at the query level.
func (db *DB) ListChannels(activeOnly bool) ([]*types.Channel, error) {
	query := `
		SELECT id, name, logo, stream, category, COALESCE(description, ''), is_active, created_at
		FROM channels
	`
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY created_at, id"

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to load channels: %w", err)
	}
	defer rows.Close()

	var channels []*types.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, ch)
	}

	return channels, rows.Err()
}

// GetChannel retrieves a channel by id. Returns (nil, nil) when no row exists.
func (db *DB) GetChannel(id string) (*types.Channel, error) {
	row := db.QueryRow(`
		SELECT id, name, logo, stream, category, COALESCE(description, ''), is_active, created_at
		FROM channels
		WHERE id = ?
	`, id)

	ch, err := scanChannel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	return ch, nil
}

// CreateChannel inserts a new channel record, generating its id, and returns
// the stored snapshot.
func (db *DB) CreateChannel(name, logo, stream, category, description string) (*types.Channel, error) {
	ch := &types.Channel{
		ID:          uuid.NewString(),
		Name:        name,
		Logo:        logo,
		Stream:      stream,
		Category:    category,
		Description: description,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if ch.Category == "" {
		ch.Category = "General"
	}

	_, err := db.Exec(`
		INSERT INTO channels (id, name, logo, stream, category, description, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
	`, ch.ID, ch.Name, ch.Logo, ch.Stream, ch.Category, ch.Description,
		ch.CreatedAt.Format(time.RFC3339Nano), ch.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	return ch, nil
}

// UpdateChannel applies a partial update and returns the updated snapshot.
// Returns (nil, nil) when the channel does not exist.
func (db *DB) UpdateChannel(id string, update *ChannelUpdate) (*types.Channel, error) {
	existing, err := db.GetChannel(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if update.Name != nil {
		existing.Name = *update.Name
	}
	if update.Logo != nil {
		existing.Logo = *update.Logo
	}
	if update.Stream != nil {
		existing.Stream = *update.Stream
	}
	if update.Category != nil {
		existing.Category = *update.Category
	}
	if update.Description != nil {
		existing.Description = *update.Description
	}
	if update.IsActive != nil {
		existing.IsActive = *update.IsActive
	}

	_, err = db.Exec(`
		UPDATE channels
		SET name = ?, logo = ?, stream = ?, category = ?, description = ?, is_active = ?,
		    updated_at = ?
		WHERE id = ?
	`, existing.Name, existing.Logo, existing.Stream, existing.Category, existing.Description,
		boolToInt(existing.IsActive), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update channel: %w", err)
	}

	return existing, nil
}

// DeleteChannel removes a channel and its favorite references. Returns false
// when no channel matched the id.
func (db *DB) DeleteChannel(id string) (bool, error) {
	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM favorites WHERE channel_id = ?", id); err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to delete favorite references: %w", err)
	}

	result, err := tx.Exec("DELETE FROM channels WHERE id = ?", id)
	if err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to delete channel: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}

	return affected > 0, nil
}

// CountChannels returns the total number of channel rows, active or not.
func (db *DB) CountChannels() (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM channels").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count channels: %w", err)
	}
	return count, nil
}

// ListCategories aggregates channel counts per category name, sorted by name.
func (db *DB) ListCategories() ([]types.Category, error) {
	rows, err := db.Query(`
		SELECT category, COUNT(*) as count
		FROM channels
		GROUP BY category
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	defer rows.Close()

	var categories []types.Category
	for rows.Next() {
		var cat types.Category
		if err := rows.Scan(&cat.Name, &cat.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	return categories, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows for shared channel scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanChannel(s scanner) (*types.Channel, error) {
	var ch types.Channel
	var active int
	var createdAt string

	err := s.Scan(&ch.ID, &ch.Name, &ch.Logo, &ch.Stream, &ch.Category,
		&ch.Description, &active, &createdAt)
	if err != nil {
		return nil, err
	}

	ch.IsActive = active != 0

	// Rows written by this service use RFC3339; rows created by the schema
	// default fall back to SQLite's datetime format.
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		ch.CreatedAt = ts
	} else if ts, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
		ch.CreatedAt = ts
	}

	return &ch, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
