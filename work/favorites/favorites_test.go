package favorites

import (
	"testing"

	"lakay-tv/work/database"
	"lakay-tv/work/logger"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.Open(":memory:", logger.New("ERROR"))
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewStore(db, logger.New("ERROR"))
}

func TestToggle_idempotentPair(t *testing.T) {
	store := setupStore(t)

	before, err := store.Get("user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(before.ChannelIDs) != 0 {
		t.Fatalf("expected empty initial set, got %v", before.ChannelIDs)
	}

	action, fav, err := store.Toggle("user-1", "chan-a")
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if action != "added" {
		t.Errorf("first toggle action = %q, want added", action)
	}
	if !fav.Contains("chan-a") {
		t.Error("set should contain chan-a after first toggle")
	}

	action, fav, err = store.Toggle("user-1", "chan-a")
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if action != "removed" {
		t.Errorf("second toggle action = %q, want removed", action)
	}
	if len(fav.ChannelIDs) != 0 {
		t.Errorf("toggling twice must restore the original set, got %v", fav.ChannelIDs)
	}
}

func TestToggle_flipsExactlyOneMembership(t *testing.T) {
	store := setupStore(t)

	if _, _, err := store.Toggle("user-1", "chan-a"); err != nil {
		t.Fatalf("toggle chan-a: %v", err)
	}
	_, fav, err := store.Toggle("user-1", "chan-b")
	if err != nil {
		t.Fatalf("toggle chan-b: %v", err)
	}

	if !fav.Contains("chan-a") || !fav.Contains("chan-b") {
		t.Errorf("expected both channels favorited, got %v", fav.ChannelIDs)
	}
	if len(fav.ChannelIDs) != 2 {
		t.Errorf("a channel id must appear at most once, got %v", fav.ChannelIDs)
	}
}

func TestGet_isolatedPerUser(t *testing.T) {
	store := setupStore(t)

	if _, _, err := store.Toggle("user-1", "chan-a"); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	other, err := store.Get("user-2")
	if err != nil {
		t.Fatalf("Get user-2: %v", err)
	}
	if len(other.ChannelIDs) != 0 {
		t.Errorf("user-2 should not see user-1 favorites, got %v", other.ChannelIDs)
	}
}

func TestReplace_wholesale(t *testing.T) {
	store := setupStore(t)

	if _, _, err := store.Toggle("user-1", "chan-old"); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	fav, err := store.Replace("user-1", []string{"chan-1", "chan-2", "chan-1"})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if fav.Contains("chan-old") {
		t.Error("replace must drop channels absent from the new list")
	}
	if len(fav.ChannelIDs) != 2 {
		t.Errorf("duplicate ids in the new list must collapse, got %v", fav.ChannelIDs)
	}

	// A fresh read after invalidation must agree with the returned snapshot
	store.Invalidate("user-1")
	reread, err := store.Get("user-1")
	if err != nil {
		t.Fatalf("Get after invalidate: %v", err)
	}
	if len(reread.ChannelIDs) != 2 || !reread.Contains("chan-1") || !reread.Contains("chan-2") {
		t.Errorf("persisted set does not match snapshot: %v", reread.ChannelIDs)
	}
}
