package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qshare/go-queue-backend/internal/domain"
)

// newRepoDB opens a throwaway SQLite database with the full schema, including
// the partial unique index that AutoMigrate installs.
func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedRoom(t *testing.T, db *gorm.DB) *domain.Room {
	t.Helper()
	room, err := CreateRoom(context.Background(), db, "admin-1", "Movie Night", "ABCDEF", 10)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	return room
}

func TestCreateQueueItem_SetsFieldsAndDefaults(t *testing.T) {
	db := newRepoDB(t)
	room := seedRoom(t, db)

	start := time.Now().UTC().Add(-time.Minute)
	it, err := CreateQueueItem(context.Background(), db, room.ID, "u1", "dQw4w9WgXcQ", "A Video", "thumb.jpg", 212)
	if err != nil {
		t.Fatalf("CreateQueueItem: %v", err)
	}
	if it.ID == "" || it.RoomID != room.ID || it.VideoRef != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected item fields: %+v", it)
	}
	if it.Upvotes != 0 || it.Downvotes != 0 || it.NetVotes != 0 {
		t.Fatalf("tallies must start zeroed: %+v", it)
	}
	if it.SubmittedAt.Before(start) {
		t.Fatalf("SubmittedAt seems unset: %v", it.SubmittedAt)
	}
}

func TestActiveUniqueIndex_BlocksDuplicateUntilPlayed(t *testing.T) {
	db := newRepoDB(t)
	room := seedRoom(t, db)
	ctx := context.Background()

	first, err := CreateQueueItem(ctx, db, room.ID, "u1", "dQw4w9WgXcQ", "A", "", 0)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}

	// Second active item with the same ref must hit the partial unique index.
	if _, err := CreateQueueItem(ctx, db, room.ID, "u2", "dQw4w9WgXcQ", "A again", "", 0); err == nil {
		t.Fatalf("expected unique violation for duplicate active video")
	}

	// After the first plays, the same ref may be queued again.
	if err := MarkPlayed(ctx, db, first.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkPlayed: %v", err)
	}
	if _, err := CreateQueueItem(ctx, db, room.ID, "u2", "dQw4w9WgXcQ", "Encore", "", 0); err != nil {
		t.Fatalf("resubmission after play should succeed: %v", err)
	}
}

func TestListActiveItems_OrderAndFilter(t *testing.T) {
	db := newRepoDB(t)
	room := seedRoom(t, db)
	ctx := context.Background()

	a, _ := CreateQueueItem(ctx, db, room.ID, "u1", "aaaaaaaaaaa", "A", "", 0)
	time.Sleep(5 * time.Millisecond)
	b, _ := CreateQueueItem(ctx, db, room.ID, "u1", "bbbbbbbbbbb", "B", "", 0)
	time.Sleep(5 * time.Millisecond)
	c, _ := CreateQueueItem(ctx, db, room.ID, "u1", "ccccccccccc", "C", "", 0)

	// b gets 2 net votes, a and c stay tied at 0 (a submitted first).
	if err := ApplyVoteDeltas(ctx, db, b.ID, 2, 0); err != nil {
		t.Fatalf("ApplyVoteDeltas: %v", err)
	}
	// Played items fall out of the listing entirely.
	played, _ := CreateQueueItem(ctx, db, room.ID, "u1", "ddddddddddd", "D", "", 0)
	if err := MarkPlayed(ctx, db, played.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkPlayed: %v", err)
	}

	items, err := ListActiveItems(ctx, db, room.ID)
	if err != nil {
		t.Fatalf("ListActiveItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 active items, got %d", len(items))
	}
	if items[0].ID != b.ID || items[1].ID != a.ID || items[2].ID != c.ID {
		t.Fatalf("wrong order: got %s, %s, %s", items[0].Title, items[1].Title, items[2].Title)
	}
}

func TestApplyVoteDeltas_RecomputesNetAndGuardsPlayed(t *testing.T) {
	db := newRepoDB(t)
	room := seedRoom(t, db)
	ctx := context.Background()

	it, _ := CreateQueueItem(ctx, db, room.ID, "u1", "aaaaaaaaaaa", "A", "", 0)

	if err := ApplyVoteDeltas(ctx, db, it.ID, 1, 0); err != nil {
		t.Fatalf("up delta: %v", err)
	}
	if err := ApplyVoteDeltas(ctx, db, it.ID, 0, 1); err != nil {
		t.Fatalf("down delta: %v", err)
	}
	if err := ApplyVoteDeltas(ctx, db, it.ID, 1, -1); err != nil {
		t.Fatalf("flip delta: %v", err)
	}

	got, err := GetQueueItem(ctx, db, it.ID)
	if err != nil {
		t.Fatalf("GetQueueItem: %v", err)
	}
	if got.Upvotes != 2 || got.Downvotes != 0 {
		t.Fatalf("counters = (%d, %d), want (2, 0)", got.Upvotes, got.Downvotes)
	}
	if got.NetVotes != got.Upvotes-got.Downvotes {
		t.Fatalf("net_votes %d drifted from upvotes-downvotes %d", got.NetVotes, got.Upvotes-got.Downvotes)
	}

	// Once played, the guard inside the UPDATE turns further votes into
	// ErrNotFound.
	if err := MarkPlayed(ctx, db, it.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkPlayed: %v", err)
	}
	if err := ApplyVoteDeltas(ctx, db, it.ID, 1, 0); err != ErrNotFound {
		t.Fatalf("vote on played item: got %v, want ErrNotFound", err)
	}

	// Absent item behaves the same.
	if err := ApplyVoteDeltas(ctx, db, "nope", 1, 0); err != ErrNotFound {
		t.Fatalf("vote on missing item: got %v, want ErrNotFound", err)
	}
}

func TestMarkPlayed_IsTerminal(t *testing.T) {
	db := newRepoDB(t)
	room := seedRoom(t, db)
	ctx := context.Background()

	it, _ := CreateQueueItem(ctx, db, room.ID, "u1", "aaaaaaaaaaa", "A", "", 0)
	at := time.Now().UTC()
	if err := MarkPlayed(ctx, db, it.ID, at); err != nil {
		t.Fatalf("MarkPlayed: %v", err)
	}
	got, _ := GetQueueItem(ctx, db, it.ID)
	if !got.IsPlayed || got.IsCurrent || got.PlayedAt == nil {
		t.Fatalf("played state not recorded: %+v", got)
	}

	// A second retire must report the lost race, not silently apply.
	if err := MarkPlayed(ctx, db, it.ID, time.Now().UTC()); err != ErrNotFound {
		t.Fatalf("double MarkPlayed: got %v, want ErrNotFound", err)
	}
}

func TestSetCurrent_EnforcesSingleCurrent(t *testing.T) {
	db := newRepoDB(t)
	room := seedRoom(t, db)
	ctx := context.Background()

	a, _ := CreateQueueItem(ctx, db, room.ID, "u1", "aaaaaaaaaaa", "A", "", 0)
	b, _ := CreateQueueItem(ctx, db, room.ID, "u1", "bbbbbbbbbbb", "B", "", 0)

	if err := SetCurrent(ctx, db, room.ID, a.ID); err != nil {
		t.Fatalf("SetCurrent a: %v", err)
	}
	if err := SetCurrent(ctx, db, room.ID, b.ID); err != nil {
		t.Fatalf("SetCurrent b: %v", err)
	}

	var n int64
	if err := db.Model(&domain.QueueItem{}).
		Where("room_id = ? AND is_current = ?", room.ID, true).
		Count(&n).Error; err != nil {
		t.Fatalf("count current: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one current item, got %d", n)
	}

	// Promoting a played item must fail.
	if err := MarkPlayed(ctx, db, b.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkPlayed: %v", err)
	}
	if err := SetCurrent(ctx, db, room.ID, b.ID); err != ErrNotFound {
		t.Fatalf("SetCurrent on played item: got %v, want ErrNotFound", err)
	}
}

func TestActiveItemExists(t *testing.T) {
	db := newRepoDB(t)
	room := seedRoom(t, db)
	ctx := context.Background()

	ok, err := ActiveItemExists(ctx, db, room.ID, "aaaaaaaaaaa")
	if err != nil || ok {
		t.Fatalf("empty room: exists=%v err=%v", ok, err)
	}

	it, _ := CreateQueueItem(ctx, db, room.ID, "u1", "aaaaaaaaaaa", "A", "", 0)
	ok, _ = ActiveItemExists(ctx, db, room.ID, "aaaaaaaaaaa")
	if !ok {
		t.Fatalf("expected active item to be reported")
	}

	_ = MarkPlayed(ctx, db, it.ID, time.Now().UTC())
	ok, _ = ActiveItemExists(ctx, db, room.ID, "aaaaaaaaaaa")
	if ok {
		t.Fatalf("played item must not count as active")
	}
}

func TestQueueStats_CountsActiveOnly(t *testing.T) {
	db := newRepoDB(t)
	room := seedRoom(t, db)
	ctx := context.Background()

	count, maxTS, err := QueueStats(ctx, db, room.ID)
	if err != nil || count != 0 || maxTS != nil {
		t.Fatalf("empty queue: count=%d maxTS=%v err=%v", count, maxTS, err)
	}

	a, _ := CreateQueueItem(ctx, db, room.ID, "u1", "aaaaaaaaaaa", "A", "", 0)
	_, _ = CreateQueueItem(ctx, db, room.ID, "u1", "bbbbbbbbbbb", "B", "", 0)

	count, maxTS, err = QueueStats(ctx, db, room.ID)
	if err != nil {
		t.Fatalf("QueueStats: %v", err)
	}
	if count != 2 || maxTS == nil {
		t.Fatalf("count=%d maxTS=%v, want 2 and non-nil", count, maxTS)
	}

	_ = MarkPlayed(ctx, db, a.ID, time.Now().UTC())
	count, _, _ = QueueStats(ctx, db, room.ID)
	if count != 1 {
		t.Fatalf("played item still counted: %d", count)
	}
}
