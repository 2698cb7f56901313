package repo

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qshare/go-queue-backend/internal/domain"
)

func TestVoteCRUD(t *testing.T) {
	db := newRepoDB(t)
	room := seedRoom(t, db)
	ctx := context.Background()

	it, _ := CreateQueueItem(ctx, db, room.ID, "u1", "aaaaaaaaaaa", "A", "", 0)

	if _, err := GetVote(ctx, db, it.ID, "u1"); err == nil {
		t.Fatalf("expected not found for missing vote")
	}

	v, err := CreateVote(ctx, db, it.ID, "u1", domain.VoteUp)
	if err != nil {
		t.Fatalf("CreateVote: %v", err)
	}
	if v.Value != domain.VoteUp {
		t.Fatalf("stored value = %d", v.Value)
	}

	// One vote per (item, user).
	if _, err := CreateVote(ctx, db, it.ID, "u1", domain.VoteDown); err == nil {
		t.Fatalf("expected unique violation on second vote row")
	}

	if err := UpdateVoteValue(ctx, db, it.ID, "u1", domain.VoteDown); err != nil {
		t.Fatalf("UpdateVoteValue: %v", err)
	}
	got, _ := GetVote(ctx, db, it.ID, "u1")
	if got.Value != domain.VoteDown {
		t.Fatalf("flip not persisted: %d", got.Value)
	}

	if err := DeleteVote(ctx, db, it.ID, "u1"); err != nil {
		t.Fatalf("DeleteVote: %v", err)
	}
	if err := DeleteVote(ctx, db, it.ID, "u1"); err != ErrNotFound {
		t.Fatalf("double delete: got %v, want ErrNotFound", err)
	}
	if err := UpdateVoteValue(ctx, db, it.ID, "u1", domain.VoteUp); err != ErrNotFound {
		t.Fatalf("update absent vote: got %v, want ErrNotFound", err)
	}

	// Deleting frees the (item, user) slot: the same pair may vote again.
	if _, err := CreateVote(ctx, db, it.ID, "u1", domain.VoteDown); err != nil {
		t.Fatalf("re-vote after delete: %v", err)
	}
}

func TestListRoomVotes_IndexShapeAndFiltering(t *testing.T) {
	db := newRepoDB(t)
	room := seedRoom(t, db)
	other := seedRoomWithCode(t, db, "ZZZ999")
	ctx := context.Background()

	a, _ := CreateQueueItem(ctx, db, room.ID, "u1", "aaaaaaaaaaa", "A", "", 0)
	b, _ := CreateQueueItem(ctx, db, room.ID, "u1", "bbbbbbbbbbb", "B", "", 0)
	foreign, _ := CreateQueueItem(ctx, db, other.ID, "u1", "ccccccccccc", "C", "", 0)

	_, _ = CreateVote(ctx, db, a.ID, "u1", domain.VoteUp)
	_, _ = CreateVote(ctx, db, a.ID, "u2", domain.VoteDown)
	_, _ = CreateVote(ctx, db, b.ID, "u1", domain.VoteDown)
	_, _ = CreateVote(ctx, db, foreign.ID, "u1", domain.VoteUp)

	idx, err := ListRoomVotes(ctx, db, room.ID)
	if err != nil {
		t.Fatalf("ListRoomVotes: %v", err)
	}
	if len(idx) != 2 {
		t.Fatalf("expected 2 voters, got %d", len(idx))
	}
	if idx["u1"][a.ID] != domain.VoteUp || idx["u1"][b.ID] != domain.VoteDown {
		t.Fatalf("u1 index wrong: %v", idx["u1"])
	}
	if idx["u2"][a.ID] != domain.VoteDown {
		t.Fatalf("u2 index wrong: %v", idx["u2"])
	}
	if _, ok := idx["u1"][foreign.ID]; ok {
		t.Fatalf("votes from other rooms leaked into the index")
	}

	// Votes on played items drop out of the index.
	if err := MarkPlayed(ctx, db, a.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkPlayed: %v", err)
	}
	idx, _ = ListRoomVotes(ctx, db, room.ID)
	if _, ok := idx["u2"]; ok {
		t.Fatalf("u2 voted only on the played item, should vanish from index: %v", idx)
	}
	if _, ok := idx["u1"][a.ID]; ok {
		t.Fatalf("played item still in index")
	}
}

func seedRoomWithCode(t *testing.T, db *gorm.DB, code string) *domain.Room {
	t.Helper()
	room, err := CreateRoom(context.Background(), db, "admin-x", "Other Room", code, 10)
	if err != nil {
		t.Fatalf("CreateRoom(%s): %v", code, err)
	}
	return room
}
