package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qshare/go-queue-backend/internal/domain"
	"github.com/qshare/go-queue-backend/internal/repo"
)

func TestVoteApply_RejectsInvalidValues(t *testing.T) {
	_, _, rooms, queue, votes, _ := newStack(t)
	room := mustCreateRoom(t, rooms, "admin")
	it := mustAddItem(t, queue, room.ID, "admin", "aaaaaaaaaaa")

	for _, v := range []int{0, 2, -2, 100} {
		if _, err := votes.Apply(context.Background(), "u1", it.ID, v); !errors.Is(err, ErrInvalidVote) {
			t.Fatalf("Apply(value=%d): got %v, want ErrInvalidVote", v, err)
		}
	}
}

func TestVoteApply_MissingAndPlayedItems(t *testing.T) {
	db, _, rooms, queue, votes, _ := newStack(t)
	room := mustCreateRoom(t, rooms, "admin")
	it := mustAddItem(t, queue, room.ID, "admin", "aaaaaaaaaaa")

	if _, err := votes.Apply(context.Background(), "u1", "missing", domain.VoteUp); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("missing item: got %v, want ErrItemNotFound", err)
	}

	if err := repo.MarkPlayed(context.Background(), db, it.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkPlayed: %v", err)
	}
	if _, err := votes.Apply(context.Background(), "u1", it.ID, domain.VoteUp); !errors.Is(err, ErrItemPlayed) {
		t.Fatalf("played item: got %v, want ErrItemPlayed", err)
	}
}

func TestVoteApply_ToggleAndFlipSemantics(t *testing.T) {
	_, _, rooms, queue, votes, _ := newStack(t)
	room := mustCreateRoom(t, rooms, "admin")
	it := mustAddItem(t, queue, room.ID, "admin", "aaaaaaaaaaa")
	ctx := context.Background()

	// Fresh upvote.
	got, err := votes.Apply(ctx, "u1", it.ID, domain.VoteUp)
	if err != nil {
		t.Fatalf("upvote: %v", err)
	}
	if got.Upvotes != 1 || got.Downvotes != 0 || got.NetVotes != 1 {
		t.Fatalf("after upvote: %+v", tallies(got))
	}
	if v, _ := votes.Stored(ctx, "u1", it.ID); v != domain.VoteUp {
		t.Fatalf("stored vote = %d, want up", v)
	}

	// Same intent again toggles off.
	got, err = votes.Apply(ctx, "u1", it.ID, domain.VoteUp)
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if got.Upvotes != 0 || got.NetVotes != 0 {
		t.Fatalf("after toggle off: %+v", tallies(got))
	}
	if v, _ := votes.Stored(ctx, "u1", it.ID); v != domain.VoteNone {
		t.Fatalf("stored vote = %d, want none", v)
	}

	// A cleared vote leaves the slot free: the same user votes down next.
	got, err = votes.Apply(ctx, "u1", it.ID, domain.VoteDown)
	if err != nil {
		t.Fatalf("downvote after toggle off: %v", err)
	}
	if got.Upvotes != 0 || got.Downvotes != 1 || got.NetVotes != -1 {
		t.Fatalf("after re-vote: %+v", tallies(got))
	}
	if v, _ := votes.Stored(ctx, "u1", it.ID); v != domain.VoteDown {
		t.Fatalf("stored vote = %d, want down", v)
	}

	// Flip: up replaces down, moving both counters in one step.
	got, err = votes.Apply(ctx, "u1", it.ID, domain.VoteUp)
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	if got.Upvotes != 1 || got.Downvotes != 0 || got.NetVotes != 1 {
		t.Fatalf("after flip: %+v", tallies(got))
	}
}

// Scenario: three voters and two items, exercising ordering under vote churn.
func TestVoteApply_QueueReordersUnderVotes(t *testing.T) {
	_, _, rooms, queue, votes, _ := newStack(t)
	room := mustCreateRoom(t, rooms, "admin")
	ctx := context.Background()

	a := mustAddItem(t, queue, room.ID, "admin", "aaaaaaaaaaa")
	time.Sleep(5 * time.Millisecond)
	b := mustAddItem(t, queue, room.ID, "admin", "bbbbbbbbbbb")

	// U and V upvote B, W downvotes A: B(+2) ahead of A(-1).
	mustVote(t, votes, "u", b.ID, domain.VoteUp)
	mustVote(t, votes, "v", b.ID, domain.VoteUp)
	mustVote(t, votes, "w", a.ID, domain.VoteDown)

	items, err := queue.CurrentQueue(ctx, room.ID)
	if err != nil {
		t.Fatalf("CurrentQueue: %v", err)
	}
	if len(items) != 2 || items[0].ID != b.ID {
		t.Fatalf("expected B first, got %v", order(items))
	}

	// Everyone re-sends the same intent, which retracts all three votes.
	// Both items land back at net 0 and A wins the tie by earlier submission.
	mustVote(t, votes, "v", b.ID, domain.VoteUp)
	mustVote(t, votes, "w", a.ID, domain.VoteDown)
	mustVote(t, votes, "u", b.ID, domain.VoteUp)

	items, _ = queue.CurrentQueue(ctx, room.ID)
	if items[0].ID != a.ID {
		t.Fatalf("tie must break by submission time, got %v", order(items))
	}
	for _, it := range items {
		if it.NetVotes != it.Upvotes-it.Downvotes {
			t.Fatalf("net drifted: %+v", tallies(&it))
		}
	}
}

func TestVoteApply_RefreshesCacheAndCursor(t *testing.T) {
	_, fc, rooms, queue, votes, _ := newStack(t)
	room := mustCreateRoom(t, rooms, "admin")
	it := mustAddItem(t, queue, room.ID, "admin", "aaaaaaaaaaa")
	ctx := context.Background()

	before, _ := fc.Cursor(ctx, room.ID)
	mustVote(t, votes, "u1", it.ID, domain.VoteUp)
	after, _ := fc.Cursor(ctx, room.ID)
	if after <= before {
		t.Fatalf("cursor did not advance: %d -> %d", before, after)
	}

	snap, err := fc.ReadState(ctx, room.ID)
	if err != nil {
		t.Fatalf("snapshot missing after vote: %v", err)
	}
	if len(snap.Queue) != 1 || snap.Queue[0].NetVotes != 1 {
		t.Fatalf("cached snapshot stale: %+v", snap.Queue)
	}
	if snap.VoteIndex["u1"][it.ID] != domain.VoteUp {
		t.Fatalf("vote index missing entry: %v", snap.VoteIndex)
	}
}

func mustVote(t *testing.T, votes *VoteService, userID, itemID string, value int) *domain.QueueItem {
	t.Helper()
	it, err := votes.Apply(context.Background(), userID, itemID, value)
	if err != nil {
		t.Fatalf("Apply(%s, %d): %v", userID, value, err)
	}
	return it
}

func tallies(it *domain.QueueItem) [3]int {
	return [3]int{it.Upvotes, it.Downvotes, it.NetVotes}
}

func order(items []domain.QueueItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}
