package domain

import (
	"testing"
	"time"
)

func TestIsVoteValue(t *testing.T) {
	cases := []struct {
		in   int
		want bool
	}{
		{VoteUp, true},
		{VoteDown, true},
		{VoteNone, false},
		{2, false},
		{-2, false},
	}
	for _, c := range cases {
		if got := IsVoteValue(c.in); got != c.want {
			t.Errorf("IsVoteValue(%d) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestVoteTransition_Table(t *testing.T) {
	cases := []struct {
		name      string
		old       int
		requested int
		dUp       int
		dDown     int
		stored    int
	}{
		{"fresh upvote", VoteNone, VoteUp, 1, 0, VoteUp},
		{"fresh downvote", VoteNone, VoteDown, 0, 1, VoteDown},
		{"toggle off upvote", VoteUp, VoteUp, -1, 0, VoteNone},
		{"toggle off downvote", VoteDown, VoteDown, 0, -1, VoteNone},
		{"flip up to down", VoteUp, VoteDown, -1, 1, VoteDown},
		{"flip down to up", VoteDown, VoteUp, 1, -1, VoteUp},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dUp, dDown, stored := VoteTransition(c.old, c.requested)
			if dUp != c.dUp || dDown != c.dDown || stored != c.stored {
				t.Fatalf("VoteTransition(%d, %d) = (%d, %d, %d), want (%d, %d, %d)",
					c.old, c.requested, dUp, dDown, stored, c.dUp, c.dDown, c.stored)
			}
		})
	}
}

// Re-sending the same intent twice must land back where it started: once to
// apply, once to toggle off. This is what makes client retries safe.
func TestVoteTransition_ToggleRoundTrip(t *testing.T) {
	for _, intent := range []int{VoteUp, VoteDown} {
		dUp1, dDown1, stored := VoteTransition(VoteNone, intent)
		dUp2, dDown2, stored2 := VoteTransition(stored, intent)
		if stored2 != VoteNone {
			t.Fatalf("second identical intent should clear the vote, stored=%d", stored2)
		}
		if dUp1+dUp2 != 0 || dDown1+dDown2 != 0 {
			t.Fatalf("toggle round-trip must cancel counter deltas: up=%d down=%d",
				dUp1+dUp2, dDown1+dDown2)
		}
	}
}

// The stored value returned by a transition, fed back in as the old value,
// must always be a legal input (VoteNone, VoteUp, VoteDown).
func TestVoteTransition_StoredAlwaysLegal(t *testing.T) {
	for _, old := range []int{VoteNone, VoteUp, VoteDown} {
		for _, req := range []int{VoteUp, VoteDown} {
			_, _, stored := VoteTransition(old, req)
			if stored != VoteNone && !IsVoteValue(stored) {
				t.Fatalf("VoteTransition(%d, %d) stored illegal value %d", old, req, stored)
			}
		}
	}
}

func TestLessQueueItem(t *testing.T) {
	early := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	late := early.Add(time.Minute)

	cases := []struct {
		name string
		a, b QueueItem
		want bool
	}{
		{"higher net wins", QueueItem{NetVotes: 3, SubmittedAt: late}, QueueItem{NetVotes: 1, SubmittedAt: early}, true},
		{"lower net loses", QueueItem{NetVotes: -1, SubmittedAt: early}, QueueItem{NetVotes: 0, SubmittedAt: late}, false},
		{"tie broken by earlier submission", QueueItem{NetVotes: 2, SubmittedAt: early}, QueueItem{NetVotes: 2, SubmittedAt: late}, true},
		{"tie, later submission loses", QueueItem{NetVotes: 2, SubmittedAt: late}, QueueItem{NetVotes: 2, SubmittedAt: early}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := LessQueueItem(&c.a, &c.b); got != c.want {
				t.Fatalf("LessQueueItem = %v, want %v", got, c.want)
			}
		})
	}
}

func TestRoomSnapshot_UserVotes(t *testing.T) {
	var nilSnap *RoomSnapshot
	if m := nilSnap.UserVotes("u1"); m == nil || len(m) != 0 {
		t.Fatalf("nil snapshot must yield empty map, got %v", m)
	}

	snap := &RoomSnapshot{
		VoteIndex: map[string]map[string]int{
			"u1": {"item-a": VoteUp, "item-b": VoteDown},
		},
	}
	if m := snap.UserVotes("u1"); len(m) != 2 || m["item-a"] != VoteUp {
		t.Fatalf("unexpected votes for u1: %v", m)
	}
	if m := snap.UserVotes("stranger"); m == nil || len(m) != 0 {
		t.Fatalf("unknown user must yield empty map, got %v", m)
	}
}
