// Package domain – vote transition logic.
//
// This file contains the pure decision table for applying a vote intent
// against a member's existing vote. Keeping the table free of storage
// concerns lets the service layer apply the resulting deltas inside a single
// transaction while the table itself stays unit-testable in isolation.
package domain

// Vote values accepted by the engine. VoteNone is never stored; it models
// the absence of a vote row.
const (
	VoteNone = 0
	VoteUp   = 1
	VoteDown = -1
)

// IsVoteValue reports whether v is a valid vote intent (+1 or -1).
func IsVoteValue(v int) bool { return v == VoteUp || v == VoteDown }

// VoteTransition computes the effect of a requested vote given the voter's
// existing vote on the same item.
//
// Semantics:
//   - no existing vote: the request is recorded as-is.
//   - same direction again: the vote is toggled off (row removed).
//   - opposite direction: the vote flips, moving both counters by one.
//
// Returns the delta to apply to the upvote and downvote counters and the
// vote value that should end up stored (VoteNone means the row is removed).
// The net score is always recomputed as upvotes − downvotes after the deltas
// are applied; it is never adjusted independently.
func VoteTransition(old, requested int) (dUp, dDown, stored int) {
	switch {
	case old == VoteNone && requested == VoteUp:
		return 1, 0, VoteUp
	case old == VoteNone && requested == VoteDown:
		return 0, 1, VoteDown
	case old == VoteUp && requested == VoteUp:
		return -1, 0, VoteNone
	case old == VoteDown && requested == VoteDown:
		return 0, -1, VoteNone
	case old == VoteUp && requested == VoteDown:
		return -1, 1, VoteDown
	case old == VoteDown && requested == VoteUp:
		return 1, -1, VoteUp
	}
	// Invalid inputs are rejected before this point; treat as no-op.
	return 0, 0, old
}

// LessQueueItem is the comparator that defines queue order: higher net score
// first, ties broken by earliest submission. Both the tally store queries and
// the cache rebuild path must agree with this function.
func LessQueueItem(a, b *QueueItem) bool {
	if a.NetVotes != b.NetVotes {
		return a.NetVotes > b.NetVotes
	}
	return a.SubmittedAt.Before(b.SubmittedAt)
}
