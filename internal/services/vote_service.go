// Package services – VoteService
//
// This file implements the vote engine. A vote intent is resolved against
// the voter's existing vote through the pure transition table in the domain
// package. The vote row upsert/delete, the item counter update, and the net
// score recomputation are all applied inside one transaction
// scoped to the owning item. The room's cached snapshot and update cursor
// are refreshed after commit.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/qshare/go-queue-backend/internal/domain"
	"github.com/qshare/go-queue-backend/internal/repo"
)

// VoteService implements the use-cases around queue item voting. It is
// context-aware and safe for concurrent use; per-item serialization comes
// from the storage layer (single-statement counter updates plus the unique
// vote constraint), not from in-process locking.
type VoteService struct {
	// DB is the tally-store handle used for all vote operations.
	DB *gorm.DB
	// Cache is refreshed after each applied vote. May be nil.
	Cache RoomCache
}

// Apply records a vote intent (value ∈ {-1, +1}) by userID on itemID and
// returns the item with updated tallies.
//
// Semantics (see domain.VoteTransition):
//   - no existing vote: the vote is recorded as requested.
//   - same direction again: the vote is removed (toggle-off).
//   - opposite direction: the vote flips, moving both counters.
//
// Because re-sending an intent toggles rather than double-applies, the
// operation is safe for clients to retry.
//
// Errors:
//   - ErrInvalidVote when value is not -1 or 1.
//   - ErrItemNotFound when the item does not exist.
//   - ErrItemPlayed when the item has already been played.
//   - ErrVoteConflict when a concurrent vote by the same user collides on
//     the uniqueness constraint (retryable).
//   - The underlying DB error for unexpected failures.
func (s *VoteService) Apply(ctx context.Context, userID, itemID string, value int) (*domain.QueueItem, error) {
	if !domain.IsVoteValue(value) {
		return nil, ErrInvalidVote
	}

	var updated *domain.QueueItem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) Load the item and reject terminal ones up front. The played
		// guard is re-checked by the counter UPDATE below, so a concurrent
		// advance cannot slip a vote onto a just-retired item.
		item, err := repo.GetQueueItem(ctx, tx, itemID)
		if err != nil {
			if isNotFound(err) {
				return ErrItemNotFound
			}
			return err
		}
		if item.IsPlayed {
			return ErrItemPlayed
		}

		// 2) Read the voter's existing vote, if any.
		old := domain.VoteNone
		if v, err := repo.GetVote(ctx, tx, itemID, userID); err == nil {
			old = v.Value
		} else if !isNotFound(err) {
			return err
		}

		// 3) Resolve the transition and persist the vote row.
		dUp, dDown, stored := domain.VoteTransition(old, value)
		switch {
		case stored == domain.VoteNone:
			if err := repo.DeleteVote(ctx, tx, itemID, userID); err != nil {
				if isNotFound(err) {
					return ErrVoteConflict
				}
				return err
			}
		case old == domain.VoteNone:
			if _, err := repo.CreateVote(ctx, tx, itemID, userID, stored); err != nil {
				if isDuplicate(err) {
					return ErrVoteConflict
				}
				return err
			}
		default:
			if err := repo.UpdateVoteValue(ctx, tx, itemID, userID, stored); err != nil {
				if isNotFound(err) {
					return ErrVoteConflict
				}
				return err
			}
		}

		// 4) Apply the counter deltas; net_votes is recomputed from the
		// adjusted counters inside the same UPDATE.
		if err := repo.ApplyVoteDeltas(ctx, tx, itemID, dUp, dDown); err != nil {
			if isNotFound(err) {
				return ErrItemPlayed
			}
			return err
		}

		updated, err = repo.GetQueueItem(ctx, tx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Post-commit: recompute the cached queue ordering and advance the
	// room's update cursor. Cache failures do not fail the vote.
	refreshCache(ctx, s.DB, s.Cache, updated.RoomID)

	return updated, nil
}

// Stored returns the voter's currently recorded vote on itemID, or 0 when no
// vote row exists.
func (s *VoteService) Stored(ctx context.Context, userID, itemID string) (int, error) {
	v, err := repo.GetVote(ctx, s.DB, itemID, userID)
	if err != nil {
		if isNotFound(err) {
			return domain.VoteNone, nil
		}
		return domain.VoteNone, err
	}
	return v.Value, nil
}
