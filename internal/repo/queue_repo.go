// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the QueueItem
// model, including the atomic tally updates the vote engine relies on.
//
// Error semantics:
//   - Missing items surface as gorm.ErrRecordNotFound (ErrNotFound).
//   - ApplyVoteDeltas reports ErrNotFound when the item is absent OR already
//     played; the guard is part of the UPDATE statement so the check and the
//     counter change are a single atomic operation.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qshare/go-queue-backend/internal/domain"
)

// queueOrder is the canonical queue ordering: net score descending, earliest
// submission first on ties, item ID as a final deterministic tie-breaker.
const queueOrder = "net_votes DESC, submitted_at ASC, id ASC"

// CreateQueueItem inserts a new queue item with zeroed tallies. SubmittedAt
// doubles as the ordering tie-breaker, so it is always set here in UTC.
func CreateQueueItem(ctx context.Context, db *gorm.DB, roomID, submitterID, videoRef, title, thumbnail string, durationSec int) (*domain.QueueItem, error) {
	it := &domain.QueueItem{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		VideoRef:    videoRef,
		Title:       title,
		Thumbnail:   thumbnail,
		DurationSec: durationSec,
		SubmitterID: submitterID,
		SubmittedAt: time.Now().UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(it).Error; err != nil {
		return nil, err
	}
	return it, nil
}

// GetQueueItem fetches a queue item by ID, or ErrNotFound.
func GetQueueItem(ctx context.Context, db *gorm.DB, id string) (*domain.QueueItem, error) {
	var it domain.QueueItem
	if err := db.WithContext(ctx).Where("id = ?", id).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

// ListActiveItems returns all non-played items of a room in queue order
// (net votes descending, submission time ascending). This query and the
// cache rebuild path must agree with domain.LessQueueItem.
func ListActiveItems(ctx context.Context, db *gorm.DB, roomID string) ([]domain.QueueItem, error) {
	var out []domain.QueueItem
	err := db.WithContext(ctx).
		Where("room_id = ? AND is_played = ?", roomID, false).
		Order(queueOrder).
		Find(&out).Error
	return out, err
}

// ActiveItemExists reports whether the room already holds a non-played item
// for the given external video reference.
func ActiveItemExists(ctx context.Context, db *gorm.DB, roomID, videoRef string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.QueueItem{}).
		Where("room_id = ? AND video_ref = ? AND is_played = ?", roomID, videoRef, false).
		Count(&n).Error
	return n > 0, err
}

// ApplyVoteDeltas adjusts an item's vote counters by (dUp, dDown) and
// recomputes net_votes from the adjusted counters in the same statement.
// The is_played guard makes the update a no-op for retired items, which the
// caller sees as ErrNotFound.
//
// Using column expressions (rather than read-modify-write in Go) keeps two
// concurrent votes on the same item from losing updates: the row-level
// atomicity of the single UPDATE serializes them.
func ApplyVoteDeltas(ctx context.Context, db *gorm.DB, itemID string, dUp, dDown int) error {
	res := db.WithContext(ctx).
		Model(&domain.QueueItem{}).
		Where("id = ? AND is_played = ?", itemID, false).
		Updates(map[string]any{
			"upvotes":   gorm.Expr("upvotes + ?", dUp),
			"downvotes": gorm.Expr("downvotes + ?", dDown),
			"net_votes": gorm.Expr("(upvotes + ?) - (downvotes + ?)", dUp, dDown),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkPlayed retires an item: sets is_played, clears is_current, and stamps
// PlayedAt. Retired items are terminal and never re-enter the queue.
func MarkPlayed(ctx context.Context, db *gorm.DB, itemID string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.QueueItem{}).
		Where("id = ? AND is_played = ?", itemID, false).
		Updates(map[string]any{
			"is_played":  true,
			"is_current": false,
			"played_at":  at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetCurrent promotes an item to currently-playing. It first clears any
// other current flag in the room so the "at most one current item" invariant
// holds even if a previous transition was interrupted.
func SetCurrent(ctx context.Context, db *gorm.DB, roomID, itemID string) error {
	if err := db.WithContext(ctx).
		Model(&domain.QueueItem{}).
		Where("room_id = ? AND is_current = ?", roomID, true).
		Update("is_current", false).Error; err != nil {
		return err
	}
	res := db.WithContext(ctx).
		Model(&domain.QueueItem{}).
		Where("id = ? AND room_id = ? AND is_played = ?", itemID, roomID, false).
		Update("is_current", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
