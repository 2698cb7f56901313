// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Vote model.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving the transition-table rules to the services
// package.
//
// Error semantics:
//   - A concurrent duplicate vote (same queue_item_id, user_id) relies on the
//     database unique constraint and is returned as a raw DB error. The
//     service layer translates it into a domain error.
//   - Missing votes surface as gorm.ErrRecordNotFound (ErrNotFound).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qshare/go-queue-backend/internal/domain"
)

// GetVote fetches the vote a user holds on an item, or ErrNotFound when the
// user has not voted on it.
func GetVote(ctx context.Context, db *gorm.DB, itemID, userID string) (*domain.Vote, error) {
	var v domain.Vote
	err := db.WithContext(ctx).
		Where("queue_item_id = ? AND user_id = ?", itemID, userID).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateVote inserts a vote row for (itemID, userID). The pair must be
// unique, enforced by the database schema; concurrent duplicates come back
// as a raw unique-violation error for the service layer to translate.
func CreateVote(ctx context.Context, db *gorm.DB, itemID, userID string, value int) (*domain.Vote, error) {
	v := &domain.Vote{
		ID:          uuid.NewString(),
		QueueItemID: itemID,
		UserID:      userID,
		Value:       value,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateVoteValue flips an existing vote to the given value. Returns
// ErrNotFound when the row has vanished (e.g. a concurrent toggle-off won).
func UpdateVoteValue(ctx context.Context, db *gorm.DB, itemID, userID string, value int) error {
	res := db.WithContext(ctx).
		Model(&domain.Vote{}).
		Where("queue_item_id = ? AND user_id = ?", itemID, userID).
		Update("value", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteVote removes a user's vote row (toggle-off). Deleting an absent row
// returns ErrNotFound so the caller can detect a lost race.
func DeleteVote(ctx context.Context, db *gorm.DB, itemID, userID string) error {
	res := db.WithContext(ctx).
		Where("queue_item_id = ? AND user_id = ?", itemID, userID).
		Delete(&domain.Vote{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// voteRow is the scan target for the room-wide vote index query.
type voteRow struct {
	UserID      string
	QueueItemID string
	Value       int
}

// ListRoomVotes returns every vote on the room's non-played items as a
// userID → itemID → value index. The index feeds the cached snapshot so
// pollers can annotate the queue without per-user queries.
func ListRoomVotes(ctx context.Context, db *gorm.DB, roomID string) (map[string]map[string]int, error) {
	var rows []voteRow
	err := db.WithContext(ctx).
		Table("votes").
		Select("votes.user_id, votes.queue_item_id, votes.value").
		Joins("JOIN queue_items ON queue_items.id = votes.queue_item_id").
		Where("queue_items.room_id = ? AND queue_items.is_played = ?", roomID, false).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	idx := make(map[string]map[string]int, len(rows))
	for _, r := range rows {
		m, ok := idx[r.UserID]
		if !ok {
			m = make(map[string]int)
			idx[r.UserID] = m
		}
		m[r.QueueItemID] = r.Value
	}
	return idx, nil
}
