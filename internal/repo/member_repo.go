// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the RoomMember
// model. Membership here is the minimum the queue engine needs: sync
// payloads and capacity checks.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qshare/go-queue-backend/internal/domain"
)

// AddMember inserts a membership row. The (room_id, user_id) pair is unique;
// a concurrent duplicate join comes back as a raw unique-violation error.
func AddMember(ctx context.Context, db *gorm.DB, roomID, userID, role string) (*domain.RoomMember, error) {
	m := &domain.RoomMember{
		ID:       uuid.NewString(),
		RoomID:   roomID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListMembers returns the room's members ordered by join time.
func ListMembers(ctx context.Context, db *gorm.DB, roomID string) ([]domain.RoomMember, error) {
	var out []domain.RoomMember
	err := db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("joined_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountMembers returns the number of members in the room.
func CountMembers(ctx context.Context, db *gorm.DB, roomID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.RoomMember{}).
		Where("room_id = ?", roomID).
		Count(&n).Error
	return n, err
}

// IsMember reports whether userID belongs to the room.
func IsMember(ctx context.Context, db *gorm.DB, roomID, userID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&n).Error
	return n > 0, err
}

// RemoveMember deletes a membership row, or ErrNotFound when absent.
func RemoveMember(ctx context.Context, db *gorm.DB, roomID, userID string) error {
	res := db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&domain.RoomMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
