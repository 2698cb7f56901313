// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Room model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a room is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qshare/go-queue-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateRoom inserts a new Room row administered by adminID. The room ID is
// a randomly generated UUID (string), and CreatedAt is set to UTC. The join
// code must be unique; callers retry with a fresh code on collision.
func CreateRoom(ctx context.Context, db *gorm.DB, adminID, name, joinCode string, maxMembers int) (*domain.Room, error) {
	r := &domain.Room{
		ID:         uuid.NewString(),
		Name:       name,
		JoinCode:   joinCode,
		AdminID:    adminID,
		Active:     true,
		MaxMembers: maxMembers,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// GetRoom fetches a single room by its ID. If the record does not exist, it
// returns ErrNotFound. On other DB errors, the raw error is returned.
func GetRoom(ctx context.Context, db *gorm.DB, id string) (*domain.Room, error) {
	var r domain.Room
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRoomByCode fetches an active room by its join code. Closed rooms are
// not joinable, so the query filters on the active flag. Returns ErrNotFound
// when no matching room exists.
func GetRoomByCode(ctx context.Context, db *gorm.DB, joinCode string) (*domain.Room, error) {
	var r domain.Room
	err := db.WithContext(ctx).
		Where("join_code = ? AND active = ?", joinCode, true).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SetRoomCurrentItem updates the room's currently-playing item reference.
// Pass nil to clear it (queue exhausted). Returns ErrNotFound when the room
// does not exist.
func SetRoomCurrentItem(ctx context.Context, db *gorm.DB, roomID string, itemID *string) error {
	res := db.WithContext(ctx).
		Model(&domain.Room{}).
		Where("id = ?", roomID).
		Update("current_item_id", itemID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CloseRoom deactivates a room (soft close). The row is retained; only the
// active flag flips. Returns ErrNotFound when the room is missing or already
// closed, so a double close surfaces to the caller.
func CloseRoom(ctx context.Context, db *gorm.DB, roomID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Room{}).
		Where("id = ? AND active = ?", roomID, true).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateRoomMemberCount adjusts the cached participant counter by delta,
// clamped at zero by the caller's discipline (joins and leaves are paired).
func UpdateRoomMemberCount(ctx context.Context, db *gorm.DB, roomID string, delta int) error {
	res := db.WithContext(ctx).
		Model(&domain.Room{}).
		Where("id = ?", roomID).
		Update("member_count", gorm.Expr("member_count + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
