// Package services – SyncService
//
// This file implements the cursor-gated polling protocol. Clients poll with
// the cursor from their previous response; when the room's cursor has not
// advanced past it, the reply is a cheap "no updates" carrying only the
// cursor. Only when something changed does the service assemble the full
// room state.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/qshare/go-queue-backend/internal/domain"
	"github.com/qshare/go-queue-backend/internal/repo"
)

// SyncResult is the outcome of a sync poll. When HasUpdates is false only
// Cursor is populated; otherwise the full room state is attached, with the
// poller's own votes extracted from the snapshot's vote index.
type SyncResult struct {
	HasUpdates bool
	Cursor     int64
	Queue      []domain.QueueItem
	Current    *domain.QueueItem
	Members    []domain.RoomMember
	MyVotes    map[string]int
}

// SyncService answers cursor-based poll requests against the derived cache,
// falling back to the tally store when the cache is cold or unavailable.
type SyncService struct {
	// DB is the tally-store handle for fallback reads and membership.
	DB *gorm.DB
	// Cache holds the snapshot and cursor consulted on every poll. May be
	// nil, in which case every poll takes the full-state path.
	Cache RoomCache
}

// Sync compares the client's cursor against the room's current one.
//
// Cheap path: when the room cursor exists and has not advanced beyond
// clientCursor, the reply is {HasUpdates: false, Cursor} and costs a single
// cursor read, with no queue, vote, or membership queries.
//
// Full path: assembles queue (in canonical order), the current item, the
// member list, and the poller's vote annotations, plus the fresh cursor. A
// room without an established cursor gets one minted here so subsequent
// polls can take the cheap path.
//
// Errors: ErrRoomNotFound / ErrRoomClosed for caller errors; tally-store
// failures propagate. Cache failures never fail the poll.
func (s *SyncService) Sync(ctx context.Context, roomID, userID string, clientCursor int64) (*SyncResult, error) {
	if s.Cache != nil {
		cursor, err := s.Cache.Cursor(ctx, roomID)
		if err == nil && cursor > 0 && cursor <= clientCursor {
			return &SyncResult{HasUpdates: false, Cursor: cursor}, nil
		}
		// Cursor missing, stale relative to the client, or unreadable:
		// fall through to full assembly.
	}

	room, err := repo.GetRoom(ctx, s.DB, roomID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if !room.Active {
		return nil, ErrRoomClosed
	}

	snap, err := loadSnapshot(ctx, s.DB, s.Cache, roomID)
	if err != nil {
		return nil, err
	}

	cursor := snap.Cursor
	if cursor == 0 && s.Cache != nil {
		if fresh, err := s.Cache.BumpCursor(ctx, roomID); err == nil {
			cursor = fresh
			snap.Cursor = fresh
			// Persist the stamped snapshot so the next poll hits the
			// cheap path; failures just mean another rebuild.
			_ = s.Cache.WriteState(ctx, roomID, snap)
		}
	}

	members, err := repo.ListMembers(ctx, s.DB, roomID)
	if err != nil {
		return nil, err
	}

	queue := snap.Queue
	if queue == nil {
		queue = []domain.QueueItem{}
	}

	return &SyncResult{
		HasUpdates: true,
		Cursor:     cursor,
		Queue:      queue,
		Current:    snap.Current,
		Members:    members,
		MyVotes:    snap.UserVotes(userID),
	}, nil
}
