// Package services – derived state plumbing.
//
// This file holds the cache-aside machinery shared by every service: the
// RoomCache contract, snapshot rebuilds from the tally store, and the
// write-through refresh performed after each mutating operation.
//
// Consistency model: the tally store is written first and owns correctness;
// the cache refresh afterwards is best-effort. A failed refresh is logged and
// degraded, never surfaced; the snapshot simply expires and the next reader
// rebuilds it. A failed cursor bump is likewise tolerated: pollers then take
// the full-state path once, which is correct, just not cheap.
package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/qshare/go-queue-backend/internal/cache"
	"github.com/qshare/go-queue-backend/internal/domain"
	"github.com/qshare/go-queue-backend/internal/repo"
)

// RoomCache is the derived-cache contract consumed by the services. The
// production implementation is cache.Cache (Redis); tests substitute an
// in-memory fake. A nil RoomCache disables caching entirely: reads then go
// straight to the tally store.
//
// Implementations must keep BumpCursor monotonic per room and must return
// cache.ErrMiss from ReadState when no snapshot is available.
type RoomCache interface {
	// ReadState returns the cached snapshot or cache.ErrMiss.
	ReadState(ctx context.Context, roomID string) (*domain.RoomSnapshot, error)
	// WriteState overwrites the snapshot with a fresh TTL.
	WriteState(ctx context.Context, roomID string, snap *domain.RoomSnapshot) error
	// BumpCursor advances the room's update cursor and returns it.
	BumpCursor(ctx context.Context, roomID string) (int64, error)
	// Cursor returns the current cursor, or 0 when none is cached.
	Cursor(ctx context.Context, roomID string) (int64, error)
	// Invalidate drops all derived state for the room.
	Invalidate(ctx context.Context, roomID string) error
}

// buildSnapshot assembles a room snapshot directly from the tally store:
// active queue in canonical order, current item, and the room-wide vote
// index. The Cursor field is left zero; callers stamp it.
func buildSnapshot(ctx context.Context, db *gorm.DB, roomID string) (*domain.RoomSnapshot, error) {
	room, err := repo.GetRoom(ctx, db, roomID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	items, err := repo.ListActiveItems(ctx, db, roomID)
	if err != nil {
		return nil, err
	}

	var current *domain.QueueItem
	if room.CurrentItemID != nil {
		cur, err := repo.GetQueueItem(ctx, db, *room.CurrentItemID)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		current = cur
	}

	idx, err := repo.ListRoomVotes(ctx, db, roomID)
	if err != nil {
		return nil, err
	}

	return &domain.RoomSnapshot{
		Queue:     items,
		Current:   current,
		VoteIndex: idx,
	}, nil
}

// loadSnapshot is the shared read path: try the cache, rebuild from the
// tally store on miss (writing the result back), and degrade to a plain
// store read when the cache itself is failing.
func loadSnapshot(ctx context.Context, db *gorm.DB, rc RoomCache, roomID string) (*domain.RoomSnapshot, error) {
	if rc == nil {
		return buildSnapshot(ctx, db, roomID)
	}

	snap, err := rc.ReadState(ctx, roomID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		// Transient cache failure: log and fall through to the store.
		log.Warn().Err(err).Str("room_id", roomID).Msg("cache read failed, falling back to store")
		return buildSnapshot(ctx, db, roomID)
	}

	// Miss: rebuild and repopulate.
	snap, err = buildSnapshot(ctx, db, roomID)
	if err != nil {
		return nil, err
	}
	if cur, cerr := rc.Cursor(ctx, roomID); cerr == nil {
		snap.Cursor = cur
	}
	if werr := rc.WriteState(ctx, roomID, snap); werr != nil {
		log.Warn().Err(werr).Str("room_id", roomID).Msg("cache repopulate failed")
	}
	return snap, nil
}

// logCacheInvalidateFailure records a failed wholesale invalidation. The
// entry's TTL bounds how long the stale state can survive.
func logCacheInvalidateFailure(roomID string, err error) {
	log.Warn().Err(err).Str("room_id", roomID).Msg("cache invalidate failed")
}

// refreshCache is the write-through step after a mutating operation: rebuild
// the snapshot from the store, advance the update cursor, and overwrite the
// cached state. All failures are logged and swallowed; the store already
// holds the truth.
func refreshCache(ctx context.Context, db *gorm.DB, rc RoomCache, roomID string) {
	if rc == nil {
		return
	}

	snap, err := buildSnapshot(ctx, db, roomID)
	if err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("cache refresh: snapshot rebuild failed")
		return
	}

	cursor, err := rc.BumpCursor(ctx, roomID)
	if err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("cache refresh: cursor bump failed")
	} else {
		snap.Cursor = cursor
	}

	if err := rc.WriteState(ctx, roomID, snap); err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("cache refresh: write failed")
	}
}
