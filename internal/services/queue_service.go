// Package services – QueueService
//
// This file implements queue reads and item submission. Reads prefer the
// derived cache and fall back to, and repopulate from, the tally store on a
// miss; submissions write through to the store and then refresh the cache.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qshare/go-queue-backend/internal/domain"
	"github.com/qshare/go-queue-backend/internal/metadata"
	"github.com/qshare/go-queue-backend/internal/repo"
)

// QueueService implements queue item submission and queue/current reads.
type QueueService struct {
	// DB is the tally-store handle.
	DB *gorm.DB
	// Cache serves read paths and is refreshed after submissions. May be nil.
	Cache RoomCache
	// Resolver supplies display metadata for submitted video references.
	Resolver metadata.Resolver
}

// AddItem submits a video to the room's queue and returns the created item.
//
// Validation:
//   - the room must exist and be active.
//   - the reference must resolve through the metadata collaborator;
//     otherwise ErrInvalidVideoRef.
//   - the room must not already hold an active item for the same reference;
//     otherwise ErrDuplicateItem. A partial unique index backs this check,
//     so concurrent duplicate submissions also surface as ErrDuplicateItem.
func (s *QueueService) AddItem(ctx context.Context, roomID, submitterID, videoRef string) (*domain.QueueItem, error) {
	info, err := s.Resolver.Resolve(ctx, videoRef)
	if err != nil {
		if errors.Is(err, metadata.ErrInvalidRef) {
			return nil, ErrInvalidVideoRef
		}
		return nil, err
	}

	var created *domain.QueueItem
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := repo.GetRoom(ctx, tx, roomID)
		if err != nil {
			if isNotFound(err) {
				return ErrRoomNotFound
			}
			return err
		}
		if !room.Active {
			return ErrRoomClosed
		}

		exists, err := repo.ActiveItemExists(ctx, tx, roomID, videoRef)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateItem
		}

		created, err = repo.CreateQueueItem(ctx, tx, roomID, submitterID, videoRef,
			info.Title, info.Thumbnail, info.DurationSec)
		if err != nil {
			if isDuplicate(err) {
				return ErrDuplicateItem
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	refreshCache(ctx, s.DB, s.Cache, roomID)

	return created, nil
}

// CurrentQueue returns the room's active queue in canonical order
// (net votes descending, submission time ascending). The cache is consulted
// first; a miss rebuilds from the tally store.
func (s *QueueService) CurrentQueue(ctx context.Context, roomID string) ([]domain.QueueItem, error) {
	snap, err := loadSnapshot(ctx, s.DB, s.Cache, roomID)
	if err != nil {
		return nil, err
	}
	if snap.Queue == nil {
		return []domain.QueueItem{}, nil
	}
	return snap.Queue, nil
}

// CurrentItem returns the room's currently playing item, or nil when the
// room is idle. Same cache-aside behavior as CurrentQueue.
func (s *QueueService) CurrentItem(ctx context.Context, roomID string) (*domain.QueueItem, error) {
	snap, err := loadSnapshot(ctx, s.DB, s.Cache, roomID)
	if err != nil {
		return nil, err
	}
	return snap.Current, nil
}
