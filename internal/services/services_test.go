package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qshare/go-queue-backend/internal/cache"
	"github.com/qshare/go-queue-backend/internal/domain"
	"github.com/qshare/go-queue-backend/internal/metadata"
	"github.com/qshare/go-queue-backend/internal/repo"
)

// newServiceDB opens a throwaway SQLite database with the full schema.
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("svc_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// fakeCache is an in-memory RoomCache with the same contract as the Redis
// implementation: ErrMiss on absent snapshots and a monotonic cursor.
type fakeCache struct {
	mu       sync.Mutex
	states   map[string]*domain.RoomSnapshot
	cursors  map[string]int64
	failRead bool // simulate a transient cache outage on the read paths
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		states:  make(map[string]*domain.RoomSnapshot),
		cursors: make(map[string]int64),
	}
}

func (f *fakeCache) ReadState(_ context.Context, roomID string) (*domain.RoomSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead {
		return nil, fmt.Errorf("connection refused")
	}
	snap, ok := f.states[roomID]
	if !ok {
		return nil, cache.ErrMiss
	}
	return snap, nil
}

func (f *fakeCache) WriteState(_ context.Context, roomID string, snap *domain.RoomSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[roomID] = snap
	return nil
}

func (f *fakeCache) BumpCursor(_ context.Context, roomID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := time.Now().UnixMilli()
	if prev := f.cursors[roomID]; next <= prev {
		next = prev + 1
	}
	f.cursors[roomID] = next
	return next, nil
}

func (f *fakeCache) Cursor(_ context.Context, roomID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead {
		return 0, fmt.Errorf("connection refused")
	}
	return f.cursors[roomID], nil
}

func (f *fakeCache) Invalidate(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, roomID)
	delete(f.cursors, roomID)
	return nil
}

// newStack wires the four services over a shared DB and fake cache.
func newStack(t *testing.T) (*gorm.DB, *fakeCache, *RoomService, *QueueService, *VoteService, *SyncService) {
	t.Helper()
	db := newServiceDB(t)
	fc := newFakeCache()
	rooms := NewRoomService(db, fc)
	queue := &QueueService{DB: db, Cache: fc, Resolver: metadata.Static{}}
	votes := &VoteService{DB: db, Cache: fc}
	syncs := &SyncService{DB: db, Cache: fc}
	return db, fc, rooms, queue, votes, syncs
}

func mustCreateRoom(t *testing.T, rooms *RoomService, adminID string) *domain.Room {
	t.Helper()
	room, err := rooms.Create(context.Background(), adminID, "Friday Night")
	if err != nil {
		t.Fatalf("Create room: %v", err)
	}
	return room
}

func mustAddItem(t *testing.T, queue *QueueService, roomID, userID, ref string) *domain.QueueItem {
	t.Helper()
	it, err := queue.AddItem(context.Background(), roomID, userID, ref)
	if err != nil {
		t.Fatalf("AddItem(%s): %v", ref, err)
	}
	return it
}
