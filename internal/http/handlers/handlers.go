// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the service contracts the handlers depend on and the
// Handlers aggregate that the router wires up. Handlers are transport-thin:
// they validate input, delegate to application services, and translate
// domain/service errors into HTTP results.
package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qshare/go-queue-backend/internal/domain"
	"github.com/qshare/go-queue-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// RoomService defines room lifecycle and playback-advance operations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RoomService interface {
	// Create opens a new room administered by adminID.
	Create(ctx context.Context, adminID, name string) (*domain.Room, error)
	// Join enrolls userID into the active room carrying joinCode.
	Join(ctx context.Context, userID, joinCode string) (*domain.Room, error)
	// Leave removes userID from the room's member list.
	Leave(ctx context.Context, roomID, userID string) error
	// Close deactivates a room; administrator only.
	Close(ctx context.Context, roomID, requesterID string) error
	// Advance retires the current item and promotes the queue head.
	Advance(ctx context.Context, roomID, requesterID string) (*domain.QueueItem, error)
	// Get returns a room by ID.
	Get(ctx context.Context, roomID string) (*domain.Room, error)
}

// QueueService defines queue reads and item submission.
type QueueService interface {
	// AddItem submits a video reference to the room's queue.
	AddItem(ctx context.Context, roomID, submitterID, videoRef string) (*domain.QueueItem, error)
	// CurrentQueue returns the active queue in canonical order.
	CurrentQueue(ctx context.Context, roomID string) ([]domain.QueueItem, error)
	// CurrentItem returns the currently playing item, or nil.
	CurrentItem(ctx context.Context, roomID string) (*domain.QueueItem, error)
}

// VoteService defines the vote engine surface.
type VoteService interface {
	// Apply records a vote intent (-1 or +1) and returns updated tallies.
	Apply(ctx context.Context, userID, itemID string, value int) (*domain.QueueItem, error)
	// Stored returns the vote the user currently holds on the item, 0 when none.
	Stored(ctx context.Context, userID, itemID string) (int, error)
}

// SyncService defines the cursor-gated poll surface.
type SyncService interface {
	// Sync compares cursors and returns either "no updates" or full state.
	Sync(ctx context.Context, roomID, userID string, clientCursor int64) (*services.SyncResult, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for rooms, queue items, votes, and sync.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	roomSvc  RoomService
	queueSvc QueueService
	voteSvc  VoteService
	syncSvc  SyncService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(room RoomService, queue QueueService, vote VoteService, sync SyncService) *Handlers {
	return &Handlers{
		roomSvc:  room,
		queueSvc: queue,
		voteSvc:  vote,
		syncSvc:  sync,
	}
}

// userID resolves the caller's identity: context (set by auth middleware) →
// X-User-ID header → demo fallback. Real deployments terminate auth upstream
// and inject the verified identity into the context.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}
