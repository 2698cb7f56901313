// Queue HTTP handlers.
//
// This file exposes REST endpoints for queue resources:
//   - POST /rooms/{id}/queue    (submit a video)
//   - GET  /rooms/{id}/queue    (list active queue, ETag support)
//   - GET  /rooms/{id}/current  (currently playing item)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// submission with the same key exists, the handler returns the originally
// created item and sets `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qshare/go-queue-backend/internal/repo"
	"github.com/qshare/go-queue-backend/internal/services"
)

// AddItemRequest is the JSON payload for submitting a video to the queue.
type AddItemRequest struct {
	// VideoRef is the external video identifier (YouTube-style, 11 chars).
	VideoRef string `json:"video_ref" binding:"required" example:"dQw4w9WgXcQ"`
}

// IdempotencyTTL is how long a stored Idempotency-Key remains replayable.
// The router overrides this from configuration.
var IdempotencyTTL = 24 * time.Hour

// AddItem godoc
// @ID          addQueueItem
// @Summary     Submit a video to the room queue
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Queue
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  false "User ID (demo header)" example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       id               path    string  true  "Room ID (UUID)" format(uuid)
// @Param       body             body    handlers.AddItemRequest true "Submission payload"
// @Success     201  {object} domain.QueueItem
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload or reference"
// @Failure     404  {object} handlers.ErrorResponse "Room not found"
// @Failure     409  {object} handlers.ErrorResponse "Video already queued"
// @Failure     410  {object} handlers.ErrorResponse "Room closed"
// @Router      /rooms/{id}/queue [post]
func (h *Handlers) AddItem(c *gin.Context) {
	ctx := c.Request.Context()
	roomID := c.Param("id")
	uid := userID(c)

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "video_ref is required")
		return
	}

	// Idempotency (replay path) – return the original item for a repeated key.
	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	db := h.queueDB()
	if idemKey != "" && db != nil {
		if rec, err := repo.GetIdempotency(ctx, db, uid, roomID, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if item, err := repo.GetQueueItem(ctx, db, rec.ItemID); err == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, rec.Status, item)
				return
			}
		}
	}

	item, err := h.queueSvc.AddItem(ctx, roomID, uid, req.VideoRef)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRoomNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "room not found")
		case errors.Is(err, services.ErrRoomClosed):
			fail(c, http.StatusGone, ErrCodeRoomClosed, "room is closed")
		case errors.Is(err, services.ErrInvalidVideoRef):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "video reference cannot be resolved")
		case errors.Is(err, services.ErrDuplicateItem):
			fail(c, http.StatusConflict, ErrCodeConflict, "video already queued in this room")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && db != nil {
		_, _ = repo.CreateIdempotency(ctx, db, uid, roomID, idemKey, item.ID, http.StatusCreated, IdempotencyTTL)
	}

	ok(c, http.StatusCreated, item)
}

// ListQueue godoc
// @ID          listQueue
// @Summary     List the room's active queue
// @Description Returns non-played items ordered by net votes (desc) then submission time (asc). Supports weak ETag via If-None-Match and may return 304.
// @Tags        Queue
// @Produce     json
// @Param       id             path    string  true  "Room ID (UUID)" format(uuid)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Success     200  {array}  domain.QueueItem
// @Header      200  {string} ETag "Weak ETag for current result"
// @Failure     404  {object} handlers.ErrorResponse "Room not found"
// @Router      /rooms/{id}/queue [get]
func (h *Handlers) ListQueue(c *gin.Context) {
	ctx := c.Request.Context()
	roomID := c.Param("id")

	// ETag pre-check (best effort).
	if db := h.queueDB(); db != nil {
		count, maxTS, err := repo.QueueStats(ctx, db, roomID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"queue:%s:%d:%d"`, roomID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.queueSvc.CurrentQueue(ctx, roomID)
	if err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "room not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// CurrentItem godoc
// @ID          currentItem
// @Summary     Fetch the currently playing item
// @Tags        Queue
// @Produce     json
// @Param       id  path  string  true "Room ID (UUID)" format(uuid)
// @Success     200  {object} handlers.AdvanceResponse
// @Failure     404  {object} handlers.ErrorResponse "Room not found"
// @Router      /rooms/{id}/current [get]
func (h *Handlers) CurrentItem(c *gin.Context) {
	item, err := h.queueSvc.CurrentItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "room not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, AdvanceResponse{Item: item})
}

// queueDB exposes the concrete service's DB handle for ETag and idempotency
// lookups without widening the QueueService contract.
func (h *Handlers) queueDB() *gorm.DB {
	if svc, ok := h.queueSvc.(*services.QueueService); ok {
		return svc.DB
	}
	return nil
}
