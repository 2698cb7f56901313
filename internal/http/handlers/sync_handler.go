// Sync HTTP handler.
//
// Exposes GET /rooms/{id}/sync?cursor=N. The cursor comes from the client's
// previous response; when nothing changed since then the reply carries only
// the cursor, so idle rooms poll cheaply.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qshare/go-queue-backend/internal/domain"
	"github.com/qshare/go-queue-backend/internal/services"
	"github.com/qshare/go-queue-backend/internal/utils"
)

// SyncResponse is the poll reply. Queue, Current, Members, and MyVotes are
// present only when HasUpdates is true.
type SyncResponse struct {
	HasUpdates bool                `json:"has_updates"`
	Cursor     int64               `json:"cursor"`
	Queue      []domain.QueueItem  `json:"queue,omitempty"`
	Current    *domain.QueueItem   `json:"current,omitempty"`
	Members    []domain.RoomMember `json:"members,omitempty"`
	MyVotes    map[string]int      `json:"my_votes,omitempty"`
}

// SyncRoom godoc
// @ID          syncRoom
// @Summary     Poll a room for updates
// @Description Compares the client cursor against the room's update cursor. Unchanged rooms return `{"has_updates": false, "cursor": N}`. A cursor of 0 (or absent) always returns full state.
// @Tags        Sync
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)" example(user123)
// @Param       id         path    string  true  "Room ID (UUID)" format(uuid)
// @Param       cursor     query   int     false "Cursor from the previous response" default(0)
// @Success     200  {object} handlers.SyncResponse
// @Failure     404  {object} handlers.ErrorResponse "Room not found"
// @Failure     410  {object} handlers.ErrorResponse "Room closed"
// @Router      /rooms/{id}/sync [get]
func (h *Handlers) SyncRoom(c *gin.Context) {
	cursor := utils.Int64Default(c.Query("cursor"), 0)
	if cursor < 0 {
		cursor = 0
	}

	res, err := h.syncSvc.Sync(c.Request.Context(), c.Param("id"), userID(c), cursor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRoomNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "room not found")
		case errors.Is(err, services.ErrRoomClosed):
			fail(c, http.StatusGone, ErrCodeRoomClosed, "room is closed")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, SyncResponse{
		HasUpdates: res.HasUpdates,
		Cursor:     res.Cursor,
		Queue:      res.Queue,
		Current:    res.Current,
		Members:    res.Members,
		MyVotes:    res.MyVotes,
	})
}
