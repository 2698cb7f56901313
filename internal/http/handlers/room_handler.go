// Room HTTP handlers.
//
// This file exposes REST endpoints for room resources:
//   - POST   /rooms              (create)
//   - POST   /rooms/join         (join by code)
//   - GET    /rooms/{id}         (fetch)
//   - POST   /rooms/{id}/advance (advance playback; admin only)
//   - POST   /rooms/{id}/leave   (leave)
//   - DELETE /rooms/{id}         (close; admin only)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qshare/go-queue-backend/internal/domain"
	"github.com/qshare/go-queue-backend/internal/services"
)

// CreateRoomRequest is the JSON payload for opening a room.
type CreateRoomRequest struct {
	// Name is the display name; blank names get a default.
	Name string `json:"name" example:"Friday movie night"`
}

// AdvanceResponse wraps the advance result. Item is null when the queue is
// exhausted; that is a valid terminal state, not an error.
type AdvanceResponse struct {
	Item *domain.QueueItem `json:"item"`
}

// JoinRoomRequest is the JSON payload for joining a room by code.
type JoinRoomRequest struct {
	// Code is the six-character room join code.
	Code string `json:"code" binding:"required,len=6" example:"XK42PW"`
}

// CreateRoom godoc
// @ID          createRoom
// @Summary     Create a room
// @Description Opens a new watch room administered by the caller and returns it, including the join code.
// @Tags        Rooms
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)" example(user123)
// @Param       body       body    handlers.CreateRoomRequest true "Room payload"
// @Success     201  {object} domain.Room
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /rooms [post]
func (h *Handlers) CreateRoom(c *gin.Context) {
	// The body is optional; a blank or missing name gets a default.
	var req CreateRoomRequest
	_ = c.ShouldBindJSON(&req)

	room, err := h.roomSvc.Create(c.Request.Context(), userID(c), req.Name)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, room)
}

// JoinRoom godoc
// @ID          joinRoom
// @Summary     Join a room by code
// @Tags        Rooms
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)" example(user123)
// @Param       body       body    handlers.JoinRoomRequest true "Join payload"
// @Success     200  {object} domain.Room
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     404  {object} handlers.ErrorResponse "Room not found"
// @Failure     409  {object} handlers.ErrorResponse "Room full or already joined"
// @Router      /rooms/join [post]
func (h *Handlers) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "code must be 6 characters")
		return
	}

	room, err := h.roomSvc.Join(c.Request.Context(), userID(c), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRoomNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "room not found")
		case errors.Is(err, services.ErrRoomFull):
			fail(c, http.StatusConflict, ErrCodeRoomFull, "room is full")
		case errors.Is(err, services.ErrAlreadyMember):
			fail(c, http.StatusConflict, ErrCodeConflict, "already a member of this room")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, room)
}

// GetRoom godoc
// @ID          getRoom
// @Summary     Fetch a room
// @Tags        Rooms
// @Produce     json
// @Param       id  path  string  true "Room ID (UUID)" format(uuid)
// @Success     200  {object} domain.Room
// @Failure     404  {object} handlers.ErrorResponse "Room not found"
// @Router      /rooms/{id} [get]
func (h *Handlers) GetRoom(c *gin.Context) {
	room, err := h.roomSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "room not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, room)
}

// AdvanceRoom godoc
// @ID          advanceRoom
// @Summary     Advance playback to the next queued item
// @Description Retires the current item and promotes the highest-voted queued item. Administrator only. An empty queue yields 200 with a null item.
// @Tags        Rooms
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)" example(user123)
// @Param       id         path    string  true  "Room ID (UUID)" format(uuid)
// @Success     200  {object} handlers.AdvanceResponse
// @Failure     403  {object} handlers.ErrorResponse "Not the administrator"
// @Failure     404  {object} handlers.ErrorResponse "Room not found"
// @Failure     410  {object} handlers.ErrorResponse "Room closed"
// @Router      /rooms/{id}/advance [post]
func (h *Handlers) AdvanceRoom(c *gin.Context) {
	next, err := h.roomSvc.Advance(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRoomNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "room not found")
		case errors.Is(err, services.ErrRoomClosed):
			fail(c, http.StatusGone, ErrCodeRoomClosed, "room is closed")
		case errors.Is(err, services.ErrUnauthorized):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the administrator can advance playback")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, AdvanceResponse{Item: next})
}

// LeaveRoom godoc
// @ID          leaveRoom
// @Summary     Leave a room
// @Tags        Rooms
// @Param       X-User-ID  header  string  false "User ID (demo header)" example(user123)
// @Param       id         path    string  true  "Room ID (UUID)" format(uuid)
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Not a member"
// @Router      /rooms/{id}/leave [post]
func (h *Handlers) LeaveRoom(c *gin.Context) {
	if err := h.roomSvc.Leave(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "not a member of this room")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// CloseRoom godoc
// @ID          closeRoom
// @Summary     Close a room
// @Description Deactivates the room and drops its cached state. Administrator only.
// @Tags        Rooms
// @Param       X-User-ID  header  string  false "User ID (demo header)" example(user123)
// @Param       id         path    string  true  "Room ID (UUID)" format(uuid)
// @Success     204  {string} string "No Content"
// @Failure     403  {object} handlers.ErrorResponse "Not the administrator"
// @Failure     404  {object} handlers.ErrorResponse "Room not found"
// @Failure     410  {object} handlers.ErrorResponse "Room already closed"
// @Router      /rooms/{id} [delete]
func (h *Handlers) CloseRoom(c *gin.Context) {
	if err := h.roomSvc.Close(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		switch {
		case errors.Is(err, services.ErrRoomNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "room not found")
		case errors.Is(err, services.ErrRoomClosed):
			fail(c, http.StatusGone, ErrCodeRoomClosed, "room already closed")
		case errors.Is(err, services.ErrUnauthorized):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the administrator can close the room")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
