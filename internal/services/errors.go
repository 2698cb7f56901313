// Package services defines the business logic for rooms, queue items, votes,
// and sync polling. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer. Transient infrastructure failures are not represented here: cache
// failures are degraded locally, and tally-store failures propagate as raw DB
// errors.
package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/qshare/go-queue-backend/internal/repo"
)

// Room-related errors.
var (
	// ErrRoomNotFound indicates that the requested room does not exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomClosed is returned when an operation targets a room that has
	// been deactivated by its administrator.
	ErrRoomClosed = errors.New("room is closed")

	// ErrRoomFull is returned when a join would exceed the room's member
	// capacity.
	ErrRoomFull = errors.New("room is full")

	// ErrAlreadyMember is returned when a user attempts to join a room they
	// already belong to.
	ErrAlreadyMember = errors.New("already a member of this room")

	// ErrUnauthorized is returned when a non-administrator attempts an
	// administrator-only action (advance, close).
	ErrUnauthorized = errors.New("requester is not the room administrator")
)

// Queue- and vote-related errors.
var (
	// ErrItemNotFound indicates that the requested queue item does not exist.
	ErrItemNotFound = errors.New("queue item not found")

	// ErrItemPlayed is returned when a vote targets an item that has already
	// been played; played items are immutable.
	ErrItemPlayed = errors.New("queue item already played")

	// ErrDuplicateItem is returned when a room already holds an active
	// (non-played) item for the same external video reference.
	ErrDuplicateItem = errors.New("video already queued in this room")

	// ErrInvalidVote is returned when a vote value is outside the allowed
	// set (currently -1 or 1).
	ErrInvalidVote = errors.New("vote value must be -1 or 1")

	// ErrInvalidVideoRef is returned when the external video reference
	// cannot be resolved by the metadata collaborator.
	ErrInvalidVideoRef = errors.New("video reference cannot be resolved")

	// ErrVoteConflict is returned when a concurrent vote on the same item by
	// the same user collides on the uniqueness constraint. The operation is
	// safe to retry.
	ErrVoteConflict = errors.New("concurrent vote detected, retry")
)

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way. It also checks gorm.ErrRecordNotFound for safety.
func isNotFound(err error) bool {
	if errors.Is(err, repo.ErrNotFound) {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
