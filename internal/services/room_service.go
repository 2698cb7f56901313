// Package services – RoomService
//
// This file implements room lifecycle (create, join, close) and the
// administrator-gated advance operation that retires the current item and
// promotes the next highest-ranked one. Advance runs in a single transaction
// so the "at most one current item per room" invariant holds under
// concurrent calls.
package services

import (
	"context"
	"crypto/rand"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/qshare/go-queue-backend/internal/domain"
	"github.com/qshare/go-queue-backend/internal/repo"
)

// joinCodeAlphabet deliberately omits easily-confused characters (0/O, 1/I/L).
const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// joinCodeLen is the fixed length of room join codes.
const joinCodeLen = 6

// RoomService provides room-level operations: creation with join-code
// generation, membership joins, administrator-gated close, and playback
// advance. It enforces capacity and ownership constraints.
type RoomService struct {
	// DB is the tally-store handle.
	DB *gorm.DB
	// Cache is refreshed on advance and invalidated on close. May be nil.
	Cache RoomCache

	// NameMaxLen caps stored room names by rune length.
	NameMaxLen int
	// MaxMembers is the default capacity for new rooms.
	MaxMembers int

	caser cases.Caser
}

// NewRoomService constructs a RoomService with sane defaults for name
// handling and capacity.
func NewRoomService(db *gorm.DB, rc RoomCache) *RoomService {
	return &RoomService{
		DB:         db,
		Cache:      rc,
		NameMaxLen: 60,
		MaxMembers: 10,
		caser:      cases.Title(language.English),
	}
}

// Create opens a new room administered by adminID and enrolls the admin as
// its first member. Names are normalized, title-cased, clipped, and a
// default fallback is applied. The join code is retried on the (rare)
// uniqueness collision.
func (s *RoomService) Create(ctx context.Context, adminID, name string) (*domain.Room, error) {
	name = s.normalizeName(name)

	var room *domain.Room
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		for attempt := 0; attempt < 3; attempt++ {
			room, err = repo.CreateRoom(ctx, tx, adminID, name, newJoinCode(), s.maxMembers())
			if err == nil {
				break
			}
			if !isDuplicate(err) {
				return err
			}
		}
		if err != nil {
			return err
		}
		if _, err := repo.AddMember(ctx, tx, room.ID, adminID, "admin"); err != nil {
			return err
		}
		if err := repo.UpdateRoomMemberCount(ctx, tx, room.ID, 1); err != nil {
			return err
		}
		room.MemberCount = 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// Join enrolls userID into the active room identified by joinCode.
//
// Errors:
//   - ErrRoomNotFound when no active room carries the code.
//   - ErrRoomFull when the room is at capacity.
//   - ErrAlreadyMember when the user already belongs to the room.
func (s *RoomService) Join(ctx context.Context, userID, joinCode string) (*domain.Room, error) {
	joinCode = strings.ToUpper(strings.TrimSpace(joinCode))

	var room *domain.Room
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		room, err = repo.GetRoomByCode(ctx, tx, joinCode)
		if err != nil {
			if isNotFound(err) {
				return ErrRoomNotFound
			}
			return err
		}

		// Existing members re-joining report their membership, not the
		// room's occupancy, so the membership check runs before the
		// capacity gate.
		already, err := repo.IsMember(ctx, tx, room.ID, userID)
		if err != nil {
			return err
		}
		if already {
			return ErrAlreadyMember
		}

		n, err := repo.CountMembers(ctx, tx, room.ID)
		if err != nil {
			return err
		}
		if room.MaxMembers > 0 && n >= int64(room.MaxMembers) {
			return ErrRoomFull
		}

		if _, err := repo.AddMember(ctx, tx, room.ID, userID, "member"); err != nil {
			if isDuplicate(err) {
				return ErrAlreadyMember
			}
			return err
		}
		if err := repo.UpdateRoomMemberCount(ctx, tx, room.ID, 1); err != nil {
			return err
		}
		room.MemberCount = int(n) + 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// Leave removes userID from the room's member list.
func (s *RoomService) Leave(ctx context.Context, roomID, userID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.RemoveMember(ctx, tx, roomID, userID); err != nil {
			if isNotFound(err) {
				return ErrRoomNotFound
			}
			return err
		}
		return repo.UpdateRoomMemberCount(ctx, tx, roomID, -1)
	})
}

// Close deactivates the room and drops its derived cache state wholesale.
// Only the administrator may close a room; the row is retained (soft close).
func (s *RoomService) Close(ctx context.Context, roomID, requesterID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := repo.GetRoom(ctx, tx, roomID)
		if err != nil {
			if isNotFound(err) {
				return ErrRoomNotFound
			}
			return err
		}
		if room.AdminID != requesterID {
			return ErrUnauthorized
		}
		if err := repo.CloseRoom(ctx, tx, roomID); err != nil {
			if isNotFound(err) {
				return ErrRoomClosed
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.Cache != nil {
		if cerr := s.Cache.Invalidate(ctx, roomID); cerr != nil {
			// The TTL will reap the stale entry; nothing to surface.
			logCacheInvalidateFailure(roomID, cerr)
		}
	}
	return nil
}

// Advance retires the currently playing item (if any) and promotes the head
// of the queue. It returns the newly current item, or nil when the queue is
// exhausted. An empty queue is a valid terminal state, not an error.
//
// The whole transition (mark played, pick head, set current, update room
// reference) commits atomically, so two concurrent advances cannot both
// retire the same item or leave two items current.
func (s *RoomService) Advance(ctx context.Context, roomID, requesterID string) (*domain.QueueItem, error) {
	var next *domain.QueueItem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
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
		if room.AdminID != requesterID {
			return ErrUnauthorized
		}

		// Retire the current item. A missing row means a concurrent advance
		// already retired it; the head selection below stays correct.
		if room.CurrentItemID != nil {
			if err := repo.MarkPlayed(ctx, tx, *room.CurrentItemID, time.Now().UTC()); err != nil && !isNotFound(err) {
				return err
			}
		}

		items, err := repo.ListActiveItems(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			next = nil
			return repo.SetRoomCurrentItem(ctx, tx, roomID, nil)
		}

		head := items[0]
		if err := repo.SetCurrent(ctx, tx, roomID, head.ID); err != nil {
			return err
		}
		if err := repo.SetRoomCurrentItem(ctx, tx, roomID, &head.ID); err != nil {
			return err
		}
		head.IsCurrent = true
		next = &head
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Refresh the cached current-item entry and advance the update cursor.
	refreshCache(ctx, s.DB, s.Cache, roomID)

	return next, nil
}

// Get returns a room by ID, mapping missing rows to ErrRoomNotFound.
func (s *RoomService) Get(ctx context.Context, roomID string) (*domain.Room, error) {
	room, err := repo.GetRoom(ctx, s.DB, roomID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// normalizeName trims whitespace, collapses runs of spaces, title-cases the
// result, clips it to NameMaxLen runes, and falls back to a default.
func (s *RoomService) normalizeName(name string) string {
	name = whitespaceRE.ReplaceAllString(strings.TrimSpace(name), " ")
	if name == "" {
		return "Watch Room"
	}
	name = s.caser.String(name)
	if s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen {
		return string([]rune(name)[:s.NameMaxLen])
	}
	return name
}

func (s *RoomService) maxMembers() int {
	if s.MaxMembers > 0 {
		return s.MaxMembers
	}
	return 10
}

// newJoinCode returns a fixed-length code drawn from the unambiguous
// alphabet. Uniqueness is enforced by the DB index; callers retry on
// collision.
func newJoinCode() string {
	buf := make([]byte, joinCodeLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is unrecoverable for code generation; fall
		// back to a time-derived code rather than panic in a request path.
		t := time.Now().UnixNano()
		for i := range buf {
			buf[i] = joinCodeAlphabet[int(t>>(uint(i)*5))%len(joinCodeAlphabet)]
		}
		return string(buf)
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf)
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
