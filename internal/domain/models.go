// Package domain defines the persistence models for rooms, queue items, and
// votes. These types are mapped with GORM and form the authoritative data
// layer (the tally store) of the shared-queue application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Room represents a watch room in which members collaboratively curate a
// video queue. A room is created by an administrator and soft-closed (never
// hard-deleted) when the session ends.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: human-readable room name.
//   - JoinCode: short alphanumeric code members use to join; unique.
//   - AdminID: identifier of the room administrator; only the admin may
//     advance playback or close the room.
//   - Active: false once the room has been closed.
//   - MemberCount / MaxMembers: current and maximum participant counts.
//   - CurrentItemID: the queue item currently playing, nil when idle.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Room struct {
	ID            string         `json:"id"              gorm:"type:char(36);primaryKey"`
	Name          string         `json:"name"            gorm:"type:varchar(255);not null"`
	JoinCode      string         `json:"join_code"       gorm:"type:char(6);not null;uniqueIndex:ux_room_join_code"`
	AdminID       string         `json:"admin_id"        gorm:"type:varchar(64);not null;index"`
	Active        bool           `json:"active"          gorm:"not null;default:true"`
	MemberCount   int            `json:"member_count"    gorm:"not null;default:0"`
	MaxMembers    int            `json:"max_members"     gorm:"not null;default:10"`
	CurrentItemID *string        `json:"current_item_id" gorm:"type:char(36)"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"               gorm:"index"`
}

// TableName returns the database table name for Room.
func (Room) TableName() string { return "rooms" }

// QueueItem represents a video submitted to a room's queue. Items accumulate
// votes while queued; the derived NetVotes column is always recomputed from
// the raw counters, never tracked independently. An item whose IsPlayed flag
// is set is terminal: it accepts no further votes and never re-enters the
// queue.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - RoomID: foreign key to the owning room (indexed).
//   - VideoRef: external video identifier; opaque to this service.
//   - Title / Thumbnail / DurationSec: display metadata from the resolver.
//   - SubmitterID: identifier of the member who submitted the item.
//   - Upvotes / Downvotes: raw vote counters.
//   - NetVotes: upvotes − downvotes; primary queue sort key.
//   - IsPlayed / IsCurrent: playback state flags. At most one item per room
//     carries IsCurrent.
//   - SubmittedAt: tie-breaker for queue ordering (earlier wins).
//   - PlayedAt: set when the item is retired by an advance.
type QueueItem struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	RoomID      string         `json:"room_id"      gorm:"type:char(36);not null;index:idx_room_items,priority:1"`
	VideoRef    string         `json:"video_ref"    gorm:"type:varchar(64);not null;index"`
	Title       string         `json:"title"        gorm:"type:varchar(255);not null"`
	Thumbnail   string         `json:"thumbnail"    gorm:"type:varchar(512)"`
	DurationSec int            `json:"duration_sec" gorm:"not null;default:0"`
	SubmitterID string         `json:"submitter_id" gorm:"type:varchar(64);not null"`
	Upvotes     int            `json:"upvotes"      gorm:"not null;default:0"`
	Downvotes   int            `json:"downvotes"    gorm:"not null;default:0"`
	NetVotes    int            `json:"net_votes"    gorm:"not null;default:0"`
	IsPlayed    bool           `json:"is_played"    gorm:"not null;default:false;index:idx_room_items,priority:2"`
	IsCurrent   bool           `json:"is_current"   gorm:"not null;default:false"`
	SubmittedAt time.Time      `json:"submitted_at" gorm:"not null"`
	PlayedAt    *time.Time     `json:"played_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`

	// Room is the owning room. Items are cascade-deleted if the room row
	// is ever removed.
	Room Room `json:"-" gorm:"foreignKey:RoomID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for QueueItem.
func (QueueItem) TableName() string { return "queue_items" }

// Vote represents a single member's signed vote on a queue item. A member
// holds at most one vote per item (enforced by unique index); re-voting the
// same direction removes the row, re-voting the opposite direction flips it.
// Removal is a hard delete: the (item, user) slot in the unique index must
// free immediately so the member can vote on the item again later.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - QueueItemID: foreign key to the voted item (unique per user).
//   - UserID: identifier of the voter (unique per item).
//   - Value: +1 (upvote) or -1 (downvote), enforced by DB constraint.
type Vote struct {
	ID          string    `json:"id"            gorm:"type:char(36);primaryKey"`
	QueueItemID string    `json:"queue_item_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_vote_item_user"`
	UserID      string    `json:"user_id"       gorm:"type:varchar(64);not null;index;uniqueIndex:ux_vote_item_user"`
	Value       int       `json:"value"         gorm:"not null;check:value IN (-1,1)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// QueueItem is the voted item. Votes are cascade-deleted if the
	// underlying item is removed.
	QueueItem QueueItem `json:"-" gorm:"foreignKey:QueueItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Vote.
func (Vote) TableName() string { return "votes" }

// RoomMember records a user's membership in a room. The queue engine needs
// membership only for sync payloads and capacity checks; richer presence
// bookkeeping lives outside this service. Leaving hard-deletes the row so
// the (room, user) unique slot frees and the member can re-join.
type RoomMember struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	RoomID    string    `json:"room_id"   gorm:"type:char(36);not null;index;uniqueIndex:ux_member_room_user"`
	UserID    string    `json:"user_id"   gorm:"type:varchar(64);not null;index;uniqueIndex:ux_member_room_user"`
	Role      string    `json:"role"      gorm:"type:varchar(16);not null;default:'member';check:role IN ('admin','member')"`
	JoinedAt  time.Time `json:"joined_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Room Room `json:"-" gorm:"foreignKey:RoomID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RoomMember.
func (RoomMember) TableName() string { return "room_members" }

// Idempotency represents a recorded result of a previously processed request,
// keyed by (user_id, room_id, key). It enables safe retries for POST
// operations by returning the originally produced response without
// re-executing side effects.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_room_key,priority:1"`
	RoomID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_room_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_room_key,priority:3"`
	ItemID    string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

// RoomSnapshot is the derived, cacheable view of a room's queue state. It is
// never authoritative: the tally store can rebuild it at any time, and every
// mutating operation overwrites it.
//
// VoteIndex maps userID → itemID → vote value so pollers can annotate the
// queue with "what did I vote" without an extra store round-trip.
type RoomSnapshot struct {
	Queue     []QueueItem               `json:"queue"`
	Current   *QueueItem                `json:"current,omitempty"`
	VoteIndex map[string]map[string]int `json:"vote_index,omitempty"`
	Cursor    int64                     `json:"cursor"`
}

// UserVotes returns the vote index entries for a single user, never nil.
func (s *RoomSnapshot) UserVotes(userID string) map[string]int {
	if s == nil || s.VoteIndex == nil {
		return map[string]int{}
	}
	if m, ok := s.VoteIndex[userID]; ok && m != nil {
		return m
	}
	return map[string]int{}
}
