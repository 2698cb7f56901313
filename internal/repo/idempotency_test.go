package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIdempotency_CreateAndReplayWindow(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec, err := CreateIdempotency(ctx, db, "u1", "room-1", "key-1", "item-1", 201, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ItemID != "item-1" || rec.Status != 201 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "u1", "room-1", "key-1", now)
	if err != nil || got == nil || got.ItemID != "item-1" {
		t.Fatalf("replay lookup failed: rec=%v err=%v", got, err)
	}

	// Expired records are invisible.
	if _, err := GetIdempotency(ctx, db, "u1", "room-1", "key-1", now.Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired lookup: got %v, want ErrNotFound", err)
	}

	// Key scope is (user, room, key): a different user or room misses.
	if _, err := GetIdempotency(ctx, db, "u2", "room-1", "key-1", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other user should miss: %v", err)
	}
	if _, err := GetIdempotency(ctx, db, "u1", "room-2", "key-1", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other room should miss: %v", err)
	}
}

func TestIdempotency_DuplicateKey(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "room-1", "key-1", "item-1", 201, time.Hour); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, "u1", "room-1", "key-1", "item-2", 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second create: got %v, want ErrDuplicate", err)
	}
}

func TestGetIdempotency_BlankRoomShortCircuits(t *testing.T) {
	db := newRepoDB(t)
	if _, err := GetIdempotency(context.Background(), db, "u1", "  ", "key", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("blank room: got %v, want ErrNotFound", err)
	}
}
