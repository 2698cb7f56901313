// Package cache implements the derived, TTL-bounded read layer over the
// tally store, backed by Redis. It holds a JSON-serialized snapshot of each
// room's active queue, the currently playing item, a per-voter vote index,
// and a monotonically non-decreasing update cursor that pollers compare
// against to detect change cheaply.
//
// The cache is a performance optimization with copy semantics: it may be
// dropped, expire, or lose writes at any time without data loss, because
// every reader falls back to rebuilding from the tally store on a miss.
// Writes always carry a bounded TTL so a stale snapshot cannot outlive the
// absence of further writes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qshare/go-queue-backend/internal/domain"
)

// ErrMiss is returned by ReadState when no snapshot is cached for the room
// (absent key or expired TTL). Callers rebuild from the tally store.
var ErrMiss = errors.New("cache miss")

// bumpCursorScript advances the room cursor to the current wall-clock
// milliseconds, floored so it can never regress: if the clock reads at or
// below the stored value (burst of mutations within one millisecond, or an
// expired key racing a slow clock), the cursor steps by one instead.
const bumpCursorScript = `
local prev = tonumber(redis.call('GET', KEYS[1]) or '0')
local next = tonumber(ARGV[1])
if next <= prev then
	next = prev + 1
end
redis.call('SET', KEYS[1], next, 'EX', ARGV[2])
return next
`

// Cache is the Redis-backed room state cache. Safe for concurrent use;
// "last write wins" per room is acceptable because readers always have the
// rebuild path.
type Cache struct {
	rc         *redis.Client
	ttl        time.Duration
	bumpScript *redis.Script
}

// New constructs a Cache over the given client. ttl bounds the lifetime of
// every key the cache writes; values <= 0 default to 30 seconds.
func New(rc *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{
		rc:         rc,
		ttl:        ttl,
		bumpScript: redis.NewScript(bumpCursorScript),
	}
}

func stateKey(roomID string) string  { return "room:" + roomID + ":state" }
func cursorKey(roomID string) string { return "room:" + roomID + ":cursor" }

// ReadState returns the cached snapshot for a room, or ErrMiss when nothing
// usable is cached. A successful read refreshes the key's TTL so an actively
// polled room stays warm.
func (c *Cache) ReadState(ctx context.Context, roomID string) (*domain.RoomSnapshot, error) {
	raw, err := c.rc.Get(ctx, stateKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		cacheMisses.Inc()
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var snap domain.RoomSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A corrupt entry is indistinguishable from a miss; the rebuild
		// path overwrites it.
		cacheMisses.Inc()
		return nil, ErrMiss
	}

	c.rc.Expire(ctx, stateKey(roomID), c.ttl)
	cacheHits.Inc()
	return &snap, nil
}

// WriteState overwrites the room's snapshot with a fresh TTL. The snapshot's
// Cursor field is stored as part of the blob for full-state responses, but
// the authoritative cursor lives under its own key (see BumpCursor/Cursor).
func (c *Cache) WriteState(ctx context.Context, roomID string, snap *domain.RoomSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.rc.Set(ctx, stateKey(roomID), raw, c.ttl).Err()
}

// BumpCursor advances the room's update cursor and returns the new value.
// The cursor is monotonic per room: it never returns a value at or below the
// previous one, which is what lets pollers infer "something changed" from
// "cursor increased".
func (c *Cache) BumpCursor(ctx context.Context, roomID string) (int64, error) {
	now := time.Now().UnixMilli()
	res, err := c.bumpScript.Run(ctx, c.rc,
		[]string{cursorKey(roomID)},
		now, int(c.ttl.Seconds())).Int64()
	if err != nil {
		return 0, err
	}
	return res, nil
}

// Cursor returns the room's current update cursor, or 0 when none is cached
// (expired or never bumped). A zero cursor tells the sync path to rebuild
// and establish a fresh one.
func (c *Cache) Cursor(ctx context.Context, roomID string) (int64, error) {
	v, err := c.rc.Get(ctx, cursorKey(roomID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	c.rc.Expire(ctx, cursorKey(roomID), c.ttl)
	return v, nil
}

// Invalidate drops all derived state for a room. Used on room closure; this
// is the only operation that removes cache state wholesale rather than
// overwriting it.
func (c *Cache) Invalidate(ctx context.Context, roomID string) error {
	pipe := c.rc.TxPipeline()
	pipe.Del(ctx, stateKey(roomID))
	pipe.Del(ctx, cursorKey(roomID))
	_, err := pipe.Exec(ctx)
	return err
}
