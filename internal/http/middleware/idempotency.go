// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for queue submissions. A client
// retrying POST /rooms/:id/queue after a dropped connection must not enqueue
// the same video twice, so it sends an Idempotency-Key header; this
// middleware validates the key, optionally consults a lookup for a
// previously completed submission, and annotates the request context so
// downstream handlers can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay)
//   - bypass rate limiting when a replay is served (via an internal flag)
//
// Transport concerns (validation, context stashing) live here; persistence
// stays behind the narrow IdempotencyLookup function type.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client's
// idempotency key for queue submissions. The value must stay stable across
// retries of the same submission so duplicates can be collapsed.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys stashing idempotency state, read back via the accessors.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// GetIdempotencyKey returns the validated idempotency key stored by
// IdempotencyValidator; the second value reports presence. Handlers read the
// key here rather than from the header, so they only ever see validated keys.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request replays a previously completed
// submission for the same (user, room, key). When true, the handler serves
// the already-enqueued item instead of inserting a duplicate.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
// TTL enforcement belongs to the lookup function, not here.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative RFC7230-like
	// token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
	// NOTE: TTL is not enforced here; enforce it within your IdempotencyLookup.
}

// IdempotencyLookup answers whether a still-valid completed submission
// exists for (userID, roomID, key) at the given time. The repo-backed
// implementation checks the stored record and its TTL window.
//
// Return exists=true when the prior submission can be replayed; return an
// error only for lookup failures, which must not block normal processing.
type IdempotencyLookup func(ctx context.Context, userID, roomID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header when present,
// stashes it in the request context, and optionally checks for a prior
// completed submission via the supplied lookup.
//
// Behavior:
//   - Header absent: no-op.
//   - Header fails validation: 400 with a compact error body.
//   - Lookup reports a replay: the replay and rate-bypass flags are set, so
//     IsReplay turns true and the rate limiter skips the request.
//   - The next handler always runs unless validation fails.
//
// The middleware never returns a cached payload itself; the queue handler
// decides how a replay is served (it re-reads the stored item).
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		// RFC-7230-ish token + common safe chars.
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		// A stored prior submission marks the request as a replay.
		if lookup != nil {
			uid := userIDFromCtx(c)
			roomID := c.Param("id") // POST /rooms/:id/queue uses :id
			now := time.Now().UTC()

			if exists, _ := lookup(c.Request.Context(), uid, roomID, key, now); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true) // replays consume no tokens
			}
		}

		c.Next()
	}
}

// userIDFromCtx reads the member identity set by the upstream identity
// middleware, falling back to "demo-user" when none is available.
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "demo-user"
}
