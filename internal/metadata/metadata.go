// Package metadata defines the external video-metadata collaborator. The
// queue engine treats display metadata (title, thumbnail, duration) as
// opaque; resolution happens through the Resolver interface so deployments
// can plug in a real lookup service.
//
// The package ships a credential-free Static resolver that validates the
// reference syntactically and substitutes placeholder metadata instead of
// failing. This capability-degraded mode keeps rooms usable when no lookup
// credentials are configured.
package metadata

import (
	"context"
	"errors"
	"regexp"
)

// ErrInvalidRef indicates that the external video reference is syntactically
// invalid and cannot identify a video.
var ErrInvalidRef = errors.New("invalid video reference")

// VideoInfo is the display metadata attached to a queue item.
type VideoInfo struct {
	Title       string
	Thumbnail   string
	DurationSec int
}

// Resolver resolves an external video reference to display metadata.
// Implementations should honor the context for cancellation and return
// ErrInvalidRef for references that cannot possibly resolve.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (VideoInfo, error)
}

// refPattern accepts YouTube-style video identifiers: exactly 11 characters
// from the URL-safe base64 alphabet.
var refPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ValidRef reports whether ref is a syntactically plausible video reference.
func ValidRef(ref string) bool { return refPattern.MatchString(ref) }

// Static is the degraded resolver used when no metadata credentials are
// configured. It validates the reference shape and returns a placeholder
// title with zero duration rather than failing the submission.
type Static struct {
	// PlaceholderTitle overrides the default "Untitled video" when set.
	PlaceholderTitle string
}

// Resolve implements Resolver.
func (s Static) Resolve(_ context.Context, ref string) (VideoInfo, error) {
	if !ValidRef(ref) {
		return VideoInfo{}, ErrInvalidRef
	}
	title := s.PlaceholderTitle
	if title == "" {
		title = "Untitled video"
	}
	return VideoInfo{
		Title:       title,
		Thumbnail:   "https://i.ytimg.com/vi/" + ref + "/default.jpg",
		DurationSec: 0,
	}, nil
}
