package share

import "errors"

var (
	// ErrLinkNotFound indicates the token does not resolve: never issued,
	// already consumed, or superseded by a later issue.
	ErrLinkNotFound = errors.New("share link not found")
	// ErrLinkExpired is returned when a link is found past its expiry. The row
	// is removed as a side effect; the token never resolves again.
	ErrLinkExpired = errors.New("share link expired")
	// ErrInvalidDuration rejects non-positive or out-of-bounds TTLs.
	ErrInvalidDuration = errors.New("invalid share duration")
)
