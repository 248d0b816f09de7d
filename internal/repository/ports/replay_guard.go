package ports

import (
	"context"
	"time"
)

// ReplayGuard tracks consumed one-time token ids. Consume must be an atomic
// check-and-set: exactly one concurrent caller wins for a given token id.
// Entries may be discarded once expiresAt has passed; the token itself is
// unverifiable by then.
type ReplayGuard interface {
	// Consume records tokenID as used. Returns false if it was already
	// consumed.
	Consume(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error)
}
