package ports

import (
	"context"

	"github.com/layer-3/turnstile/core"
)

// ReplayGuard tracks which payment references have been redeemed.
// The set is append-only: a marked reference stays marked forever.
type ReplayGuard interface {
	// Contains reports whether the reference has already been redeemed.
	// Errors are surfaced, not swallowed: a store outage must never read
	// as "not yet used".
	Contains(ctx context.Context, ref core.Reference) (bool, error)

	// TryMark atomically records the reference as redeemed. It returns true
	// only for the single caller that performed the first mark; concurrent
	// callers on the same reference get false. A write failure returns an
	// error and leaves the reference unmarked.
	TryMark(ctx context.Context, ref core.Reference) (bool, error)
}
