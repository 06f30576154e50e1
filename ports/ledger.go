package ports

import (
	"context"

	"github.com/layer-3/turnstile/core"
)

// Ledger resolves a payment reference to its finalized on-chain effects.
// Implementations return core.ErrTxNotFound for unknown references and wrap
// core.ErrLedgerUnavailable for transport failures, so callers can tell a
// terminal rejection from a retryable outage.
type Ledger interface {
	TransactionResult(ctx context.Context, ref core.Reference) (*core.TransactionResult, error)
}
