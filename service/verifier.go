package service

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/layer-3/turnstile/core"
	"github.com/layer-3/turnstile/ports"
)

// VerifierService decides whether a payment reference proves a qualifying
// payment. Its only side effect is the single replay-guard mark that happens
// when a reference is redeemed.
type VerifierService struct {
	ledger        ports.Ledger
	replay        ports.ReplayGuard
	lookupTimeout time.Duration
}

// NewVerifierService creates a new payment verifier.
func NewVerifierService(ledger ports.Ledger, replay ports.ReplayGuard, lookupTimeout time.Duration) *VerifierService {
	return &VerifierService{
		ledger:        ledger,
		replay:        replay,
		lookupTimeout: lookupTimeout,
	}
}

// Verify checks the referenced transaction against the requirement. A non-nil
// error means the ledger or the replay store could not answer and the caller
// may retry; a rejected Outcome is terminal for this reference.
func (s *VerifierService) Verify(ctx context.Context, ref core.Reference, req core.Requirement) (core.Outcome, error) {
	// Cheap pre-check to skip the ledger round trip for known references.
	// The authoritative dedup point is the TryMark below.
	used, err := s.replay.Contains(ctx, ref)
	if err != nil {
		return core.Outcome{}, err
	}
	if used {
		return core.Rejected(core.ReasonAlreadyRedeemed), nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	result, err := s.ledger.TransactionResult(lookupCtx, ref)
	if errors.Is(err, core.ErrTxNotFound) {
		return core.Rejected(core.ReasonNotFound), nil
	}
	if err != nil {
		return core.Outcome{}, err
	}
	if !result.Finalized || !result.Succeeded {
		return core.Rejected(core.ReasonNotFinalized), nil
	}

	underpaid := false
	for _, transfer := range result.Transfers {
		if transfer.Token != req.TokenAddress || transfer.To != req.Receiver {
			continue
		}
		// Exact integer comparison in base units. Amounts never go through
		// floating point on this path.
		if transfer.Amount.Cmp(req.MinAmount) < 0 {
			underpaid = true
			continue
		}

		ok, err := s.replay.TryMark(ctx, ref)
		if err != nil {
			return core.Outcome{}, err
		}
		if !ok {
			// A concurrent request redeemed the same reference first.
			return core.Rejected(core.ReasonAlreadyRedeemed), nil
		}

		payer := result.Sender
		if payer == (common.Address{}) {
			payer = transfer.From
		}
		return core.Outcome{Valid: true, Amount: transfer.Amount, Payer: payer}, nil
	}

	if underpaid {
		return core.Rejected(core.ReasonAmountTooLow), nil
	}
	return core.Rejected(core.ReasonNoTransfer), nil
}
