package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/layer-3/turnstile/core"
	"github.com/layer-3/turnstile/ports"
)

// Decision is the explicit result of a gate check. Exactly one of Proceed,
// Challenged or Reason describes what the transport should do; the gate never
// mutates the request it was asked about.
type Decision struct {
	Proceed     bool
	Grant       *core.Grant       // Set when Proceed is true
	MintedToken string            // Non-empty only on first redemption
	Challenged  bool              // Emit the 402 challenge
	Reason      core.RejectReason // Set when the proof was rejected
}

// GateService orchestrates session validation, the payment challenge and
// payment verification into the request-handling state machine.
type GateService struct {
	verifier    *VerifierService
	tokenizer   ports.Tokenizer
	eventPub    ports.EventPublisher // Optional
	requirement core.Requirement
	sessionTTL  time.Duration
	tier        string
}

// NewGateService creates a new gate.
func NewGateService(
	verifier *VerifierService,
	tokenizer ports.Tokenizer,
	eventPub ports.EventPublisher,
	requirement core.Requirement,
	sessionTTL time.Duration,
	tier string,
) *GateService {
	return &GateService{
		verifier:    verifier,
		tokenizer:   tokenizer,
		eventPub:    eventPub,
		requirement: requirement,
		sessionTTL:  sessionTTL,
		tier:        tier,
	}
}

// Requirement returns the payment requirement this gate protects with.
func (g *GateService) Requirement() core.Requirement {
	return g.requirement
}

// Check runs one request through the gate. A valid bearer token grants access
// immediately; an invalid or expired one is not a rejection, the caller is
// simply treated as unauthenticated and may prove payment instead. A non-nil
// error means verification infrastructure was unavailable, distinct from any
// reject reason.
func (g *GateService) Check(ctx context.Context, bearerToken string, paymentRef core.Reference) (Decision, error) {
	if bearerToken != "" {
		grant, err := g.tokenizer.TokenToGrant(bearerToken)
		if err == nil && !grant.Expired(time.Now()) {
			return Decision{Proceed: true, Grant: grant}, nil
		}
	}

	if paymentRef == "" {
		return Decision{Challenged: true}, nil
	}

	outcome, err := g.verifier.Verify(ctx, paymentRef, g.requirement)
	if err != nil {
		return Decision{}, err
	}
	if !outcome.Valid {
		return Decision{Reason: outcome.Reason}, nil
	}

	now := time.Now()
	grant := &core.Grant{
		ID:        uuid.New().String(),
		Reference: string(paymentRef),
		Payer:     outcome.Payer.Hex(),
		Tier:      g.tier,
		IssuedAt:  now,
		ExpiresAt: now.Add(g.sessionTTL),
	}

	token, err := g.tokenizer.GrantToToken(grant)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to mint session: %w", err)
	}

	if g.eventPub != nil {
		// The redemption already happened; a publish failure is logged, not
		// surfaced to the payer.
		if err := g.eventPub.PublishRedemption(ctx, grant, outcome.Amount.String()); err != nil {
			log.Printf("warning: failed to publish redemption event: %v", err)
		}
	}

	return Decision{Proceed: true, Grant: grant, MintedToken: token}, nil
}
