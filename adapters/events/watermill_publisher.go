package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/layer-3/turnstile/core"
	"github.com/layer-3/turnstile/ports"
)

// RedemptionEvent notifies downstream consumers that a payment reference was
// consumed and a session was minted for it.
type RedemptionEvent struct {
	Reference  string    `json:"reference"`
	Payer      string    `json:"payer"`
	Amount     string    `json:"amount"` // Base units, decimal-rendered
	Tier       string    `json:"tier"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     "turnstile.redemption",
	}
}

// PublishRedemption publishes a redemption event.
func (p *WatermillPublisher) PublishRedemption(ctx context.Context, grant *core.Grant, amount string) error {
	event := RedemptionEvent{
		Reference:  grant.Reference,
		Payer:      grant.Payer,
		Amount:     amount,
		Tier:       grant.Tier,
		RedeemedAt: grant.IssuedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(grant.ID, payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
