package ports

import (
	"context"

	"github.com/layer-3/turnstile/core"
)

// EventPublisher notifies other systems about completed redemptions.
type EventPublisher interface {
	PublishRedemption(ctx context.Context, grant *core.Grant, amount string) error
}
