package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Publisher publishes chat events to Redis channels. Delivery is
// best-effort, at-most-once: a failed publish is logged and the event is
// lost for processes that were subscribed, but the persisted data is
// unaffected and clients recover it on their next REST fetch.
type Publisher struct {
	client redis.UniversalClient
}

// NewPublisher creates a new Publisher.
func NewPublisher(client redis.UniversalClient) *Publisher {
	return &Publisher{
		client: client,
	}
}

// Publish serializes payload to JSON and publishes it on channel.
// Callers must not depend on delivery.
func (p *Publisher) Publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", channel, err)
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		log.Printf("[relay] Publish to %s failed: %v", channel, err)
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	return nil
}
