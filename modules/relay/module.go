package relay

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module wires the Redis-backed relay into the application lifecycle.
// It must be registered before the API module so the subscription is
// established before the server accepts connections.
type Module struct {
	redisAddr  string
	client     *redis.Client
	publisher  *Publisher
	subscriber *Subscriber
	hub        Broadcaster
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new relay module delivering inbound events to hub.
func NewModule(redisAddr string, hub Broadcaster) *Module {
	return &Module{
		redisAddr: redisAddr,
		hub:       hub,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "relay"
}

// Init connects to Redis.
func (m *Module) Init(_ mono.ServiceContainer) error {
	m.client = redis.NewClient(&redis.Options{
		Addr:         m.redisAddr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx := context.Background()
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	m.publisher = NewPublisher(m.client)
	m.subscriber = NewSubscriber(m.client, m.hub)

	log.Printf("[relay] Connected to Redis at %s", m.redisAddr)
	return nil
}

// Start establishes the channel subscriptions.
func (m *Module) Start(ctx context.Context) error {
	if err := m.subscriber.Start(ctx); err != nil {
		return fmt.Errorf("failed to start subscriber: %w", err)
	}
	log.Println("[relay] Module started")
	return nil
}

// Stop closes the subscription and the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.subscriber != nil {
		if err := m.subscriber.Stop(); err != nil {
			log.Printf("[relay] Error closing subscription: %v", err)
		}
	}
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			return fmt.Errorf("failed to close Redis connection: %w", err)
		}
	}
	log.Println("[relay] Module stopped")
	return nil
}

// Health verifies the Redis connection.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "redis not initialized",
		}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis_addr": m.redisAddr,
		},
	}
}

// Publisher returns the relay publisher for producing modules.
func (m *Module) Publisher() *Publisher {
	return m.publisher
}
