package gateway

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/google/uuid"
)

// Module owns the hub and the per-connection session lifecycle. The chat
// service is resolved through a provider at Start.
type Module struct {
	hub          *Hub
	chat         ChatService
	chatProvider func() ChatService
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new gateway module.
func NewModule(chatProvider func() ChatService) *Module {
	return &Module{
		hub:          NewHub(),
		chatProvider: chatProvider,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "gateway"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"chat"}
}

// SetDependencyServiceContainer satisfies mono.DependentModule. The chat
// service is resolved through the provider passed to NewModule, so the
// container is not used.
func (m *Module) SetDependencyServiceContainer(_ string, _ mono.ServiceContainer) {}

// Start resolves the chat service.
func (m *Module) Start(_ context.Context) error {
	m.chat = m.chatProvider()
	if m.chat == nil {
		return errors.New("gateway module started before chat service is available")
	}
	log.Println("[gateway] Module started")
	return nil
}

// Stop closes all live connections.
func (m *Module) Stop(_ context.Context) error {
	count := m.hub.ClientCount()
	m.hub.CloseAll()
	log.Printf("[gateway] Module stopped - %d clients were connected", count)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// Hub returns the hub for the relay subscriber and the API module.
func (m *Module) Hub() *Hub {
	return m.hub
}

// HandleConnection runs the lifecycle of one authenticated connection:
// register, serve events until the transport closes, then clean up. The
// identity comes from the handshake middleware; by the time this runs the
// credential has already been verified.
func (m *Module) HandleConnection(ctx context.Context, conn Conn, identity Identity) {
	client := &Client{
		ID:          uuid.New().String(),
		Identity:    identity,
		ConnectedAt: time.Now(),
		conn:        conn,
	}

	m.hub.Register(client)
	defer conn.Close()

	session := NewSession(m.hub, client, m.chat)
	reason := session.Run(ctx)

	m.hub.Unregister(client.ID, reason)
}
