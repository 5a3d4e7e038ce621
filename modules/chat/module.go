package chat

import (
	"context"
	"errors"
	"log"

	"github.com/go-monolith/mono"
	"gorm.io/gorm"
)

// Module provides chat services. The database handle and relay publisher
// are resolved through providers at Start so the module can be constructed
// before the modules it depends on have opened their resources.
type Module struct {
	dbProvider  func() *gorm.DB
	pubProvider func() Publisher
	service     *Service
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new chat module.
func NewModule(dbProvider func() *gorm.DB, pubProvider func() Publisher) *Module {
	return &Module{
		dbProvider:  dbProvider,
		pubProvider: pubProvider,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// Dependencies returns the list of module dependencies. Auth owns the
// database handle and relay owns the publisher; both must be up before
// Start resolves them.
func (m *Module) Dependencies() []string {
	return []string{"auth", "relay"}
}

// SetDependencyServiceContainer satisfies mono.DependentModule. Dependencies
// are resolved through the providers passed to NewModule, so the container is
// not used.
func (m *Module) SetDependencyServiceContainer(_ string, _ mono.ServiceContainer) {}

// Start resolves dependencies and builds the service.
func (m *Module) Start(_ context.Context) error {
	db := m.dbProvider()
	if db == nil {
		return errors.New("chat module started before database is available")
	}
	publisher := m.pubProvider()
	if publisher == nil {
		return errors.New("chat module started before relay is available")
	}

	m.service = NewService(NewRepository(db), publisher)
	log.Println("[chat] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[chat] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "service not initialized",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
	}
}

// Service returns the chat service for the API and gateway modules.
func (m *Module) Service() *Service {
	return m.service
}
