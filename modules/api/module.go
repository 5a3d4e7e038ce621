package api

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	userdomain "github.com/RK62021/Realtime-chat-app/domain/user"
	authmod "github.com/RK62021/Realtime-chat-app/modules/auth"
	chatmod "github.com/RK62021/Realtime-chat-app/modules/chat"
	"github.com/RK62021/Realtime-chat-app/modules/gateway"
	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Module implements the HTTP/WebSocket server using Fiber. It depends on
// every other module: by the time it accepts traffic the relay subscription
// and the other modules' services are up.
type Module struct {
	app      *fiber.App
	handlers *Handlers
	addr     string

	authModule    *authmod.AuthModule
	chatModule    *chatmod.Module
	gatewayModule *gateway.Module
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)

// NewModule creates a new API server module.
func NewModule(addr string, authModule *authmod.AuthModule, chatModule *chatmod.Module, gatewayModule *gateway.Module) *Module {
	return &Module{
		addr:          addr,
		authModule:    authModule,
		chatModule:    chatModule,
		gatewayModule: gatewayModule,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies. The server starts
// last so the relay subscription is live before any connection is accepted.
func (m *Module) Dependencies() []string {
	return []string{"auth", "relay", "chat", "gateway"}
}

// SetDependencyServiceContainer satisfies mono.DependentModule. Dependency
// modules are passed to NewModule directly, so the container is not used.
func (m *Module) SetDependencyServiceContainer(_ string, _ mono.ServiceContainer) {}

// Start initializes and starts the server.
func (m *Module) Start(ctx context.Context) error {
	m.app = fiber.New(fiber.Config{
		AppName:               "Realtime Chat",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:5173"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.handlers = NewHandlers(m.authModule.Service(), m.chatModule.Service())

	m.registerRoutes(ctx)

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		// Server started successfully
	}

	log.Printf("[api] Server started on %s", m.addr)
	return nil
}

// Stop gracefully shuts down the server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	log.Println("[api] Server stopped")
	return nil
}

// registerRoutes sets up all HTTP and WebSocket routes.
func (m *Module) registerRoutes(ctx context.Context) {
	validator := m.authModule.Service()

	m.app.Get("/health", m.healthCheck)

	api := m.app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", m.handlers.Register)
	authGroup.Post("/login", m.handlers.Login)
	authGroup.Post("/refresh", m.handlers.Refresh)
	authGroup.Post("/logout", m.handlers.Logout)
	authGroup.Post("/realtime-token", AuthMiddleware(validator), m.handlers.RealtimeToken)

	chats := api.Group("/chats", AuthMiddleware(validator))
	chats.Post("/", m.handlers.CreateChat)
	chats.Get("/", m.handlers.ListChats)
	chats.Get("/:id/messages", m.handlers.GetChatMessages)
	chats.Post("/:id/messages", m.handlers.SendMessage)

	// WebSocket endpoint. The handshake middleware authenticates before
	// the upgrade; the websocket handler hands the connection to the
	// gateway with its verified identity attached.
	m.app.Use("/ws", HandshakeMiddleware(validator), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		claims, ok := c.Locals(IdentityContextKey).(*userdomain.Claims)
		if !ok {
			c.Close()
			return
		}
		m.gatewayModule.HandleConnection(ctx, c, gateway.Identity{
			UserID:   claims.UserID,
			Username: claims.Username,
		})
	}))
}

// healthCheck handles GET /health.
func (m *Module) healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "realtime-chat",
	})
}

// errorHandler handles errors globally.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	log.Printf("[api] HTTP error: code=%d message=%s error=%v", code, message, err)

	return c.Status(code).JSON(ErrorResponse{
		Error: message,
	})
}
