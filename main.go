package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/RK62021/Realtime-chat-app/modules/api"
	"github.com/RK62021/Realtime-chat-app/modules/auth"
	"github.com/RK62021/Realtime-chat-app/modules/chat"
	"github.com/RK62021/Realtime-chat-app/modules/gateway"
	"github.com/RK62021/Realtime-chat-app/modules/relay"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

func main() {
	addr := getEnv("LISTEN_ADDR", ":3000")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	dbPath := getEnv("DB_PATH", "realtime_chat.db")

	log.Println("=== Realtime Chat Backend ===")
	log.Printf("Listen address: %s", addr)
	log.Printf("Redis: %s", redisAddr)
	log.Printf("Database: %s", dbPath)

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// The relay subscriber delivers into the gateway hub, so the hub is
	// injected at construction; database and service dependencies are
	// resolved at Start through providers.
	authModule, relayModule, chatModule, gatewayModule := buildCoreModules(redisAddr, dbPath)
	apiModule := api.NewModule(addr, authModule, chatModule, gatewayModule)

	// Start order comes from each module's declared dependencies: auth and
	// relay first, then chat, then gateway, with the API server last so the
	// relay subscription is established before traffic is accepted.
	app.Register(authModule)    // users, tokens, database
	app.Register(relayModule)   // redis pub/sub
	app.Register(chatModule)    // chats, membership, messages
	app.Register(gatewayModule) // websocket hub
	app.Register(apiModule)     // HTTP/WebSocket server

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(addr)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// buildCoreModules constructs and cross-wires the auth, relay, chat, and
// gateway modules.
func buildCoreModules(redisAddr, dbPath string) (*auth.AuthModule, *relay.Module, *chat.Module, *gateway.Module) {
	var chatModule *chat.Module

	authModule := auth.NewModule(dbPath)
	gatewayModule := gateway.NewModule(func() gateway.ChatService {
		if s := chatModule.Service(); s != nil {
			return s
		}
		return nil
	})
	relayModule := relay.NewModule(redisAddr, gatewayModule.Hub())
	chatModule = chat.NewModule(
		func() *gorm.DB { return authModule.DB() },
		func() chat.Publisher {
			if p := relayModule.Publisher(); p != nil {
				return p
			}
			return nil
		},
	)

	return authModule, relayModule, chatModule, gatewayModule
}

func printStartupInfo(addr string) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost%s):", addr)
	log.Println("  GET    /health                        - Health check")
	log.Println("  POST   /api/v1/auth/register          - Create account")
	log.Println("  POST   /api/v1/auth/login             - Login (returns token pair)")
	log.Println("  POST   /api/v1/auth/refresh           - Rotate refresh token")
	log.Println("  POST   /api/v1/auth/logout            - Revoke refresh token")
	log.Println("  POST   /api/v1/auth/realtime-token    - Issue websocket handshake token")
	log.Println("  POST   /api/v1/chats                  - Create direct/group chat")
	log.Println("  GET    /api/v1/chats                  - List my chats")
	log.Println("  GET    /api/v1/chats/:id/messages     - Message history")
	log.Println("  POST   /api/v1/chats/:id/messages     - Send message")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost%s/ws?token=<realtime-token>):", addr)
	log.Println("  Client events: join, leave, message, typing")
	log.Println("  Server events: joined, left, message:new, typing, error")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
