package auth

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	chatdomain "github.com/RK62021/Realtime-chat-app/domain/chat"
	userdomain "github.com/RK62021/Realtime-chat-app/domain/user"
	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AuthModule provides authentication services and owns the application database.
type AuthModule struct {
	db      *gorm.DB
	service *AuthService
	dbPath  string
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(dbPath string) *AuthModule {
	if dbPath == "" {
		dbPath = "realtime_chat.db"
	}
	return &AuthModule{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start initializes the auth module.
func (m *AuthModule) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(
		&userdomain.User{},
		&userdomain.AuthToken{},
		&chatdomain.Chat{},
		&chatdomain.ChatMember{},
		&chatdomain.Message{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	repo := NewUserRepository(db)
	hasher := NewPasswordHasher(loadHashCost())
	jwtManager := NewJWTManager(loadJWTConfig())

	m.service = NewAuthService(repo, hasher, jwtManager)

	log.Printf("[auth] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// Service returns the auth service for other modules to use.
func (m *AuthModule) Service() *AuthService {
	return m.service
}

// DB returns the shared GORM handle. The chat module reuses it so the whole
// application runs on one SQLite file.
func (m *AuthModule) DB() *gorm.DB {
	return m.db
}

// loadHashCost reads the bcrypt cost from BCRYPT_COST, falling back to the
// default on absence or garbage.
func loadHashCost() int {
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		if cost, err := strconv.Atoi(v); err == nil {
			return cost
		}
	}
	return defaultHashCost
}

// loadJWTConfig loads JWT configuration from environment variables,
// falling back to defaults.
func loadJWTConfig() JWTConfig {
	config := DefaultJWTConfig()

	if secret := os.Getenv("JWT_ACCESS_SECRET"); secret != "" {
		config.AccessSecret = secret
	}
	if secret := os.Getenv("JWT_REFRESH_SECRET"); secret != "" {
		config.RefreshSecret = secret
	}
	if secret := os.Getenv("JWT_REALTIME_SECRET"); secret != "" {
		config.RealtimeSecret = secret
	}
	if d := os.Getenv("JWT_ACCESS_TTL"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil {
			config.AccessTokenDuration = parsed
		}
	}
	if d := os.Getenv("JWT_REFRESH_TTL"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil {
			config.RefreshTokenDuration = parsed
		}
	}
	if d := os.Getenv("JWT_REALTIME_TTL"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil {
			config.RealtimeTokenDuration = parsed
		}
	}
	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		config.Issuer = issuer
	}

	return config
}
