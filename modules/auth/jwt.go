package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// Token types embedded in claims.
const (
	TokenTypeAccess   = "access"
	TokenTypeRefresh  = "refresh"
	TokenTypeRealtime = "realtime"
)

// JWTConfig holds JWT configuration. Access, refresh, and realtime tokens
// are signed with three independent secrets: a token minted for one surface
// fails signature verification on the others.
type JWTConfig struct {
	AccessSecret          string
	RefreshSecret         string
	RealtimeSecret        string
	AccessTokenDuration   time.Duration
	RefreshTokenDuration  time.Duration
	RealtimeTokenDuration time.Duration
	Issuer                string
}

// DefaultJWTConfig returns a default JWT configuration.
// In production, the secrets should be loaded from environment variables.
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		AccessSecret:          "access-secret-change-in-production",
		RefreshSecret:         "refresh-secret-change-in-production",
		RealtimeSecret:        "realtime-secret-change-in-production",
		AccessTokenDuration:   15 * time.Minute,
		RefreshTokenDuration:  7 * 24 * time.Hour,
		RealtimeTokenDuration: time.Hour,
		Issuer:                "realtime-chat",
	}
}

// JWTClaims represents the custom claims for JWT tokens.
type JWTClaims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token operations.
type JWTManager struct {
	config JWTConfig
}

// NewJWTManager creates a new JWTManager with the given configuration.
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{
		config: config,
	}
}

// GenerateAccessToken generates a new access token for the given user.
func (m *JWTManager) GenerateAccessToken(userID uint, username string) (string, error) {
	return m.generateToken(userID, username, TokenTypeAccess, m.config.AccessSecret, m.config.AccessTokenDuration)
}

// GenerateRefreshToken generates a new refresh token for the given user.
func (m *JWTManager) GenerateRefreshToken(userID uint, username string) (string, error) {
	return m.generateToken(userID, username, TokenTypeRefresh, m.config.RefreshSecret, m.config.RefreshTokenDuration)
}

// GenerateRealtimeToken generates a short-lived token for the websocket handshake.
func (m *JWTManager) GenerateRealtimeToken(userID uint, username string) (string, error) {
	return m.generateToken(userID, username, TokenTypeRealtime, m.config.RealtimeSecret, m.config.RealtimeTokenDuration)
}

// generateToken creates a new JWT token with the specified parameters.
func (m *JWTManager) generateToken(userID uint, username, tokenType, secret string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID:    userID,
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// validateToken validates the token against the given secret and returns the claims.
func (m *JWTManager) validateToken(tokenString, secret string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ValidateAccessToken validates an access token.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	claims, err := m.validateToken(tokenString, m.config.AccessSecret)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ValidateRefreshToken validates a refresh token.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	claims, err := m.validateToken(tokenString, m.config.RefreshSecret)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ValidateRealtimeToken validates a websocket handshake token.
func (m *JWTManager) ValidateRealtimeToken(tokenString string) (*JWTClaims, error) {
	claims, err := m.validateToken(tokenString, m.config.RealtimeSecret)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != TokenTypeRealtime {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// AccessTokenDuration returns the access token duration in seconds.
func (m *JWTManager) AccessTokenDuration() int64 {
	return int64(m.config.AccessTokenDuration.Seconds())
}
