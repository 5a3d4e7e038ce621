package auth

import (
	"errors"
	"testing"
	"time"
)

func testJWTConfig() JWTConfig {
	return JWTConfig{
		AccessSecret:          "test-access-secret",
		RefreshSecret:         "test-refresh-secret",
		RealtimeSecret:        "test-realtime-secret",
		AccessTokenDuration:   15 * time.Minute,
		RefreshTokenDuration:  7 * 24 * time.Hour,
		RealtimeTokenDuration: time.Hour,
		Issuer:                "test-issuer",
	}
}

func TestJWTManager_GenerateAndValidateAccessToken(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	token, err := manager.GenerateAccessToken(42, "alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if token == "" {
		t.Error("GenerateAccessToken() returned empty token")
	}

	claims, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("claims.UserID = %v, want %v", claims.UserID, 42)
	}
	if claims.Username != "alice" {
		t.Errorf("claims.Username = %v, want %v", claims.Username, "alice")
	}
	if claims.TokenType != TokenTypeAccess {
		t.Errorf("claims.TokenType = %v, want %v", claims.TokenType, TokenTypeAccess)
	}
	if claims.Issuer != "test-issuer" {
		t.Errorf("claims.Issuer = %v, want %v", claims.Issuer, "test-issuer")
	}
}

func TestJWTManager_GenerateAndValidateRealtimeToken(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	token, err := manager.GenerateRealtimeToken(7, "bob")
	if err != nil {
		t.Fatalf("GenerateRealtimeToken() error = %v", err)
	}

	claims, err := manager.ValidateRealtimeToken(token)
	if err != nil {
		t.Fatalf("ValidateRealtimeToken() error = %v", err)
	}

	if claims.UserID != 7 {
		t.Errorf("claims.UserID = %v, want %v", claims.UserID, 7)
	}
	if claims.TokenType != TokenTypeRealtime {
		t.Errorf("claims.TokenType = %v, want %v", claims.TokenType, TokenTypeRealtime)
	}
}

// Each token surface has its own signing secret: a token minted for one
// surface must fail validation on every other.
func TestJWTManager_CrossSurfaceRejection(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	accessToken, err := manager.GenerateAccessToken(1, "alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	refreshToken, err := manager.GenerateRefreshToken(1, "alice")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	realtimeToken, err := manager.GenerateRealtimeToken(1, "alice")
	if err != nil {
		t.Fatalf("GenerateRealtimeToken() error = %v", err)
	}

	tests := []struct {
		name     string
		token    string
		validate func(string) (*JWTClaims, error)
	}{
		{"access token at realtime endpoint", accessToken, manager.ValidateRealtimeToken},
		{"access token as refresh", accessToken, manager.ValidateRefreshToken},
		{"refresh token as access", refreshToken, manager.ValidateAccessToken},
		{"refresh token at realtime endpoint", refreshToken, manager.ValidateRealtimeToken},
		{"realtime token as access", realtimeToken, manager.ValidateAccessToken},
		{"realtime token as refresh", realtimeToken, manager.ValidateRefreshToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.validate(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("validate() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	config := testJWTConfig()
	config.RealtimeTokenDuration = -time.Minute
	manager := NewJWTManager(config)

	token, err := manager.GenerateRealtimeToken(9, "carol")
	if err != nil {
		t.Fatalf("GenerateRealtimeToken() error = %v", err)
	}

	if _, err := manager.ValidateRealtimeToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ValidateRealtimeToken() error = %v, want ErrExpiredToken", err)
	}
}

func TestJWTManager_MalformedToken(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9.eyJ1c2穷"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.ValidateAccessToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateAccessToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestJWTManager_WrongSecret(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	other := testJWTConfig()
	other.AccessSecret = "a-different-secret"
	otherManager := NewJWTManager(other)

	token, err := manager.GenerateAccessToken(3, "dave")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := otherManager.ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateAccessToken() error = %v, want ErrInvalidToken", err)
	}
}
