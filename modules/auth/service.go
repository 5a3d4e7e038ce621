package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	domain "github.com/RK62021/Realtime-chat-app/domain/user"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
	// ErrMissingFields is returned when required registration fields are missing.
	ErrMissingFields = errors.New("username, email, password, and name are required")
)

// AuthService handles authentication business logic.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(_ context.Context, username, email, password, name string) (*domain.User, error) {
	if username == "" || email == "" || password == "" || name == "" {
		return nil, ErrMissingFields
	}

	// Validate email using standard library
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	// Validate password length (bcrypt has 72-byte limit)
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if len(password) > 72 {
		return nil, ErrPasswordTooLong
	}

	exists, err := s.repo.Exists(username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
	}

	if err := s.repo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns a token pair. The refresh token is
// recorded so it can be revoked on logout.
func (s *AuthService) Login(_ context.Context, username, password string) (*domain.TokenPair, error) {
	user, err := s.repo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(user)
}

// RefreshTokens rotates a refresh token: the presented token must be valid
// and on record, it is revoked, and a fresh pair is issued.
func (s *AuthService) RefreshTokens(_ context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	known, err := s.repo.RefreshTokenExists(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if !known {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.repo.DeleteRefreshToken(refreshToken); err != nil && !errors.Is(err, ErrTokenNotFound) {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.generateTokenPair(user)
}

// Logout revokes a refresh token.
func (s *AuthService) Logout(_ context.Context, refreshToken string) error {
	return s.repo.DeleteRefreshToken(refreshToken)
}

// RealtimeToken exchanges an authenticated identity for a short-lived
// websocket handshake token, signed with the realtime secret.
func (s *AuthService) RealtimeToken(_ context.Context, userID uint) (string, error) {
	user, err := s.repo.FindByID(userID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	token, err := s.jwt.GenerateRealtimeToken(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("failed to generate realtime token: %w", err)
	}
	return token, nil
}

// ValidateAccessToken verifies a REST bearer token.
func (s *AuthService) ValidateAccessToken(token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	return &domain.Claims{UserID: claims.UserID, Username: claims.Username}, nil
}

// ValidateRealtimeToken verifies a websocket handshake token.
func (s *AuthService) ValidateRealtimeToken(token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateRealtimeToken(token)
	if err != nil {
		return nil, err
	}
	return &domain.Claims{UserID: claims.UserID, Username: claims.Username}, nil
}

// generateTokenPair issues and records a fresh access/refresh pair.
func (s *AuthService) generateTokenPair(user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.repo.SaveRefreshToken(user.ID, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to record refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}
