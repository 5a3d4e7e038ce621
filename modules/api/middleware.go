package api

import (
	"strings"

	domain "github.com/RK62021/Realtime-chat-app/domain/user"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
	// IdentityContextKey is the key used to store the verified realtime
	// identity between the handshake middleware and the websocket handler.
	IdentityContextKey = "identity"
)

// TokenValidator verifies bearer credentials. Access and realtime tokens
// are signed with different secrets, so each surface gets its own method.
type TokenValidator interface {
	ValidateAccessToken(token string) (*domain.Claims, error)
	ValidateRealtimeToken(token string) (*domain.Claims, error)
}

// AuthMiddleware creates a middleware that validates REST access tokens.
func AuthMiddleware(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Authorization header is required",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid authorization header format. Use: Bearer <token>",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Token is required",
			})
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// HandshakeMiddleware gates the websocket endpoint. The realtime channel
// bypasses the bearer middleware, so the credential arrives as a query
// parameter supplied at connect time. A failed handshake is terminal: the
// request is rejected before any connection is registered, and the client
// must reconnect with a fresh credential.
func HandshakeMiddleware(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "No token provided",
			})
		}

		claims, err := validator.ValidateRealtimeToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
		}

		c.Locals(IdentityContextKey, claims)
		return c.Next()
	}
}

// claimsFromContext returns the claims stored by AuthMiddleware.
func claimsFromContext(c *fiber.Ctx) *domain.Claims {
	claims, _ := c.Locals(UserContextKey).(*domain.Claims)
	return claims
}
