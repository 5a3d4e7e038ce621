package api

import (
	"errors"
	"log/slog"

	"github.com/RK62021/Realtime-chat-app/modules/auth"
	chatmod "github.com/RK62021/Realtime-chat-app/modules/chat"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains the REST handlers.
type Handlers struct {
	auth   *auth.AuthService
	chat   *chatmod.Service
	logger *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(authService *auth.AuthService, chatService *chatmod.Service) *Handlers {
	return &Handlers{
		auth:   authService,
		chat:   chatService,
		logger: slog.Default(),
	}
}

// Register handles POST /api/v1/auth/register.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
		}
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /api/v1/auth/login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	pair, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: err.Error()})
		}
		h.logger.Error("Login failed", "error", err)
		return internalError(c)
	}

	return c.JSON(pair)
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return badRequest(c, "refresh_token is required")
	}

	pair, err := h.auth.RefreshTokens(c.UserContext(), req.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error: "invalid refresh token",
		})
	}

	return c.JSON(pair)
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return badRequest(c, "refresh_token is required")
	}

	if err := h.auth.Logout(c.UserContext(), req.RefreshToken); err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			return badRequest(c, "unknown refresh token")
		}
		h.logger.Error("Logout failed", "error", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{"status": "logged out"})
}

// RealtimeToken handles POST /api/v1/auth/realtime-token. It exchanges a
// valid access token for the short-lived handshake credential the
// websocket endpoint accepts.
func (h *Handlers) RealtimeToken(c *fiber.Ctx) error {
	claims := claimsFromContext(c)

	token, err := h.auth.RealtimeToken(c.UserContext(), claims.UserID)
	if err != nil {
		h.logger.Error("Realtime token issue failed", "userID", claims.UserID, "error", err)
		return internalError(c)
	}

	return c.JSON(RealtimeTokenResponse{Token: token})
}

// CreateChat handles POST /api/v1/chats.
func (h *Handlers) CreateChat(c *fiber.Ctx) error {
	claims := claimsFromContext(c)

	var req chatmod.CreateChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	chat, err := h.chat.CreateChat(c.UserContext(), claims.UserID, req.Type, req.Name, req.Members)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(chat)
}

// ListChats handles GET /api/v1/chats.
func (h *Handlers) ListChats(c *fiber.Ctx) error {
	claims := claimsFromContext(c)

	chats, err := h.chat.GetUserChats(c.UserContext(), claims.UserID)
	if err != nil {
		h.logger.Error("List chats failed", "userID", claims.UserID, "error", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"chats": chats,
		"total": len(chats),
	})
}

// GetChatMessages handles GET /api/v1/chats/:id/messages.
func (h *Handlers) GetChatMessages(c *fiber.Ctx) error {
	claims := claimsFromContext(c)

	chatID, err := c.ParamsInt("id")
	if err != nil || chatID <= 0 {
		return badRequest(c, "Invalid chat id")
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	messages, err := h.chat.GetHistory(c.UserContext(), claims.UserID, uint(chatID), limit, offset)
	if err != nil {
		if errors.Is(err, chatmod.ErrNotMember) {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: err.Error()})
		}
		h.logger.Error("Get history failed", "chatID", chatID, "error", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"chat_id":  chatID,
		"messages": messages,
		"total":    len(messages),
	})
}

// SendMessage handles POST /api/v1/chats/:id/messages. On success the
// message is persisted and the relay publish has been attempted; realtime
// delivery is best-effort and does not affect the response.
func (h *Handlers) SendMessage(c *fiber.Ctx) error {
	claims := claimsFromContext(c)

	chatID, err := c.ParamsInt("id")
	if err != nil || chatID <= 0 {
		return badRequest(c, "Invalid chat id")
	}

	var req chatmod.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.chat.SendMessage(c.UserContext(), claims.UserID, uint(chatID), req.Content); err != nil {
		if errors.Is(err, chatmod.ErrNotMember) {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: err.Error()})
		}
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "sent"})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: message})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal server error"})
}
