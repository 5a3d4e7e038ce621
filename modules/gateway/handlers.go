package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/RK62021/Realtime-chat-app/modules/relay"
)

// ChatService is what the gateway needs from the chat module: membership
// resolution for join authorization, and the persist-then-publish message
// path.
type ChatService interface {
	IsMember(ctx context.Context, userID, chatID uint) (bool, error)
	SendMessage(ctx context.Context, senderID, chatID uint, content string) error
	NotifyTyping(ctx context.Context, userID uint, username string, chatID uint, typing bool) error
}

// Inbound payload shapes.

// JoinPayload is the payload for joining a chat room.
type JoinPayload struct {
	ChatID uint `json:"chat_id"`
}

// LeavePayload is the payload for leaving a chat room.
type LeavePayload struct {
	ChatID uint `json:"chat_id"`
}

// MessagePayload is the payload for sending a message.
type MessagePayload struct {
	ChatID  uint   `json:"chat_id"`
	Content string `json:"content"`
}

// TypingPayload is the payload for typing indicator changes.
type TypingPayload struct {
	ChatID uint `json:"chat_id"`
	Typing bool `json:"typing"`
}

// Session is the per-connection event loop. Each connection gets its own
// Session; handlers receive it explicitly rather than through any implicit
// binding.
type Session struct {
	hub    *Hub
	client *Client
	chat   ChatService
}

// NewSession creates a session for an already-registered client.
func NewSession(hub *Hub, client *Client, chat ChatService) *Session {
	return &Session{
		hub:    hub,
		client: client,
		chat:   chat,
	}
}

// Run reads frames until the transport closes, dispatching each event
// through an error-catching wrapper. It returns the disconnect reason.
func (s *Session) Run(ctx context.Context) string {
	handlers := map[string]func(json.RawMessage){
		"join":    wrapHandler(s.hub, s.client.ID, "join", s.handleJoin(ctx)),
		"leave":   wrapHandler(s.hub, s.client.ID, "leave", s.handleLeave),
		"message": wrapHandler(s.hub, s.client.ID, "message", s.handleMessage(ctx)),
		"typing":  wrapHandler(s.hub, s.client.ID, "typing", s.handleTyping(ctx)),
	}

	for {
		_, data, err := s.client.conn.ReadMessage()
		if err != nil {
			return err.Error()
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.hub.EmitError(s.client.ID, "invalid message format", CodeBadPayload)
			continue
		}

		handler, ok := handlers[env.Type]
		if !ok {
			s.hub.EmitError(s.client.ID, "unknown event type: "+env.Type, CodeUnknownEvent)
			continue
		}
		handler(env.Payload)
	}
}

// handleJoin authorizes and performs a room join. A connection may only
// join the room of a chat its user is a member of; unauthorized attempts
// are rejected without touching room state.
func (s *Session) handleJoin(ctx context.Context) handlerFunc {
	return func(payload json.RawMessage) error {
		var req JoinPayload
		if err := json.Unmarshal(payload, &req); err != nil || req.ChatID == 0 {
			return NewEventError(CodeBadPayload, "chat_id is required")
		}

		member, err := s.chat.IsMember(ctx, s.client.Identity.UserID, req.ChatID)
		if err != nil {
			return fmt.Errorf("membership check failed: %w", err)
		}
		if !member {
			return NewEventError(CodeUnauthorized, "not a member of this chat")
		}

		s.hub.JoinRoom(s.client.ID, relay.RoomForChat(req.ChatID))
		s.hub.EmitToConnection(s.client.ID, "joined", req)
		return nil
	}
}

// handleLeave removes the connection from a room.
func (s *Session) handleLeave(payload json.RawMessage) error {
	var req LeavePayload
	if err := json.Unmarshal(payload, &req); err != nil || req.ChatID == 0 {
		return NewEventError(CodeBadPayload, "chat_id is required")
	}

	s.hub.LeaveRoom(s.client.ID, relay.RoomForChat(req.ChatID))
	s.hub.EmitToConnection(s.client.ID, "left", req)
	return nil
}

// handleMessage persists a message and triggers the cross-process fan-out.
// Delivery back to this connection arrives through the relay subscriber,
// the same path every other member takes.
func (s *Session) handleMessage(ctx context.Context) handlerFunc {
	return func(payload json.RawMessage) error {
		var req MessagePayload
		if err := json.Unmarshal(payload, &req); err != nil || req.ChatID == 0 {
			return NewEventError(CodeBadPayload, "chat_id and content are required")
		}
		if req.Content == "" {
			return NewEventError(CodeBadPayload, "content is required")
		}

		member, err := s.chat.IsMember(ctx, s.client.Identity.UserID, req.ChatID)
		if err != nil {
			return fmt.Errorf("membership check failed: %w", err)
		}
		if !member {
			return NewEventError(CodeUnauthorized, "not a member of this chat")
		}

		if err := s.chat.SendMessage(ctx, s.client.Identity.UserID, req.ChatID, req.Content); err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
		return nil
	}
}

// handleTyping relays a typing indicator. Typing state is ephemeral and
// never persisted, so it goes straight to the relay.
func (s *Session) handleTyping(ctx context.Context) handlerFunc {
	return func(payload json.RawMessage) error {
		var req TypingPayload
		if err := json.Unmarshal(payload, &req); err != nil || req.ChatID == 0 {
			return NewEventError(CodeBadPayload, "chat_id is required")
		}

		if !s.hub.InRoom(s.client.ID, relay.RoomForChat(req.ChatID)) {
			return NewEventError(CodeUnauthorized, "join the chat room first")
		}

		return s.chat.NotifyTyping(ctx, s.client.Identity.UserID, s.client.Identity.Username, req.ChatID, req.Typing)
	}
}
