// Package relay fans chat events out across server processes over Redis
// pub/sub. Any process may publish; every process's subscriber delivers to
// the websocket connections it holds locally.
package relay

import (
	"strconv"
	"time"
)

// Channel names. Publisher and subscriber must agree on these, and on the
// room derivation below, or events silently route to no one.
const (
	ChannelMessage = "chat:message"
	ChannelTyping  = "chat:typing"
)

// Client-facing event names emitted into rooms.
const (
	EventMessageNew = "message:new"
	EventTyping     = "typing"
)

// roomPrefix prefixes chat ids to form room names.
const roomPrefix = "chat:"

// RoomForChat derives the broadcast room name for a chat conversation.
func RoomForChat(chatID uint) string {
	return roomPrefix + strconv.FormatUint(uint64(chatID), 10)
}

// MessageEvent is the payload published on ChannelMessage.
type MessageEvent struct {
	ChatID    uint      `json:"chat_id"`
	MessageID uint      `json:"message_id"`
	SenderID  uint      `json:"sender_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TypingEvent is the payload published on ChannelTyping.
type TypingEvent struct {
	ChatID   uint   `json:"chat_id"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Typing   bool   `json:"typing"`
}

// Broadcaster is what the subscriber needs from the local gateway hub.
type Broadcaster interface {
	EmitToRoom(roomID, event string, payload any)
}
