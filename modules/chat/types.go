package chat

import (
	"errors"
	"unicode/utf8"
)

// Validation constants
const (
	MaxMessageLength  = 5000
	MaxChatNameLength = 100
)

// Validation errors
var (
	ErrMessageEmpty    = errors.New("message content cannot be empty")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
	ErrMessageInvalid  = errors.New("message contains invalid characters")
	ErrChatNameTooLong = errors.New("chat name exceeds maximum length")
	ErrChatNameInvalid = errors.New("chat name contains invalid characters")
	ErrInvalidChatType = errors.New("chat type must be direct or group")
	ErrNoMembers       = errors.New("a chat needs at least two members")
	ErrDirectMembers   = errors.New("a direct chat has exactly two members")
	ErrChatNotFound    = errors.New("chat not found")
	ErrNotMember       = errors.New("user is not a member of this chat")
)

// CreateChatRequest is the request for creating a chat.
type CreateChatRequest struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Members []uint `json:"members"`
}

// SendMessageRequest is the request for sending a message over REST.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// ValidateMessage validates message content.
func ValidateMessage(content string) error {
	if content == "" {
		return ErrMessageEmpty
	}
	if len(content) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if !utf8.ValidString(content) {
		return ErrMessageInvalid
	}
	return nil
}

// ValidateChatName validates a chat name. Empty is allowed: direct chats
// are unnamed.
func ValidateChatName(name string) error {
	if len(name) > MaxChatNameLength {
		return ErrChatNameTooLong
	}
	if !utf8.ValidString(name) {
		return ErrChatNameInvalid
	}
	return nil
}
