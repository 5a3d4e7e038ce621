package chat

import (
	"time"
)

// Chat types.
const (
	TypeDirect = "direct"
	TypeGroup  = "group"
)

// Chat represents a conversation (direct or group).
type Chat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"not null;type:text" json:"type"`
	Name      string    `gorm:"type:text" json:"name,omitempty"`
	CreatedBy uint      `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the Chat entity.
func (Chat) TableName() string {
	return "chats"
}

// ChatMember links a user to a chat conversation.
type ChatMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	ChatID   uint      `gorm:"index:idx_chat_user,unique;not null" json:"chat_id"`
	UserID   uint      `gorm:"index:idx_chat_user,unique;not null" json:"user_id"`
	Role     string    `gorm:"type:text;default:member" json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// TableName returns the table name for the ChatMember entity.
func (ChatMember) TableName() string {
	return "chat_members"
}

// Message represents a persisted chat message.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    uint      `gorm:"index;not null" json:"chat_id"`
	SenderID  uint      `gorm:"not null" json:"sender_id"`
	Content   string    `gorm:"type:text" json:"content"`
	IsDeleted bool      `gorm:"default:false" json:"is_deleted"`
	IsEdited  bool      `gorm:"default:false" json:"is_edited"`
	SentAt    time.Time `json:"sent_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the Message entity.
func (Message) TableName() string {
	return "messages"
}
