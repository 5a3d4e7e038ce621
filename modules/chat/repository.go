package chat

import (
	"errors"
	"time"

	domain "github.com/RK62021/Realtime-chat-app/domain/chat"
	userdomain "github.com/RK62021/Realtime-chat-app/domain/user"
	"gorm.io/gorm"
)

// Repository handles chat, membership, and message persistence using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// CreateChat creates a chat and its membership rows in one transaction.
func (r *Repository) CreateChat(chat *domain.Chat, memberIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		members := make([]domain.ChatMember, 0, len(memberIDs))
		now := time.Now()
		for _, userID := range memberIDs {
			members = append(members, domain.ChatMember{
				ChatID:   chat.ID,
				UserID:   userID,
				Role:     "member",
				JoinedAt: now,
			})
		}
		return tx.Create(&members).Error
	})
}

// GetChat returns a chat by ID.
func (r *Repository) GetChat(chatID uint) (*domain.Chat, error) {
	var chat domain.Chat
	result := r.db.First(&chat, "id = ?", chatID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, result.Error
	}
	return &chat, nil
}

// GetUserChats returns all chats the user is a member of.
func (r *Repository) GetUserChats(userID uint) ([]domain.Chat, error) {
	var chats []domain.Chat
	result := r.db.
		Joins("JOIN chat_members ON chat_members.chat_id = chats.id").
		Where("chat_members.user_id = ?", userID).
		Order("chats.updated_at DESC").
		Find(&chats)
	if result.Error != nil {
		return nil, result.Error
	}
	return chats, nil
}

// IsMember reports whether the user is a member of the chat.
func (r *Repository) IsMember(userID, chatID uint) (bool, error) {
	var count int64
	result := r.db.Model(&domain.ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// CreateMessage persists a message.
func (r *Repository) CreateMessage(msg *domain.Message) error {
	return r.db.Create(msg).Error
}

// GetMessages returns a page of a chat's messages, newest first.
func (r *Repository) GetMessages(chatID uint, limit, offset int) ([]domain.Message, error) {
	var messages []domain.Message
	result := r.db.
		Where("chat_id = ? AND is_deleted = ?", chatID, false).
		Order("sent_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages)
	if result.Error != nil {
		return nil, result.Error
	}
	return messages, nil
}

// Username returns the username for a user id.
func (r *Repository) Username(userID uint) (string, error) {
	var user userdomain.User
	result := r.db.Select("username").First(&user, "id = ?", userID)
	if result.Error != nil {
		return "", result.Error
	}
	return user.Username, nil
}
