package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	domain "github.com/RK62021/Realtime-chat-app/domain/chat"
	"github.com/RK62021/Realtime-chat-app/modules/relay"
	"golang.org/x/sync/singleflight"
)

// Publisher is the relay surface the chat service produces into.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Service handles chat business logic: conversations, membership, and the
// persist-then-publish message path. Persistence is the source of truth;
// the relay publish afterwards is a best-effort latency optimization.
type Service struct {
	repo      *Repository
	publisher Publisher
	history   singleflight.Group // collapses concurrent history reads per page
}

// NewService creates a new Service.
func NewService(repo *Repository, publisher Publisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
	}
}

// CreateChat creates a direct or group conversation with the given members.
// The creator is always a member.
func (s *Service) CreateChat(_ context.Context, creatorID uint, chatType, name string, memberIDs []uint) (*domain.Chat, error) {
	if chatType != domain.TypeDirect && chatType != domain.TypeGroup {
		return nil, ErrInvalidChatType
	}
	if err := ValidateChatName(name); err != nil {
		return nil, err
	}

	members := dedupe(append(memberIDs, creatorID))
	if len(members) < 2 {
		return nil, ErrNoMembers
	}
	if chatType == domain.TypeDirect && len(members) != 2 {
		return nil, ErrDirectMembers
	}

	chat := &domain.Chat{
		Type:      chatType,
		Name:      name,
		CreatedBy: creatorID,
	}
	if err := s.repo.CreateChat(chat, members); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

// GetUserChats returns the chats the user belongs to.
func (s *Service) GetUserChats(_ context.Context, userID uint) ([]domain.Chat, error) {
	return s.repo.GetUserChats(userID)
}

// IsMember reports whether the user belongs to the chat. The gateway calls
// this before admitting a connection into the chat's room.
func (s *Service) IsMember(_ context.Context, userID, chatID uint) (bool, error) {
	return s.repo.IsMember(userID, chatID)
}

// SendMessage validates, persists, then publishes a message. A publish
// failure does not fail the send: the message is durable and other clients
// pick it up on their next history fetch.
func (s *Service) SendMessage(ctx context.Context, senderID, chatID uint, content string) error {
	if err := ValidateMessage(content); err != nil {
		return err
	}

	member, err := s.repo.IsMember(senderID, chatID)
	if err != nil {
		return fmt.Errorf("membership check failed: %w", err)
	}
	if !member {
		return ErrNotMember
	}

	msg := &domain.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
		SentAt:   time.Now(),
	}
	if err := s.repo.CreateMessage(msg); err != nil {
		return fmt.Errorf("failed to persist message: %w", err)
	}

	username, err := s.repo.Username(senderID)
	if err != nil {
		log.Printf("[chat] Failed to resolve sender %d username: %v", senderID, err)
	}

	event := relay.MessageEvent{
		ChatID:    msg.ChatID,
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		Username:  username,
		Content:   msg.Content,
		Timestamp: msg.SentAt,
	}
	if err := s.publisher.Publish(ctx, relay.ChannelMessage, event); err != nil {
		// Message is persisted; realtime push for this event is lost.
		log.Printf("[chat] Realtime publish failed for message %d: %v", msg.ID, err)
	}

	return nil
}

// NotifyTyping relays a typing indicator. Typing state is ephemeral: it is
// never persisted, and a lost publish is harmless.
func (s *Service) NotifyTyping(ctx context.Context, userID uint, username string, chatID uint, typing bool) error {
	event := relay.TypingEvent{
		ChatID:   chatID,
		UserID:   userID,
		Username: username,
		Typing:   typing,
	}
	if err := s.publisher.Publish(ctx, relay.ChannelTyping, event); err != nil {
		log.Printf("[chat] Typing publish failed for chat %d: %v", chatID, err)
	}
	return nil
}

// GetHistory returns a page of a chat's messages for a member. Concurrent
// requests for the same page share one database read.
func (s *Service) GetHistory(_ context.Context, userID, chatID uint, limit, offset int) ([]domain.Message, error) {
	member, err := s.repo.IsMember(userID, chatID)
	if err != nil {
		return nil, fmt.Errorf("membership check failed: %w", err)
	}
	if !member {
		return nil, ErrNotMember
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	key := fmt.Sprintf("%d:%d:%d", chatID, limit, offset)
	result, err, _ := s.history.Do(key, func() (any, error) {
		return s.repo.GetMessages(chatID, limit, offset)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Message), nil
}

// dedupe removes duplicate user ids preserving order.
func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
