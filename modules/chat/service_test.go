package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	chatdomain "github.com/RK62021/Realtime-chat-app/domain/chat"
	userdomain "github.com/RK62021/Realtime-chat-app/domain/user"
	"github.com/RK62021/Realtime-chat-app/modules/relay"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakePublisher records published events and can simulate a down relay.
type fakePublisher struct {
	mu        sync.Mutex
	published []publishedEvent
	fail      bool
}

type publishedEvent struct {
	channel string
	payload any
}

func (p *fakePublisher) Publish(_ context.Context, channel string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("relay unavailable")
	}
	p.published = append(p.published, publishedEvent{channel: channel, payload: payload})
	return nil
}

func (p *fakePublisher) events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.published...)
}

func setupTestService(t *testing.T) (*Service, *fakePublisher, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&userdomain.User{},
		&chatdomain.Chat{},
		&chatdomain.ChatMember{},
		&chatdomain.Message{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	publisher := &fakePublisher{}
	return NewService(NewRepository(db), publisher), publisher, db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) uint {
	t.Helper()
	user := &userdomain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "irrelevant",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user.ID
}

func TestService_CreateChat(t *testing.T) {
	ctx := context.Background()
	service, _, db := setupTestService(t)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	tests := []struct {
		name     string
		chatType string
		chatName string
		members  []uint
		wantErr  error
	}{
		{
			name:     "direct chat",
			chatType: chatdomain.TypeDirect,
			members:  []uint{bob},
			wantErr:  nil,
		},
		{
			name:     "group chat",
			chatType: chatdomain.TypeGroup,
			chatName: "friends",
			members:  []uint{bob, carol},
			wantErr:  nil,
		},
		{
			name:     "invalid type",
			chatType: "broadcast",
			members:  []uint{bob},
			wantErr:  ErrInvalidChatType,
		},
		{
			name:     "direct chat with three members",
			chatType: chatdomain.TypeDirect,
			members:  []uint{bob, carol},
			wantErr:  ErrDirectMembers,
		},
		{
			name:     "no members besides creator",
			chatType: chatdomain.TypeGroup,
			members:  []uint{alice},
			wantErr:  ErrNoMembers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat, err := service.CreateChat(ctx, alice, tt.chatType, tt.chatName, tt.members)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateChat() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("CreateChat() unexpected error: %v", err)
			}
			if chat.ID == 0 {
				t.Error("CreateChat() chat.ID should be assigned")
			}

			// Creator is always a member
			member, err := service.IsMember(ctx, alice, chat.ID)
			if err != nil {
				t.Fatalf("IsMember() error = %v", err)
			}
			if !member {
				t.Error("IsMember() = false for creator")
			}
		})
	}
}

func TestService_IsMember(t *testing.T) {
	ctx := context.Background()
	service, _, db := setupTestService(t)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	chat, err := service.CreateChat(ctx, alice, chatdomain.TypeDirect, "", []uint{bob})
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}

	member, err := service.IsMember(ctx, carol, chat.ID)
	if err != nil {
		t.Fatalf("IsMember() error = %v", err)
	}
	if member {
		t.Error("IsMember() = true for non-member")
	}

	member, err = service.IsMember(ctx, bob, chat.ID)
	if err != nil {
		t.Fatalf("IsMember() error = %v", err)
	}
	if !member {
		t.Error("IsMember() = false for member")
	}
}

func TestService_SendMessage(t *testing.T) {
	ctx := context.Background()
	service, publisher, db := setupTestService(t)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	chat, err := service.CreateChat(ctx, alice, chatdomain.TypeDirect, "", []uint{bob})
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}

	// Non-member cannot send
	if err := service.SendMessage(ctx, carol, chat.ID, "hi"); !errors.Is(err, ErrNotMember) {
		t.Errorf("SendMessage() error = %v, want ErrNotMember", err)
	}

	// Empty content is rejected
	if err := service.SendMessage(ctx, alice, chat.ID, ""); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("SendMessage() error = %v, want ErrMessageEmpty", err)
	}

	// Member send persists and publishes
	if err := service.SendMessage(ctx, alice, chat.ID, "hello bob"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	messages, err := service.GetHistory(ctx, bob, chat.ID, 10, 0)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("GetHistory() returned %d messages, want 1", len(messages))
	}
	if messages[0].Content != "hello bob" {
		t.Errorf("message.Content = %q, want %q", messages[0].Content, "hello bob")
	}

	events := publisher.events()
	if len(events) != 1 {
		t.Fatalf("publisher recorded %d events, want 1", len(events))
	}
	if events[0].channel != relay.ChannelMessage {
		t.Errorf("published channel = %q, want %q", events[0].channel, relay.ChannelMessage)
	}
	event, ok := events[0].payload.(relay.MessageEvent)
	if !ok {
		t.Fatalf("published payload type = %T, want relay.MessageEvent", events[0].payload)
	}
	if event.ChatID != chat.ID || event.SenderID != alice || event.Content != "hello bob" {
		t.Errorf("published event = %+v, want chat %d sender %d content %q", event, chat.ID, alice, "hello bob")
	}
	if event.Username != "alice" {
		t.Errorf("event.Username = %q, want %q", event.Username, "alice")
	}
}

// A down relay must not fail the send: the message is durable and clients
// recover it over REST.
func TestService_SendMessageRelayDown(t *testing.T) {
	ctx := context.Background()
	service, publisher, db := setupTestService(t)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	chat, err := service.CreateChat(ctx, alice, chatdomain.TypeDirect, "", []uint{bob})
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}

	publisher.fail = true
	if err := service.SendMessage(ctx, alice, chat.ID, "still works"); err != nil {
		t.Fatalf("SendMessage() error = %v, want nil when relay is down", err)
	}

	messages, err := service.GetHistory(ctx, alice, chat.ID, 10, 0)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("GetHistory() returned %d messages, want 1", len(messages))
	}
}

func TestService_GetHistory(t *testing.T) {
	ctx := context.Background()
	service, _, db := setupTestService(t)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	chat, err := service.CreateChat(ctx, alice, chatdomain.TypeDirect, "", []uint{bob})
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}

	for _, content := range []string{"one", "two", "three"} {
		if err := service.SendMessage(ctx, alice, chat.ID, content); err != nil {
			t.Fatalf("SendMessage() error = %v", err)
		}
	}

	// Non-member is denied
	if _, err := service.GetHistory(ctx, carol, chat.ID, 10, 0); !errors.Is(err, ErrNotMember) {
		t.Errorf("GetHistory() error = %v, want ErrNotMember", err)
	}

	messages, err := service.GetHistory(ctx, bob, chat.ID, 2, 0)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("GetHistory() returned %d messages, want 2", len(messages))
	}
}

func TestService_NotifyTyping(t *testing.T) {
	ctx := context.Background()
	service, publisher, _ := setupTestService(t)

	if err := service.NotifyTyping(ctx, 1, "alice", 42, true); err != nil {
		t.Fatalf("NotifyTyping() error = %v", err)
	}

	events := publisher.events()
	if len(events) != 1 {
		t.Fatalf("publisher recorded %d events, want 1", len(events))
	}
	if events[0].channel != relay.ChannelTyping {
		t.Errorf("published channel = %q, want %q", events[0].channel, relay.ChannelTyping)
	}
	event, ok := events[0].payload.(relay.TypingEvent)
	if !ok {
		t.Fatalf("published payload type = %T, want relay.TypingEvent", events[0].payload)
	}
	if event.ChatID != 42 || event.UserID != 1 || !event.Typing {
		t.Errorf("published event = %+v", event)
	}
}
