package relay

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Subscriber consumes chat events from Redis and hands them to the local
// gateway hub. Each process runs exactly one subscriber; the hub it delivers
// to is injected at construction time.
type Subscriber struct {
	client redis.UniversalClient
	hub    Broadcaster
	pubsub *redis.PubSub
	done   chan struct{}
}

// NewSubscriber creates a new Subscriber delivering to hub.
func NewSubscriber(client redis.UniversalClient, hub Broadcaster) *Subscriber {
	return &Subscriber{
		client: client,
		hub:    hub,
		done:   make(chan struct{}),
	}
}

// Start subscribes to the relay channels and launches the delivery loop.
// It blocks until Redis has confirmed the subscription, so no event
// published after Start returns can be missed by this process.
// go-redis re-establishes both the connection and the subscriptions after
// a network failure; a dropped subscription therefore surfaces only as a
// closed message channel, which is logged loudly below.
func (s *Subscriber) Start(ctx context.Context) error {
	s.pubsub = s.client.Subscribe(ctx, ChannelMessage, ChannelTyping)

	// Receive waits for the subscription confirmation from Redis.
	if _, err := s.pubsub.Receive(ctx); err != nil {
		s.pubsub.Close()
		return err
	}

	go s.loop()

	log.Printf("[relay] Subscribed to %s, %s", ChannelMessage, ChannelTyping)
	return nil
}

// Stop closes the subscription and waits for the delivery loop to exit.
func (s *Subscriber) Stop() error {
	if s.pubsub == nil {
		return nil
	}
	err := s.pubsub.Close()
	<-s.done
	return err
}

// loop drains the subscription until it is closed.
func (s *Subscriber) loop() {
	defer close(s.done)

	ch := s.pubsub.Channel()
	for msg := range ch {
		s.dispatch(msg.Channel, []byte(msg.Payload))
	}

	// Reaching here without Stop means the subscription is gone for good
	// and this process will silently miss all further events.
	log.Println("[relay] Subscription channel closed; realtime delivery stopped on this process")
}

// dispatch decodes an event and emits it into the matching room on the
// local hub. Unknown channels and malformed payloads are dropped.
func (s *Subscriber) dispatch(channel string, payload []byte) {
	switch channel {
	case ChannelMessage:
		var event MessageEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("[relay] Malformed payload on %s: %v", channel, err)
			return
		}
		s.hub.EmitToRoom(RoomForChat(event.ChatID), EventMessageNew, event)

	case ChannelTyping:
		var event TypingEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("[relay] Malformed payload on %s: %v", channel, err)
			return
		}
		s.hub.EmitToRoom(RoomForChat(event.ChatID), EventTyping, event)

	default:
		log.Printf("[relay] Ignoring event on unknown channel %s", channel)
	}
}
