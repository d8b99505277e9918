package channel

import (
	"context"
	"fmt"
	"sync"

	"github.com/openclaw/openclaw/internal/logging"
)

// Conversation lets a handler answer the chat a message came from.
type Conversation struct {
	ch             Channel
	conversationID string
}

func NewConversation(ch Channel, conversationID string) *Conversation {
	return &Conversation{ch: ch, conversationID: conversationID}
}

// Reply sends text to the conversation. Empty text is dropped.
func (c *Conversation) Reply(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	return c.ch.Send(ctx, OutboundMessage{ConversationID: c.conversationID, Content: text})
}

// Typing shows a typing indicator when the channel supports one.
func (c *Conversation) Typing(ctx context.Context) {
	ti, ok := c.ch.(TypingIndicator)
	if !ok {
		return
	}
	if err := ti.Typing(ctx, c.conversationID); err != nil {
		logging.For("channel").WithError(err).WithField("channel", c.ch.ID()).Debug("typing indicator")
	}
}

// Notify sends text to the conversation; it makes a Conversation usable as
// the owner notifier of the monitoring cycle.
func (c *Conversation) Notify(ctx context.Context, text string) error {
	return c.Reply(ctx, text)
}

// MessageHandler is called by the registry for every inbound message.
type MessageHandler func(ctx context.Context, msg InboundMessage, conv *Conversation) error

// Registry manages channel lifecycle and dispatches inbound messages to the handler.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
	handler  MessageHandler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRegistry(handler MessageHandler) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		channels: make(map[string]Channel),
		handler:  handler,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (r *Registry) Register(ch Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := ch.ID()
	if _, exists := r.channels[id]; exists {
		return fmt.Errorf("channel %q already registered", id)
	}
	r.channels[id] = ch

	inbox := make(chan InboundMessage, 64)
	if err := ch.Start(r.ctx, inbox); err != nil {
		delete(r.channels, id)
		return fmt.Errorf("starting channel %q: %w", id, err)
	}

	r.wg.Add(1)
	go r.dispatch(ch, inbox)

	return nil
}

func (r *Registry) Deregister(id string) error {
	r.mu.Lock()
	ch, ok := r.channels[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("channel %q not found", id)
	}
	delete(r.channels, id)
	r.mu.Unlock()

	return ch.Stop()
}

func (r *Registry) Get(id string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[id]
	return ch, ok
}

func (r *Registry) List() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, ch)
	}
	return out
}

// Send routes an outbound message to a specific channel.
func (r *Registry) Send(ctx context.Context, channelID string, msg OutboundMessage) error {
	r.mu.RLock()
	ch, ok := r.channels[channelID]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("channel %q not found", channelID)
	}
	return ch.Send(ctx, msg)
}

// StopAll gracefully shuts down every registered channel.
func (r *Registry) StopAll() {
	r.cancel()

	r.mu.RLock()
	channels := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		channels = append(channels, ch)
	}
	r.mu.RUnlock()

	for _, ch := range channels {
		if err := ch.Stop(); err != nil {
			logging.For("channel").WithError(err).Warnf("stopping channel %q", ch.ID())
		}
	}
	r.wg.Wait()
}

func (r *Registry) dispatch(ch Channel, inbox <-chan InboundMessage) {
	defer r.wg.Done()
	log := logging.For("channel").WithField("channel", ch.ID())

	for {
		select {
		case <-r.ctx.Done():
			return
		case msg, ok := <-inbox:
			if !ok {
				return
			}
			conv := NewConversation(ch, msg.ConversationID)
			if err := r.handler(r.ctx, msg, conv); err != nil {
				log.WithError(err).WithField("conversation", msg.ConversationID).Warn("handling message")
			}
		}
	}
}
