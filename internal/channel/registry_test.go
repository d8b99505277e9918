package channel

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type mockChannel struct {
	id    string
	caps  Capabilities
	mu    sync.Mutex
	sent  []OutboundMessage
	stop  bool
	inbox chan<- InboundMessage
}

func newMockChannel(id string) *mockChannel {
	return &mockChannel{
		id:   id,
		caps: Capabilities{ID: id, Name: id},
	}
}

func (m *mockChannel) ID() string                 { return m.id }
func (m *mockChannel) Capabilities() Capabilities { return m.caps }

func (m *mockChannel) Start(_ context.Context, inbox chan<- InboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox = inbox
	return nil
}

func (m *mockChannel) Send(_ context.Context, msg OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockChannel) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stop = true
	return nil
}

func (m *mockChannel) pushMessage(msg InboundMessage) {
	m.mu.Lock()
	inbox := m.inbox
	m.mu.Unlock()
	if inbox != nil {
		inbox <- msg
	}
}

func (m *mockChannel) sentMessages() []OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]OutboundMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *mockChannel) stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stop
}

type failStartChannel struct{ mockChannel }

func (f *failStartChannel) Start(_ context.Context, _ chan<- InboundMessage) error {
	return fmt.Errorf("start failed")
}

func echoHandler(ctx context.Context, msg InboundMessage, conv *Conversation) error {
	return conv.Reply(ctx, "echo: "+msg.Content)
}

type typingChannel struct {
	*mockChannel
	mu     sync.Mutex
	typing []string
}

func (c *typingChannel) Typing(_ context.Context, conversationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.typing = append(c.typing, conversationID)
	return nil
}

func TestConversation(t *testing.T) {
	ch := &typingChannel{mockChannel: newMockChannel("telegram")}
	conv := NewConversation(ch, "42")
	ctx := context.Background()

	conv.Typing(ctx)
	if err := conv.Reply(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	if err := conv.Reply(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if err := conv.Notify(ctx, "cycle done"); err != nil {
		t.Fatal(err)
	}

	sent := ch.sentMessages()
	if len(sent) != 2 || sent[0].Content != "hello" || sent[1].Content != "cycle done" || sent[0].ConversationID != "42" {
		t.Errorf("sent = %+v", sent)
	}
	if len(ch.typing) != 1 || ch.typing[0] != "42" {
		t.Errorf("typing = %v", ch.typing)
	}

	// Channels without a typing indicator are fine.
	NewConversation(newMockChannel("plain"), "1").Typing(ctx)
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("short = %q", got)
	}
	if got := splitMessage("anything", 0); len(got) != 1 {
		t.Errorf("unlimited = %q", got)
	}

	got := splitMessage("aaaa\nbbbb\ncccc", 10)
	if len(got) != 2 || got[0] != "aaaa\nbbbb\n" || got[1] != "cccc" {
		t.Errorf("split on newline = %q", got)
	}

	got = splitMessage("ééééééééééé", 4)
	if len(got) != 3 || got[0] != "éééé" || got[2] != "ééé" {
		t.Errorf("split runes = %q", got)
	}
}

func TestRegistryRegisterAndList(t *testing.T) {
	reg := NewRegistry(echoHandler)
	defer reg.StopAll()

	ch := newMockChannel("slack")
	if err := reg.Register(ch); err != nil {
		t.Fatalf("Register: %v", err)
	}

	channels := reg.List()
	if len(channels) != 1 {
		t.Fatalf("List() returned %d channels, want 1", len(channels))
	}
	if channels[0].ID() != "slack" {
		t.Errorf("channel ID = %q, want %q", channels[0].ID(), "slack")
	}
}

func TestRegistryDuplicateRegister(t *testing.T) {
	reg := NewRegistry(echoHandler)
	defer reg.StopAll()

	ch1 := newMockChannel("slack")
	if err := reg.Register(ch1); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ch2 := newMockChannel("slack")
	if err := reg.Register(ch2); err == nil {
		t.Fatal("expected error for duplicate registration")
	}
}

func TestRegistryRegisterStartFailure(t *testing.T) {
	reg := NewRegistry(echoHandler)
	defer reg.StopAll()

	ch := &failStartChannel{mockChannel: mockChannel{id: "bad"}}
	if err := reg.Register(ch); err == nil {
		t.Fatal("expected error when Start fails")
	}

	if _, ok := reg.Get("bad"); ok {
		t.Error("channel should not be registered after Start failure")
	}
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry(echoHandler)
	defer reg.StopAll()

	ch := newMockChannel("telegram")
	_ = reg.Register(ch)

	got, ok := reg.Get("telegram")
	if !ok || got.ID() != "telegram" {
		t.Error("Get failed for registered channel")
	}

	_, ok = reg.Get("nonexistent")
	if ok {
		t.Error("Get should return false for unregistered channel")
	}
}

func TestRegistryDeregister(t *testing.T) {
	reg := NewRegistry(echoHandler)
	defer reg.StopAll()

	ch := newMockChannel("teams")
	_ = reg.Register(ch)

	if err := reg.Deregister("teams"); err != nil {
		t.Fatalf("Deregister: %v", err)
	}
	if !ch.stopped() {
		t.Error("channel should be stopped after deregister")
	}
	if _, ok := reg.Get("teams"); ok {
		t.Error("channel should not be findable after deregister")
	}
}

func TestRegistryDeregisterNotFound(t *testing.T) {
	reg := NewRegistry(echoHandler)
	defer reg.StopAll()

	if err := reg.Deregister("nope"); err == nil {
		t.Fatal("expected error for deregistering nonexistent channel")
	}
}

func TestRegistrySend(t *testing.T) {
	reg := NewRegistry(echoHandler)
	defer reg.StopAll()

	ch := newMockChannel("whatsapp")
	_ = reg.Register(ch)

	msg := OutboundMessage{
		ConversationID: "conv1",
		Content:        "hello from core",
	}
	if err := reg.Send(context.Background(), "whatsapp", msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	sent := ch.sentMessages()
	if len(sent) != 1 || sent[0].Content != "hello from core" {
		t.Errorf("sent messages = %v, want 1 message with 'hello from core'", sent)
	}
}

func TestRegistrySendNotFound(t *testing.T) {
	reg := NewRegistry(echoHandler)
	defer reg.StopAll()

	if err := reg.Send(context.Background(), "nope", OutboundMessage{}); err == nil {
		t.Fatal("expected error sending to unregistered channel")
	}
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(echoHandler)
	defer reg.StopAll()

	ch := newMockChannel("discord")
	_ = reg.Register(ch)

	ch.pushMessage(InboundMessage{
		ConversationID: "room1",
		Content:        "hi",
	})

	deadline := time.After(2 * time.Second)
	for {
		sent := ch.sentMessages()
		if len(sent) > 0 {
			if sent[0].Content != "echo: hi" {
				t.Errorf("response content = %q, want %q", sent[0].Content, "echo: hi")
			}
			if sent[0].ConversationID != "room1" {
				t.Errorf("ConversationID = %q, want %q", sent[0].ConversationID, "room1")
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for dispatched response")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestRegistryStopAll(t *testing.T) {
	defer goleak.VerifyNone(t)
	reg := NewRegistry(echoHandler)

	ch1 := newMockChannel("ch1")
	ch2 := newMockChannel("ch2")
	_ = reg.Register(ch1)
	_ = reg.Register(ch2)

	reg.StopAll()

	if !ch1.stopped() {
		t.Error("ch1 should be stopped")
	}
	if !ch2.stopped() {
		t.Error("ch2 should be stopped")
	}
}

func TestRegistryDispatchHandlerError(t *testing.T) {
	errHandler := func(context.Context, InboundMessage, *Conversation) error {
		return fmt.Errorf("handler error")
	}

	reg := NewRegistry(errHandler)
	defer reg.StopAll()

	ch := newMockChannel("errch")
	_ = reg.Register(ch)

	ch.pushMessage(InboundMessage{
		ConversationID: "c1",
		Content:        "fail",
	})

	time.Sleep(100 * time.Millisecond)
	sent := ch.sentMessages()
	if len(sent) != 0 {
		t.Errorf("expected no sent messages on handler error, got %d", len(sent))
	}
}
