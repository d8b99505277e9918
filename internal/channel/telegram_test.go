package channel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type botAPI struct {
	t       *testing.T
	mu      sync.Mutex
	offsets []float64
	sent    []map[string]any
	actions []map[string]any
	updates string
	fail    bool
}

func (b *botAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	if !strings.HasPrefix(r.URL.Path, "/botTOKEN/") {
		b.t.Errorf("path = %s", r.URL.Path)
	}
	method := strings.TrimPrefix(r.URL.Path, "/botTOKEN/")

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
		return
	}
	switch method {
	case "getUpdates":
		b.offsets = append(b.offsets, body["offset"].(float64))
		if len(b.offsets) == 1 {
			_, _ = w.Write([]byte(`{"ok":true,"result":` + b.updates + `}`))
			return
		}
		b.mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		b.mu.Lock()
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	case "sendMessage":
		b.sent = append(b.sent, body)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	case "sendChatAction":
		b.actions = append(b.actions, body)
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	default:
		b.t.Errorf("unexpected method %s", method)
	}
}

func (b *botAPI) sentTexts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, m := range b.sent {
		out = append(out, m["text"].(string))
	}
	return out
}

func newBot(t *testing.T, api *botAPI) (*Telegram, *httptest.Server) {
	srv := httptest.NewServer(api)
	tg := NewTelegram("TOKEN",
		WithTelegramBaseURL(srv.URL),
		WithTelegramHTTPClient(srv.Client()),
		WithPollTimeout(0),
		WithRetryBackoff(10*time.Millisecond))
	return tg, srv
}

func TestTelegramPollsAndReplies(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := &botAPI{t: t, updates: `[
		{"update_id": 100, "message": {"message_id": 1, "from": {"id": 7, "username": "ada"}, "chat": {"id": 42}, "date": 1760637600, "text": "hi"}},
		{"update_id": 101, "edited_message": {"message_id": 1}}
	]`}
	tg, srv := newBot(t, api)
	defer srv.Close()

	reg := NewRegistry(echoHandler)
	if err := reg.Register(tg); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for len(api.sentTexts()) == 0 {
		select {
		case <-deadline:
			reg.StopAll()
			t.Fatal("no reply sent")
		case <-time.After(10 * time.Millisecond):
		}
	}
	reg.StopAll()
	srv.CloseClientConnections()

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.sent[0]["chat_id"] != "42" || api.sent[0]["text"] != "echo: hi" {
		t.Errorf("sent = %v", api.sent[0])
	}
	if len(api.offsets) < 2 || api.offsets[0] != 0 || api.offsets[1] != 102 {
		t.Errorf("offsets = %v, want [0 102 ...]", api.offsets)
	}
}

func TestTelegramInbound(t *testing.T) {
	msg, ok := inbound(tgUpdate{UpdateID: 1, Message: &tgMessage{
		From: &tgUser{ID: 7, FirstName: "Ada"},
		Date: 1760637600,
		Text: "/status",
	}})
	if !ok {
		t.Fatal("expected message")
	}
	if msg.SenderID != "7" || msg.SenderName != "Ada" || msg.ConversationID != "0" || msg.Content != "/status" {
		t.Errorf("msg = %+v", msg)
	}
	if _, ok := inbound(tgUpdate{UpdateID: 2}); ok {
		t.Error("update without message should be skipped")
	}
}

func TestTelegramSendSplitsLongMessages(t *testing.T) {
	api := &botAPI{t: t}
	tg, srv := newBot(t, api)
	defer srv.Close()

	long := strings.Repeat("x", telegramMaxLength+10)
	if err := tg.Send(context.Background(), OutboundMessage{ConversationID: "42", Content: long}); err != nil {
		t.Fatal(err)
	}
	got := api.sentTexts()
	if len(got) != 2 || len(got[0]) != telegramMaxLength || len(got[1]) != 10 {
		t.Errorf("parts = %d", len(got))
	}
}

func TestTelegramTyping(t *testing.T) {
	api := &botAPI{t: t}
	tg, srv := newBot(t, api)
	defer srv.Close()

	if err := tg.Typing(context.Background(), "42"); err != nil {
		t.Fatal(err)
	}
	if len(api.actions) != 1 || api.actions[0]["action"] != "typing" || api.actions[0]["chat_id"] != "42" {
		t.Errorf("actions = %v", api.actions)
	}
}

func TestTelegramAPIError(t *testing.T) {
	api := &botAPI{t: t, fail: true}
	tg, srv := newBot(t, api)
	defer srv.Close()

	err := tg.Send(context.Background(), OutboundMessage{ConversationID: "42", Content: "hi"})
	var tgErr *TelegramError
	if !errors.As(err, &tgErr) {
		t.Fatalf("err = %v, want TelegramError", err)
	}
	if tgErr.Code != 403 || !strings.Contains(tgErr.Description, "blocked") {
		t.Errorf("err = %+v", tgErr)
	}
}

func TestTelegramStartRequiresToken(t *testing.T) {
	if err := NewTelegram("").Start(context.Background(), make(chan InboundMessage)); err == nil {
		t.Fatal("expected error without token")
	}
	if err := NewTelegram("x").Stop(); err != nil {
		t.Errorf("Stop before Start: %v", err)
	}
}
