package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/openclaw/openclaw/internal/logging"
)

const (
	telegramAPI         = "https://api.telegram.org"
	telegramMaxLength   = 4096
	defaultPollTimeout  = 30 * time.Second
	defaultRetryBackoff = 3 * time.Second
)

// Telegram is a Bot API channel using long polling.
type Telegram struct {
	token        string
	baseURL      string
	http         *http.Client
	pollTimeout  time.Duration
	retryBackoff time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type TelegramOption func(*Telegram)

func WithTelegramBaseURL(u string) TelegramOption {
	return func(t *Telegram) {
		if u != "" {
			t.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithTelegramHTTPClient(c *http.Client) TelegramOption {
	return func(t *Telegram) { t.http = c }
}

// WithPollTimeout sets the getUpdates long-poll duration.
func WithPollTimeout(d time.Duration) TelegramOption {
	return func(t *Telegram) { t.pollTimeout = d }
}

// WithRetryBackoff sets the pause after a failed poll.
func WithRetryBackoff(d time.Duration) TelegramOption {
	return func(t *Telegram) { t.retryBackoff = d }
}

func NewTelegram(token string, opts ...TelegramOption) *Telegram {
	t := &Telegram{
		token:        token,
		baseURL:      telegramAPI,
		http:         &http.Client{},
		pollTimeout:  defaultPollTimeout,
		retryBackoff: defaultRetryBackoff,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *Telegram) ID() string { return "telegram" }

func (t *Telegram) Capabilities() Capabilities {
	return Capabilities{ID: t.ID(), Name: "Telegram", Typing: true, MaxMessageLength: telegramMaxLength}
}

type tgUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

type tgMessage struct {
	MessageID int64   `json:"message_id"`
	From      *tgUser `json:"from"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Date int64  `json:"date"`
	Text string `json:"text"`
}

type tgUpdate struct {
	UpdateID int64      `json:"update_id"`
	Message  *tgMessage `json:"message"`
}

type tgResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// TelegramError is a Bot API call answered with ok=false.
type TelegramError struct {
	Method      string
	Code        int
	Description string
}

func (e *TelegramError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// Start begins long polling in the background.
func (t *Telegram) Start(ctx context.Context, inbox chan<- InboundMessage) error {
	if t.token == "" {
		return fmt.Errorf("telegram: bot token is required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return fmt.Errorf("telegram: already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.poll(ctx, inbox)
	return nil
}

// Stop ends polling and waits for the poll loop to exit.
func (t *Telegram) Stop() error {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (t *Telegram) poll(ctx context.Context, inbox chan<- InboundMessage) {
	defer close(t.done)
	log := logging.For("telegram")
	var offset int64

	for ctx.Err() == nil {
		updates, err := t.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warn("polling updates")
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.retryBackoff):
			}
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			msg, ok := inbound(u)
			if !ok {
				continue
			}
			select {
			case inbox <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

func inbound(u tgUpdate) (InboundMessage, bool) {
	m := u.Message
	if m == nil || m.Text == "" {
		return InboundMessage{}, false
	}
	msg := InboundMessage{
		ChannelID:      "telegram",
		ConversationID: strconv.FormatInt(m.Chat.ID, 10),
		Content:        m.Text,
		Timestamp:      time.Unix(m.Date, 0),
	}
	if m.From != nil {
		msg.SenderID = strconv.FormatInt(m.From.ID, 10)
		msg.SenderName = m.From.Username
		if msg.SenderName == "" {
			msg.SenderName = m.From.FirstName
		}
	}
	return msg, true
}

func (t *Telegram) getUpdates(ctx context.Context, offset int64) ([]tgUpdate, error) {
	body := map[string]any{
		"offset":          offset,
		"timeout":         int(t.pollTimeout / time.Second),
		"allowed_updates": []string{"message"},
	}
	var updates []tgUpdate
	if err := t.call(ctx, "getUpdates", body, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// Send delivers msg, split into several messages when it exceeds Telegram's length limit.
func (t *Telegram) Send(ctx context.Context, msg OutboundMessage) error {
	for _, part := range splitMessage(msg.Content, telegramMaxLength) {
		body := map[string]any{"chat_id": msg.ConversationID, "text": part}
		if err := t.call(ctx, "sendMessage", body, nil); err != nil {
			return err
		}
	}
	return nil
}

func (t *Telegram) Typing(ctx context.Context, conversationID string) error {
	return t.call(ctx, "sendChatAction", map[string]any{"chat_id": conversationID, "action": "typing"}, nil)
}

func (t *Telegram) call(ctx context.Context, method string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of logs.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var r tgResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fmt.Errorf("telegram %s: status %d: %w", method, resp.StatusCode, err)
	}
	if !r.OK {
		return &TelegramError{Method: method, Code: r.ErrorCode, Description: r.Description}
	}
	if out != nil {
		if err := json.Unmarshal(r.Result, out); err != nil {
			return fmt.Errorf("telegram %s: decoding result: %w", method, err)
		}
	}
	return nil
}
