package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/openclaw/openclaw/internal/logging"
)

// WebSocket is a chat channel served over HTTP. Each text frame from a client
// is one user message; replies come back as text frames on the same connection.
type WebSocket struct {
	originPatterns []string

	mu     sync.Mutex
	conns  map[string]*websocket.Conn
	inbox  chan<- InboundMessage
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWebSocket returns a channel that accepts connections from the given
// origin patterns in addition to same-origin requests.
func NewWebSocket(originPatterns ...string) *WebSocket {
	return &WebSocket{originPatterns: originPatterns, conns: make(map[string]*websocket.Conn)}
}

func (w *WebSocket) ID() string { return "websocket" }

func (w *WebSocket) Capabilities() Capabilities {
	return Capabilities{ID: w.ID(), Name: "WebSocket"}
}

func (w *WebSocket) Start(ctx context.Context, inbox chan<- InboundMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inbox != nil {
		return fmt.Errorf("websocket: already started")
	}
	w.inbox = inbox
	w.ctx, w.cancel = context.WithCancel(ctx)
	return nil
}

// Stop closes every open connection and waits for their readers to exit.
func (w *WebSocket) Stop() error {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	conns := make([]*websocket.Conn, 0, len(w.conns))
	for _, c := range w.conns {
		conns = append(conns, c)
	}
	w.mu.Unlock()

	for _, c := range conns {
		_ = c.Close(websocket.StatusGoingAway, "server shutting down")
	}
	w.wg.Wait()
	return nil
}

func (w *WebSocket) Send(ctx context.Context, msg OutboundMessage) error {
	w.mu.Lock()
	c, ok := w.conns[msg.ConversationID]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("websocket: conversation %q not connected", msg.ConversationID)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.Write(ctx, websocket.MessageText, []byte(msg.Content))
}

func (w *WebSocket) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	w.mu.Lock()
	if w.ctx == nil || w.ctx.Err() != nil {
		w.mu.Unlock()
		http.Error(rw, "chat channel not running", http.StatusServiceUnavailable)
		return
	}
	ctx, inbox := w.ctx, w.inbox
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	conn, err := websocket.Accept(rw, r, &websocket.AcceptOptions{OriginPatterns: w.originPatterns})
	if err != nil {
		logging.For("websocket").WithError(err).Debug("accept")
		return
	}
	id := uuid.NewString()
	w.mu.Lock()
	w.conns[id] = conn
	w.mu.Unlock()

	log := logging.For("websocket").WithField("conversation", id)
	log.Debug("client connected")
	defer func() {
		w.mu.Lock()
		delete(w.conns, id)
		w.mu.Unlock()
		_ = conn.CloseNow()
		log.Debug("client disconnected")
	}()

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status == -1 && !errors.Is(err, context.Canceled) {
				log.WithError(err).Debug("read")
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		msg := InboundMessage{
			ChannelID:      w.ID(),
			ConversationID: id,
			SenderID:       id,
			Content:        string(data),
			Timestamp:      time.Now(),
		}
		select {
		case inbox <- msg:
		case <-ctx.Done():
			return
		}
	}
}
