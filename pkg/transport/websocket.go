package transport

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxform/voxform/pkg/errorsx"
	"github.com/voxform/voxform/pkg/wire"
)

// WebsocketChannel implements Channel over a websocket connection. One
// reader goroutine owns the inbound side and produces the ordered event
// stream; a write mutex keeps sends FIFO.
type WebsocketChannel struct {
	url    string
	logger *slog.Logger

	events chan Event
	closed atomic.Bool
	opened atomic.Bool

	writeMu sync.Mutex
	conn    *websocket.Conn
}

func NewWebsocketChannel(url string, logger *slog.Logger) *WebsocketChannel {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebsocketChannel{
		url:    url,
		logger: logger,
		events: make(chan Event, 512),
	}
}

func (c *WebsocketChannel) Open(ctx context.Context, token string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportConnect)
	}
	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()
	c.opened.Store(true)
	c.events <- Event{Kind: EventOpened}
	go c.readLoop(conn)
	return nil
}

func (c *WebsocketChannel) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if c.closed.CompareAndSwap(false, true) {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.events <- Event{Kind: EventError, Err: errorsx.Wrap(err, errorsx.ReasonTransportClosed)}
				}
				c.events <- Event{Kind: EventClosed}
				close(c.events)
			}
			return
		}
		msg, err := wire.Parse(raw)
		if err != nil {
			// Unparseable frames are logged and skipped, never fatal.
			c.logger.Warn("transport_malformed_message", "error", err.Error())
			continue
		}
		c.events <- Event{Kind: EventMessage, Message: msg}
	}
}

func (c *WebsocketChannel) Send(msg wire.Message) error {
	if !c.opened.Load() || c.closed.Load() {
		return ErrNotConnected
	}
	raw, err := wire.Marshal(msg)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportSend)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportSend)
	}
	return nil
}

func (c *WebsocketChannel) Events() <-chan Event { return c.events }

// Close is safe to call from any state and at most once tears the
// connection down; the reader emits the closing events.
func (c *WebsocketChannel) Close() error {
	c.writeMu.Lock()
	conn := c.conn
	c.conn = nil
	c.writeMu.Unlock()
	if conn == nil {
		if !c.opened.Load() && c.closed.CompareAndSwap(false, true) {
			c.events <- Event{Kind: EventClosed}
			close(c.events)
		}
		return nil
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return conn.Close()
}
