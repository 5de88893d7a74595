package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxform/voxform/pkg/wire"
)

func newEchoServer(t *testing.T, gotToken *string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotToken = r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func nextEvent(t *testing.T, c *WebsocketChannel, want EventKind) Event {
	t.Helper()
	select {
	case ev, ok := <-c.Events():
		if !ok {
			t.Fatalf("event stream closed waiting for %s", want)
		}
		if ev.Kind != want {
			t.Fatalf("got event %s, want %s", ev.Kind, want)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s event", want)
	}
	return Event{}
}

func TestWebsocketChannelEcho(t *testing.T) {
	var gotToken string
	srv := newEchoServer(t, &gotToken)
	defer srv.Close()

	c := NewWebsocketChannel(wsURL(srv), nil)
	if err := c.Open(context.Background(), "tok-123"); err != nil {
		t.Fatalf("open: %v", err)
	}
	nextEvent(t, c, EventOpened)
	if gotToken != "Bearer tok-123" {
		t.Fatalf("server saw authorization %q", gotToken)
	}

	if err := c.Send(wire.AudioCommit()); err != nil {
		t.Fatalf("send: %v", err)
	}
	ev := nextEvent(t, c, EventMessage)
	if ev.Message.Type != wire.TypeAudioCommit {
		t.Fatalf("echoed type = %s", ev.Message.Type)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestWebsocketChannelMalformedFrameSkipped(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		raw, _ := wire.Marshal(wire.Message{Type: wire.TypeSessionUpdate, Status: wire.StatusGenerating})
		_ = conn.WriteMessage(websocket.TextMessage, raw)
		// Keep the connection up until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c := NewWebsocketChannel(wsURL(srv), nil)
	if err := c.Open(context.Background(), "tok"); err != nil {
		t.Fatalf("open: %v", err)
	}
	nextEvent(t, c, EventOpened)

	// The unparseable frame must be dropped, so the next event is the
	// well-formed message after it.
	ev := nextEvent(t, c, EventMessage)
	if ev.Message.Type != wire.TypeSessionUpdate || ev.Message.Status != wire.StatusGenerating {
		t.Fatalf("unexpected message after malformed frame: %+v", ev.Message)
	}
	_ = c.Close()
}

func TestWebsocketChannelSendBeforeOpen(t *testing.T) {
	c := NewWebsocketChannel("ws://127.0.0.1:0", nil)
	if err := c.Send(wire.AudioCommit()); err != ErrNotConnected {
		t.Fatalf("send before open = %v, want ErrNotConnected", err)
	}
}

func TestWebsocketChannelPeerCloseEmitsClosed(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}))
	defer srv.Close()

	c := NewWebsocketChannel(wsURL(srv), nil)
	if err := c.Open(context.Background(), "tok"); err != nil {
		t.Fatalf("open: %v", err)
	}
	nextEvent(t, c, EventOpened)
	nextEvent(t, c, EventClosed)
	if _, ok := <-c.Events(); ok {
		t.Fatalf("event stream still open after closed event")
	}
}
