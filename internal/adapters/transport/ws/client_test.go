package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sentryview/sentryview/internal/application/ports"
)

// recordingSink captures every event frame the client delivers.
type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) RecordEvent(channelID, eventID string, timestampMillis int64, sequence uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, channelID+":"+eventID)
	return true
}

func (s *recordingSink) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

// gatewayStub is a minimal in-process gateway for exercising the client.
type gatewayStub struct {
	t       *testing.T
	srv     *httptest.Server
	handler func(conn *websocket.Conn, connNum int)

	mu    sync.Mutex
	conns int
}

func newGatewayStub(t *testing.T, handler func(conn *websocket.Conn, connNum int)) *gatewayStub {
	t.Helper()

	g := &gatewayStub{t: t, handler: handler}
	upgrader := websocket.Upgrader{}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		g.mu.Lock()
		g.conns++
		n := g.conns
		g.mu.Unlock()

		g.handler(conn, n)
	}))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *gatewayStub) url() string {
	return "ws" + strings.TrimPrefix(g.srv.URL, "http")
}

func (g *gatewayStub) connCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conns
}

// readFrame reads and decodes one frame from the server side.
func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("gateway read: %v", err)
	}
	return f
}

func waitForCond(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestClientDeliversEventsToSink(t *testing.T) {
	gateway := newGatewayStub(t, func(conn *websocket.Conn, _ int) {
		hello := readFrame(t, conn)
		if hello.Type != frameHello || hello.ClientID == "" {
			t.Errorf("expected hello with client id, got %+v", hello)
		}

		for i, id := range []string{"evt-1", "evt-2"} {
			_ = conn.WriteJSON(frame{
				Type:      frameEvent,
				Channel:   "yard/motion",
				EventID:   id,
				Timestamp: time.Now().UnixMilli(),
				Sequence:  uint64(i + 1),
			})
		}

		// Hold the connection open until the client goes away.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, _, _ = conn.ReadMessage()
	})

	sink := &recordingSink{}
	client := NewClient(DefaultConfig(gateway.url()), sink, ports.TransportHooks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = client.Run(ctx)
	}()

	waitForCond(t, 2*time.Second, func() bool { return len(sink.ids()) == 2 })

	got := sink.ids()
	if got[0] != "yard/motion:evt-1" || got[1] != "yard/motion:evt-2" {
		t.Errorf("sink received %v", got)
	}

	cancel()
	<-done
}

func TestClientReconnectsAndReportsResume(t *testing.T) {
	gateway := newGatewayStub(t, func(conn *websocket.Conn, connNum int) {
		readFrame(t, conn) // hello
		if connNum == 1 {
			// Drop the first connection straight away.
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, _, _ = conn.ReadMessage()
	})

	var mu sync.Mutex
	var ups []bool
	hooks := ports.TransportHooks{
		OnUp: func(_ context.Context, resumed bool) {
			mu.Lock()
			ups = append(ups, resumed)
			mu.Unlock()
		},
	}

	client := NewClient(DefaultConfig(gateway.url()), &recordingSink{}, hooks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = client.Run(ctx)
	}()

	waitForCond(t, 3*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ups) >= 2
	})

	mu.Lock()
	first, second := ups[0], ups[1]
	mu.Unlock()

	if first {
		t.Error("first connection reported as resumed")
	}
	if !second {
		t.Error("reconnect not reported as resumed")
	}
	if gateway.connCount() < 2 {
		t.Errorf("expected at least 2 connections, got %d", gateway.connCount())
	}

	cancel()
	<-done
}

func TestClientCaughtUpAndPing(t *testing.T) {
	gateway := newGatewayStub(t, func(conn *websocket.Conn, _ int) {
		readFrame(t, conn) // hello

		_ = conn.WriteJSON(frame{Type: framePing})
		pong := readFrame(t, conn)
		if pong.Type != framePong {
			t.Errorf("expected pong, got %+v", pong)
		}

		_ = conn.WriteJSON(frame{Type: frameCaughtUp, Channel: "yard/motion"})

		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, _, _ = conn.ReadMessage()
	})

	caughtUp := make(chan string, 1)
	hooks := ports.TransportHooks{
		OnCaughtUp: func(channelID string) { caughtUp <- channelID },
	}

	client := NewClient(DefaultConfig(gateway.url()), &recordingSink{}, hooks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = client.Run(ctx)
	}()

	select {
	case ch := <-caughtUp:
		if ch != "yard/motion" {
			t.Errorf("caught up on %q", ch)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("caught_up hook never fired")
	}

	cancel()
	<-done
}

func TestClientSubscribeSendsFrame(t *testing.T) {
	subs := make(chan frame, 1)
	gateway := newGatewayStub(t, func(conn *websocket.Conn, _ int) {
		readFrame(t, conn) // hello
		subs <- readFrame(t, conn)

		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, _, _ = conn.ReadMessage()
	})

	connected := make(chan struct{}, 1)
	hooks := ports.TransportHooks{
		OnUp: func(context.Context, bool) { connected <- struct{}{} },
	}

	client := NewClient(DefaultConfig(gateway.url()), &recordingSink{}, hooks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = client.Run(ctx)
	}()

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
	}

	if err := client.Subscribe(ctx, []string{"yard/motion", "lobby/doorbell"}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	select {
	case f := <-subs:
		if f.Type != frameSubscribe || len(f.Channels) != 2 {
			t.Errorf("gateway saw %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe frame never arrived")
	}

	cancel()
	<-done
}

func TestCloseDuringDialShutsNewConnection(t *testing.T) {
	gateway := newGatewayStub(t, func(conn *websocket.Conn, _ int) {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, _, _ = conn.ReadMessage()
	})

	client := NewClient(DefaultConfig(gateway.url()), &recordingSink{}, ports.TransportHooks{})

	// A dial that completes after Close must not leave its connection
	// open and reading.
	conn, _, err := websocket.DefaultDialer.Dial(gateway.url(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if client.setConn(conn) {
		t.Fatal("setConn after Close must refuse the connection")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection should be closed after a refused setConn")
	}
}

func TestSubscribeWithoutConnection(t *testing.T) {
	client := NewClient(DefaultConfig("ws://localhost:1"), &recordingSink{}, ports.TransportHooks{})

	if err := client.Subscribe(context.Background(), []string{"yard/motion"}); err == nil {
		t.Error("expected error when not connected")
	}
}
