package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	return msg
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Count() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", h.Count(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	h := New()
	srv := httptest.NewServer(h)
	defer srv.Close()

	c1 := dial(t, srv)
	defer c1.Close()
	c2 := dial(t, srv)
	defer c2.Close()
	waitForClients(t, h, 2)

	h.Broadcast("anomaly", map[string]any{"country_code": "DE", "severity": 42.0})

	for _, conn := range []*websocket.Conn{c1, c2} {
		msg := readMessage(t, conn)
		if msg.Event != "anomaly" {
			t.Fatalf("event = %q, want anomaly", msg.Event)
		}
		data, ok := msg.Data.(map[string]any)
		if !ok || data["country_code"] != "DE" {
			t.Fatalf("data = %+v", msg.Data)
		}
	}
}

func TestLateClientReceivesLastSummary(t *testing.T) {
	h := New()
	srv := httptest.NewServer(h)
	defer srv.Close()

	h.Broadcast("summary", map[string]any{"countries_analyzed": 27.0})

	conn := dial(t, srv)
	defer conn.Close()

	msg := readMessage(t, conn)
	if msg.Event != "summary" {
		t.Fatalf("event = %q, want replayed summary", msg.Event)
	}
	data := msg.Data.(map[string]any)
	if data["countries_analyzed"] != 27.0 {
		t.Fatalf("data = %+v", data)
	}
}

func TestNonSummaryEventsAreNotReplayed(t *testing.T) {
	h := New()
	srv := httptest.NewServer(h)
	defer srv.Close()

	h.Broadcast("anomaly", map[string]any{"country_code": "FR"})

	conn := dial(t, srv)
	defer conn.Close()
	waitForClients(t, h, 1)

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected no replay for non-summary events")
	}
}

func TestBroadcastDuringClientChurn(t *testing.T) {
	h := New()
	srv := httptest.NewServer(h)
	defer srv.Close()

	// Broadcast continuously while clients connect and drop. A departing
	// client must never turn an in-flight broadcast into a send on a
	// closed channel.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			h.Broadcast("summary", map[string]any{"input_rows": float64(i)})
		}
	}()

	for i := 0; i < 50; i++ {
		conn := dial(t, srv)
		conn.Close()
	}
	<-done

	waitForClients(t, h, 0)
	h.Broadcast("summary", map[string]any{"input_rows": 0.0})
}

func TestDisconnectedClientIsRemoved(t *testing.T) {
	h := New()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, h, 1)

	conn.Close()
	waitForClients(t, h, 0)

	// Broadcasting with no clients must not panic.
	h.Broadcast("summary", map[string]any{"input_rows": 0.0})
}
