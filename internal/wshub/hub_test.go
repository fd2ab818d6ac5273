package wshub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dial connects a test client to a hub subscribed under workflowID.
func dial(t *testing.T, hub *Hub, workflowID int) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := hub.Subscribe(w, r, workflowID)
		if err != nil {
			return
		}
		// Hold the server side open; the hub owns writes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	return ev
}

func TestSubscribeSendsWelcome(t *testing.T) {
	hub := New()
	conn := dial(t, hub, 1)

	ev := readEvent(t, conn)
	if ev.Type != "connected" {
		t.Errorf("welcome type = %q, want connected", ev.Type)
	}
	if ev.WorkflowID != 1 {
		t.Errorf("welcome workflow = %d, want 1", ev.WorkflowID)
	}
	if hub.SubscriberCount(1) != 1 {
		t.Errorf("SubscriberCount = %d, want 1", hub.SubscriberCount(1))
	}
}

func TestBroadcastReachesOnlyOwnWorkflow(t *testing.T) {
	hub := New()
	one := dial(t, hub, 1)
	two := dial(t, hub, 2)
	readEvent(t, one) // welcome
	readEvent(t, two) // welcome

	hub.Broadcast(Event{
		Type:       "task_started",
		WorkflowID: 1,
		Data:       map[string]any{"stage": "fetch"},
	})

	ev := readEvent(t, one)
	if ev.Type != "task_started" || ev.Data["stage"] != "fetch" {
		t.Errorf("got event %+v", ev)
	}

	// The workflow-2 subscriber must see nothing.
	two.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := two.ReadMessage(); err == nil {
		t.Error("workflow 2 subscriber should not receive workflow 1 events")
	}
}

func TestSubscribeDuringBroadcasts(t *testing.T) {
	hub := New()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				hub.Broadcast(Event{Type: "task_started", WorkflowID: 1})
			}
		}
	}()

	// A subscriber's first frame is always the welcome: the conn only joins
	// the broadcast set after the welcome write, so in-flight broadcasts
	// never interleave with it on the same connection.
	for i := 0; i < 25; i++ {
		conn := dial(t, hub, 1)
		ev := readEvent(t, conn)
		if ev.Type != "connected" {
			t.Fatalf("first frame type = %q, want connected", ev.Type)
		}
		hub.Unsubscribe(1, conn)
		conn.Close()
	}

	close(stop)
	wg.Wait()
}

func TestBroadcastPrunesDeadConnections(t *testing.T) {
	hub := New()
	conn := dial(t, hub, 1)
	readEvent(t, conn)
	conn.Close()

	// Writes to a closed connection fail; the hub drops the subscriber.
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount(1) > 0 && time.Now().Before(deadline) {
		hub.Broadcast(Event{Type: "task_started", WorkflowID: 1})
		time.Sleep(10 * time.Millisecond)
	}
	if got := hub.SubscriberCount(1); got != 0 {
		t.Errorf("SubscriberCount after close = %d, want 0", got)
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	hub := New()
	conn := dial(t, hub, 1)
	readEvent(t, conn)

	// Unsubscribing an unknown connection must not disturb the registry.
	hub.Unsubscribe(1, nil)
	hub.Unsubscribe(99, nil)
	if got := hub.SubscriberCount(1); got != 1 {
		t.Errorf("SubscriberCount = %d, want 1", got)
	}
}
