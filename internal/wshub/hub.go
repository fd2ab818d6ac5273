// Package wshub fans workflow progress events out to WebSocket subscribers.
// Connections subscribe per workflow ID; events published for that workflow
// are delivered to every live subscriber and dead connections are pruned on
// the first failed write.
package wshub

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/synapse-data/product.intel/internal/monitoring"
)

// Event is one progress frame sent to subscribers.
type Event struct {
	Type       string         `json:"type"`
	WorkflowID int            `json:"workflow_id"`
	Data       map[string]any `json:"data,omitempty"`
}

// Hub tracks subscriber connections keyed by workflow ID.
type Hub struct {
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[int][]*websocket.Conn
}

// New returns an empty hub. Origin checks are left open; the server fronts
// trusted clients only.
func New() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs: make(map[int][]*websocket.Conn),
	}
}

// Subscribe upgrades the request to a WebSocket, registers it under
// workflowID, and sends a welcome frame. The caller owns the returned
// connection's read loop; writes go through the hub.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, workflowID int) (*websocket.Conn, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	// The welcome frame goes out before the conn is registered: once the
	// conn is in the subscriber map, Broadcast may write to it from another
	// goroutine, and a websocket conn supports only one concurrent writer.
	welcome := Event{
		Type:       "connected",
		WorkflowID: workflowID,
		Data:       map[string]any{"message": "subscribed to workflow updates"},
	}
	if err := conn.WriteJSON(welcome); err != nil {
		conn.Close()
		return nil, err
	}

	h.mu.Lock()
	h.subs[workflowID] = append(h.subs[workflowID], conn)
	n := len(h.subs[workflowID])
	h.mu.Unlock()

	monitoring.Logf("wshub: workflow %d subscriber connected (%d total)", workflowID, n)
	return conn, nil
}

// Unsubscribe removes a connection from a workflow's subscriber list. Safe to
// call for connections already removed.
func (h *Hub) Unsubscribe(workflowID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.subs[workflowID]
	for i, c := range conns {
		if c == conn {
			h.subs[workflowID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.subs[workflowID]) == 0 {
		delete(h.subs, workflowID)
	}
}

// Broadcast delivers an event to every subscriber of its workflow.
// Connections that fail to accept the write are closed and dropped.
func (h *Hub) Broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		monitoring.Logf("wshub: failed to encode event: %v", err)
		return
	}

	h.mu.Lock()
	conns := append([]*websocket.Conn(nil), h.subs[event.WorkflowID]...)
	h.mu.Unlock()

	var dead []*websocket.Conn
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			dead = append(dead, conn)
		}
	}
	for _, conn := range dead {
		h.Unsubscribe(event.WorkflowID, conn)
		conn.Close()
	}
	if len(dead) > 0 {
		monitoring.Logf("wshub: pruned %d dead subscriber(s) from workflow %d", len(dead), event.WorkflowID)
	}
}

// SubscriberCount returns the number of live subscribers for a workflow.
func (h *Hub) SubscriberCount(workflowID int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[workflowID])
}
