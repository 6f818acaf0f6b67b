package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"listing-trust-eval/internal/investigate"
)

// StreamEvent is the websocket payload emitted while investigations run.
type StreamEvent struct {
	investigate.Event
	Timestamp time.Time `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// InvestigationNotifier keeps track of active websocket clients and broadcasts investigation events.
type InvestigationNotifier struct {
	mu         sync.Mutex
	clients    map[*wsClient]struct{}
	lastStatus *StreamEvent
}

// NewInvestigationNotifier constructs a notifier instance.
func NewInvestigationNotifier() *InvestigationNotifier {
	return &InvestigationNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and replays the latest status to it.
func (n *InvestigationNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	status := n.lastStatus
	n.mu.Unlock()

	if status != nil {
		_ = client.writeJSON(*status)
	}
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *InvestigationNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the event to all registered websocket clients. It has the investigate.Observer
// signature so the service can publish to it directly.
func (n *InvestigationNotifier) Broadcast(event investigate.Event) {
	payload := StreamEvent{Event: event, Timestamp: time.Now().UTC()}

	n.mu.Lock()
	// The replayed status never carries the full report.
	snapshot := payload
	snapshot.Report = nil
	n.lastStatus = &snapshot

	for client := range n.clients {
		if err := client.writeJSON(payload); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	n.mu.Unlock()
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}

// LastStatus returns a copy of the most recent event, or nil before the first investigation.
func (n *InvestigationNotifier) LastStatus() *StreamEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastStatus == nil {
		return nil
	}
	status := *n.lastStatus
	return &status
}
