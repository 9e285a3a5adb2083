package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/utils/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const clientBuffer = 32

// Message is the envelope written to every WebSocket client.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SnapshotFunc returns the current state of a session for a late joiner.
type SnapshotFunc func() (game.Snapshot, error)

// Hub is the WebSocket broadcast gateway. Clients subscribe to one session and
// receive its events; a slow client loses messages instead of stalling the
// others.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	log   *zap.SugaredLogger
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		log:   logger.Named("hub"),
	}
}

// Publish implements game.Broadcaster.
func (h *Hub) Publish(_ context.Context, ev game.Event) error {
	b, err := encode(string(ev.Type), ev)
	if err != nil {
		return err
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[ev.SessionID]))
	for c := range h.rooms[ev.SessionID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.queue(ev.Snapshot.Seq, b, false) {
			h.log.Debugw("client buffer full, message dropped", "session", ev.SessionID, "client", c.id, "type", ev.Type)
		}
	}
	return nil
}

// Subscribe registers conn for a session, sends the current snapshot first
// and starts the client pumps. An event committed before the snapshot was read
// can reach Publish after it; such events carry a Seq no higher than the
// snapshot's and are not forwarded.
func (h *Hub) Subscribe(sessionID string, conn *websocket.Conn, snapshot SnapshotFunc) *Client {
	c := &Client{
		id:        conn.RemoteAddr().String(),
		sessionID: sessionID,
		conn:      conn,
		hub:       h,
		snapshot:  snapshot,
		send:      make(chan []byte, clientBuffer),
	}

	h.mu.Lock()
	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[sessionID] = room
	}
	room[c] = struct{}{}
	total := len(room)
	h.mu.Unlock()

	h.log.Infow("client subscribed", "session", sessionID, "client", c.id, "total", total)

	c.sendSnapshot()
	go c.writePump()
	go c.readPump()
	return c
}

// Clients reports how many clients are subscribed to a session.
func (h *Hub) Clients(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*Client
	for _, room := range h.rooms {
		for c := range room {
			all = append(all, c)
		}
	}
	h.rooms = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.sessionID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.sessionID)
		}
	}
	h.mu.Unlock()
	c.Close()
}

func encode(typ string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: typ, Data: data})
}
