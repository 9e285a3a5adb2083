package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type Client struct {
	id        string
	sessionID string
	conn      *websocket.Conn
	hub       *Hub
	snapshot  SnapshotFunc

	mu     sync.Mutex
	send   chan []byte
	seq    uint64 // newest session state queued to this client
	closed bool
	once   sync.Once
}

func (c *Client) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		c.conn.Close()
	})
}

// trySend queues b without blocking. It reports false when the buffer is full
// or the client is gone.
func (c *Client) trySend(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pushLocked(b)
}

// queue sends b, which reflects session state seq, unless the client was
// already sent newer state. With again set, state as new as the client's is
// resent, which is what a snapshot request wants. Skipping is not a failure.
func (c *Client) queue(seq uint64, b []byte, again bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.seq || (seq == c.seq && !again) {
		return !c.closed
	}
	if !c.pushLocked(b) {
		return false
	}
	c.seq = seq
	return true
}

func (c *Client) pushLocked(b []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *Client) sendSnapshot() {
	if c.snapshot == nil {
		return
	}
	snap, err := c.snapshot()
	if err != nil {
		c.hub.log.Warnw("snapshot unavailable", "session", c.sessionID, "client", c.id, "error", err)
		b, _ := encode("error", map[string]string{"error": err.Error()})
		c.trySend(b)
		return
	}
	b, err := encode("snapshot", snap)
	if err != nil {
		c.hub.log.Errorw("encode snapshot", "session", c.sessionID, "error", err)
		return
	}
	c.queue(snap.Seq, b, true)
}

// --------------------
// Client read/write pumps
// --------------------
func (c *Client) readPump() {
	defer c.hub.remove(c)

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.log.Debugw("client disconnected", "session", c.sessionID, "client", c.id)
			} else {
				c.hub.log.Debugw("client read error", "session", c.sessionID, "client", c.id, "error", err)
			}
			return
		}

		var req struct {
			Action string `json:"action"`
		}
		if err := json.Unmarshal(message, &req); err != nil {
			c.hub.log.Debugw("invalid client message", "client", c.id, "error", err)
			continue
		}

		switch req.Action {
		case "snapshot":
			c.sendSnapshot()
		default:
			c.hub.log.Debugw("unknown client action", "client", c.id, "action", req.Action)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.log.Debugw("client write error", "client", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
