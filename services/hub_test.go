package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bellapacxx/bingo-engine/game"

	"github.com/gorilla/websocket"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub, sessionID string, snap SnapshotFunc) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Subscribe(sessionID, conn, snap)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestHub_SnapshotThenEvents(t *testing.T) {
	hub := NewHub()
	t.Cleanup(hub.Close)

	var seq atomic.Uint64
	seq.Store(3)
	conn := dialHub(t, hub, "s-1", func() (game.Snapshot, error) {
		return game.Snapshot{ID: "s-1", Seq: seq.Load(), Status: game.StatusActive, CalledNumbers: []int{4}}, nil
	})

	m := readMessage(t, conn)
	assert.Equal(t, "snapshot", m.Type)
	var got game.Snapshot
	require.NoError(t, json.Unmarshal(m.Data, &got))
	assert.Equal(t, "s-1", got.ID)

	require.Eventually(t, func() bool { return hub.Clients("s-1") == 1 }, time.Second, time.Millisecond)

	ctx := context.Background()
	at := func(n uint64) game.Snapshot { return game.Snapshot{ID: "s-1", Seq: n} }

	// events for other sessions are not delivered
	require.NoError(t, hub.Publish(ctx, game.Event{Type: game.EventNumberCalled, SessionID: "s-2", Number: 9, Snapshot: at(9)}))
	// an event the snapshot already covers is skipped
	require.NoError(t, hub.Publish(ctx, game.Event{Type: game.EventNumberCalled, SessionID: "s-1", Number: 4, Snapshot: at(3)}))
	seq.Store(4)
	require.NoError(t, hub.Publish(ctx, game.Event{Type: game.EventNumberCalled, SessionID: "s-1", Number: 12, Announcement: "B-12", Snapshot: at(4)}))

	m = readMessage(t, conn)
	assert.Equal(t, string(game.EventNumberCalled), m.Type)
	var ev game.Event
	require.NoError(t, json.Unmarshal(m.Data, &ev))
	assert.Equal(t, 12, ev.Number)
	assert.Equal(t, "B-12", ev.Announcement)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"snapshot"}`)))
	m = readMessage(t, conn)
	assert.Equal(t, "snapshot", m.Type)
}

func TestHub_SnapshotError(t *testing.T) {
	hub := NewHub()
	t.Cleanup(hub.Close)

	conn := dialHub(t, hub, "gone", func() (game.Snapshot, error) { return game.Snapshot{}, game.ErrSessionNotFound })
	m := readMessage(t, conn)
	assert.Equal(t, "error", m.Type)
}

func TestHub_RemovesClosedClients(t *testing.T) {
	hub := NewHub()
	t.Cleanup(hub.Close)

	conn := dialHub(t, hub, "s-1", nil)
	require.Eventually(t, func() bool { return hub.Clients("s-1") == 1 }, time.Second, time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients("s-1") == 0 }, 2*time.Second, 5*time.Millisecond)
}

type failingSink struct{ calls int }

func (f *failingSink) Publish(context.Context, game.Event) error {
	f.calls++
	return errors.New("sink down")
}

func TestFanout_DeliversToAll(t *testing.T) {
	a, b := &failingSink{}, &failingSink{}
	err := Fanout{a, b}.Publish(context.Background(), game.Event{Type: game.EventGameStarted})
	assert.Error(t, err)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)

	assert.NoError(t, Fanout{}.Publish(context.Background(), game.Event{}))
}

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestMQSink_Publish(t *testing.T) {
	ch := &fakeChannel{}
	sink := &MQSink{ch: ch, exchange: "bingo.events"}

	ev := game.Event{Type: game.EventGameCompleted, SessionID: "s-1", Reason: game.ReasonExhausted, At: time.Now()}
	require.NoError(t, sink.Publish(context.Background(), ev))

	assert.Equal(t, "bingo.events", ch.exchange)
	assert.Equal(t, "game.game_completed", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var got game.Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, "s-1", got.SessionID)
	assert.Equal(t, game.ReasonExhausted, got.Reason)
}

func TestCard(t *testing.T) {
	c, err := Card(1)
	require.NoError(t, err)
	assert.Equal(t, 1, c.CardID)
	assert.Equal(t, []int{13, 10, 6, 9, 4}, c.B)
	assert.Equal(t, 0, c.N[2])

	_, err = Card(0)
	assert.ErrorIs(t, err, game.ErrInvalidCartela)
}

func TestClient_QueueSkipsOlderState(t *testing.T) {
	c := &Client{send: make(chan []byte, 8)}

	assert.True(t, c.queue(5, []byte("event-5"), false))
	assert.True(t, c.queue(4, []byte("snapshot-4"), true), "older snapshot is skipped, not failed")
	assert.True(t, c.queue(5, []byte("event-5-again"), false))
	assert.True(t, c.queue(5, []byte("snapshot-5"), true))
	assert.True(t, c.queue(6, []byte("event-6"), false))

	close(c.send)
	var got []string
	for b := range c.send {
		got = append(got, string(b))
	}
	assert.Equal(t, []string{"event-5", "snapshot-5", "event-6"}, got)
}
