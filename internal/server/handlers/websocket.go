// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// eventClient forwards analysis events from the bus to one connected
// dashboard. The send channel is never closed; shutdown is signaled on done
// so a bus callback still in flight can never hit a closed channel.
type eventClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	sub  *nats.Subscription
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, this should be more restrictive
		return true
	},
}

// EventsWebSocketHandler streams analysis completion events (trend,
// competitor, strategy) to dashboard clients over a websocket. Events are
// bridged from the NATS topics the engines publish on.
func EventsWebSocketHandler(natsConn *nats.Conn, eventsTopic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if natsConn == nil {
			http.Error(w, "Event bus not configured", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("failed to upgrade to websocket")
			return
		}

		client := newEventClient(conn)

		subject := fmt.Sprintf("%s.>", eventsTopic)
		sub, err := natsConn.Subscribe(subject, client.enqueue)
		if err != nil {
			log.Warn().Err(err).Str("subject", subject).Msg("failed to subscribe")
			conn.Close()
			return
		}
		client.sub = sub

		go client.writePump()
		go client.readPump()
	}
}

func newEventClient(conn *websocket.Conn) *eventClient {
	return &eventClient{
		conn: conn,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

// enqueue wraps one bus message in an envelope and queues it for the peer.
// After shutdown, or when the peer is slow, the event is dropped rather than
// blocking the bus dispatcher.
func (c *eventClient) enqueue(msg *nats.Msg) {
	select {
	case <-c.done:
		return
	default:
	}

	envelope, err := json.Marshal(map[string]any{
		"topic": msg.Subject,
		"data":  json.RawMessage(msg.Data),
		"time":  time.Now(),
	})
	if err != nil {
		return
	}

	select {
	case <-c.done:
	case c.send <- envelope:
	default:
		// Slow consumer; drop the event rather than block the bus.
	}
}

// shutdown signals both pumps and the bus callback. Safe to call more than
// once.
func (c *eventClient) shutdown() {
	c.once.Do(func() { close(c.done) })
}

// writePump pushes queued events and keepalive pings to the peer.
func (c *eventClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and tears the bridge down when the peer
// goes away. The subscription may still dispatch a callback after
// Unsubscribe returns; enqueue tolerates that because done, not a channel
// close, ends delivery.
func (c *eventClient) readPump() {
	defer func() {
		if c.sub != nil {
			c.sub.Unsubscribe()
		}
		c.shutdown()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
