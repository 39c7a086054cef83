package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vetra-app/vetra/internal/events"
)

const (
	maxMessageSize = 4096
	pongWait       = 2 * time.Minute
	pingPeriod     = time.Minute
	writeWait      = 10 * time.Second
	sendQueueSize  = 256
)

// Client is one live, authenticated websocket connection. It is owned by the
// Hub and serviced by its own read and write goroutines; all outbound traffic
// goes through the buffered send queue so delivery to one slow socket never
// stalls another.
type Client struct {
	ID        string
	Class     string
	Identity  int64
	CreatedAt time.Time

	hub  *Hub
	conn *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, class string, identity int64) *Client {
	return &Client{
		ID:        uuid.New().String(),
		Class:     class,
		Identity:  identity,
		CreatedAt: time.Now(),
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendQueueSize),
		done:      make(chan struct{}),
	}
}

// enqueue hands a marshalled event to the write loop. Returns false when the
// client is closed or its queue is full; the hub treats that as a dead
// connection.
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// shutdown closes the connection and wakes both pumps. Safe to call more than
// once and from any goroutine.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// clientMessage is what clients are allowed to send: keep-alive pings and
// room subscriptions. Everything else on this channel is server push.
type clientMessage struct {
	Type      string `json:"type"`
	Room      string `json:"room"`
	Timestamp any    `json:"timestamp"`
}

// ReadLoop services inbound frames until the connection dies. It enforces the
// liveness window: a client that sends neither pongs nor messages within
// pongWait is dropped.
func (c *Client) ReadLoop() {
	defer func() {
		c.hub.Unregister(c)
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error (%s:%d): %v", c.Class, c.Identity, err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "ping":
			c.sendEvent(events.Pong(msg.Timestamp))
		case "subscribe_room":
			if msg.Room != "" {
				c.hub.JoinRoom(c, msg.Room)
				c.sendEvent(events.New("subscribed", map[string]any{"room": msg.Room}))
			}
		case "unsubscribe_room":
			if msg.Room != "" {
				c.hub.LeaveRoom(c, msg.Room)
				c.sendEvent(events.New("unsubscribed", map[string]any{"room": msg.Room}))
			}
		}
	}
}

// WriteLoop drains the send queue onto the socket and keeps the connection
// alive with protocol pings. Exactly one writer per connection.
func (c *Client) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unregister(c)
	}()
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *Client) sendEvent(evt events.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("could not marshal %s event: %v", evt.Event, err)
		return
	}
	if !c.enqueue(data) {
		c.hub.Unregister(c)
	}
}
