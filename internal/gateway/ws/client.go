package ws

import (
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sendBufferSize = 32
	writeTimeout   = 5 * time.Second
)

type clientMessage struct {
	Type    string `json:"type"`
	OrderID string `json:"orderId,omitempty"`
}

// Client is a single websocket connection. The write loop is the only
// goroutine touching conn writes; frames arrive on the send channel and
// are dropped when the buffer is full.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	hub  *Hub
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
		hub:  hub,
	}
}

// push never blocks: frames for a full buffer or a closed connection are
// dropped so one stuck client cannot stall a broadcast.
func (c *Client) push(payload []byte) {
	select {
	case <-c.done:
	case c.send <- payload:
	default:
		c.hub.logDroppedFrame(c.id)
	}
}

func (c *Client) sendFrame(frame *Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		c.hub.logger.Error("Failed to marshal frame", zap.Error(err))
		return
	}
	c.push(payload)
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

func (c *Client) readLoop() {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.logger.Warn("Malformed client message", zap.String("client_id", c.id), zap.Error(err))
			continue
		}

		switch msg.Type {
		case "subscribe_order":
			if msg.OrderID == "" {
				continue
			}
			c.hub.subscribe(c, msg.OrderID)
			c.sendFrame(NewFrame("subscribed", map[string]string{
				"orderId": msg.OrderID,
				"status":  "success",
			}))
		case "unsubscribe_order":
			if msg.OrderID == "" {
				continue
			}
			c.hub.unsubscribe(c, msg.OrderID)
			c.sendFrame(NewFrame("unsubscribed", map[string]string{
				"orderId": msg.OrderID,
				"status":  "success",
			}))
		case "ping":
			c.sendFrame(NewFrame("pong", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			}))
		default:
			c.hub.logger.Warn("Unknown client message type", zap.String("type", msg.Type))
		}
	}
}

// Handler serves a websocket connection until the client disconnects.
func (h *Hub) Handler(conn *websocket.Conn) {
	client := newClient(h, conn)
	h.register(client)

	client.sendFrame(NewFrame("system", map[string]string{
		"message": "Connected to Flash Sale WebSocket",
	}))

	go client.writeLoop()
	client.readLoop()

	h.unregister(client)
	close(client.done)
	_ = conn.Close()
}
